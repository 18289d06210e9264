package call

import (
	"errors"
	"fmt"

	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
)

// ErrUnknownControl is returned for a control name Toggle does not know.
var ErrUnknownControl = errors.New("unknown control")

// Controls lists the names accepted by Toggle.
var Controls = []string{"mute", "video", "voice", "recording"}

// Toggle flips one call control by name. The websocket handler shares it.
func Toggle(session *callService.Session, control string) (ToggleResult, error) {
	result := ToggleResult{Control: control}

	var err error
	switch control {
	case "mute":
		result.Enabled, err = session.ToggleMute()
	case "video":
		result.Enabled, err = session.ToggleVideo()
	case "voice":
		result.Enabled, err = session.ToggleVoiceMode()
	case "recording":
		var rec callService.RecordingResult
		rec, err = session.ToggleRecording()
		result.Enabled = rec.Recording
		if !rec.Recording {
			seconds := rec.Seconds
			result.Seconds = &seconds
		}
	default:
		return ToggleResult{}, fmt.Errorf("%w: %q", ErrUnknownControl, control)
	}
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}
