package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders a replay result.
func Write(w io.Writer, res *Result, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatText, "":
		_, err := io.WriteString(w, renderText(res))
		return err
	default:
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}
}

func renderText(res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "call %s with %s\n\n", res.SessionID, res.AIName)
	for _, m := range res.Timeline {
		who := "You"
		if m.Sender == model.SenderAssistant {
			who = res.AIName
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", offset(res.StartedAt, m.Timestamp), who, m.Text)
	}

	if len(res.Notifications) > 0 {
		b.WriteString("\nnotifications:\n")
		for _, n := range res.Notifications {
			fmt.Fprintf(&b, "  %s (%s) - %s\n", n.Title, n.Phone, n.Description)
		}
	}

	alerts := "no"
	if res.Summary.HasAlerts {
		alerts = "yes"
	}
	fmt.Fprintf(&b, "\nduration %s, %d messages, alerts %s\n",
		model.FormatDuration(res.Summary.DurationSeconds), res.Summary.MessageCount, alerts)
	return b.String()
}

func offset(start, at time.Time) string {
	d := at.Sub(start)
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%s.%03d", model.FormatDuration(int(ms/1000)), ms%1000)
}
