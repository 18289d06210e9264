package call

import (
	"fmt"
	"time"
)

// Phase is the lifecycle position of a call session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhaseEnded      Phase = "ended"
)

// State is a point-in-time copy of a session.
type State struct {
	ID                       string    `json:"id"`
	Phase                    Phase     `json:"phase"`
	AIName                   string    `json:"aiName"`
	CodeWord                 string    `json:"codeWord"`
	PendingCodeWord          string    `json:"pendingCodeWord"`
	Draft                    string    `json:"draft"`
	Messages                 []Message `json:"messages"`
	CallDurationSeconds      int       `json:"callDurationSeconds"`
	RecordingDurationSeconds int       `json:"recordingDurationSeconds"`
	IsMuted                  bool      `json:"isMuted"`
	IsVideoOn                bool      `json:"isVideoOn"`
	IsRecording              bool      `json:"isRecording"`
	IsTyping                 bool      `json:"isTyping"`
	IsAssistantSpeaking      bool      `json:"isAssistantSpeaking"`
	VoiceMode                bool      `json:"voiceMode"`
	HasAlerts                bool      `json:"hasAlerts"`
	StartedAt                time.Time `json:"startedAt"`
}

// Summary is emitted once, when the call ends.
type Summary struct {
	DurationSeconds int  `json:"durationSeconds"`
	MessageCount    int  `json:"messageCount"`
	HasAlerts       bool `json:"hasAlerts"`
}

// HistoryEntry is the record handed to the call history store.
type HistoryEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	AIName    string    `json:"aiName"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Summary
}

// FormatDuration renders seconds as MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
