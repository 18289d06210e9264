package call

import (
	"time"

	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

// EventType names a session change.
type EventType string

const (
	EventCallStarted EventType = "call_started"
	EventMessage     EventType = "message"
	EventTyping      EventType = "typing"
	EventSpeaking    EventType = "speaking"
	EventFlags       EventType = "flags"
	EventTick        EventType = "tick"
	EventRecording   EventType = "recording"
	EventCodeWord    EventType = "code_word"
	EventAlert       EventType = "alert"
	EventCallEnded   EventType = "call_ended"
)

// Flags mirrors the boolean session state.
type Flags struct {
	IsMuted             bool `json:"isMuted"`
	IsVideoOn           bool `json:"isVideoOn"`
	IsRecording         bool `json:"isRecording"`
	IsTyping            bool `json:"isTyping"`
	IsAssistantSpeaking bool `json:"isAssistantSpeaking"`
	VoiceMode           bool `json:"voiceMode"`
	HasAlerts           bool `json:"hasAlerts"`
}

// Notice is a short user-facing toast.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Event is one state change published by a session, in Seq order.
type Event struct {
	Seq       uint64         `json:"seq"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Time      time.Time      `json:"time"`
	Message   *model.Message `json:"message,omitempty"`
	Flags     *Flags         `json:"flags,omitempty"`
	Seconds   *int           `json:"seconds,omitempty"`
	Notices   []Notice       `json:"notices,omitempty"`
	Summary   *model.Summary `json:"summary,omitempty"`
}

// Listener receives events outside the session lock. It must not call
// mutating session operations.
type Listener func(Event)
