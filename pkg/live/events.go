package live

// Event is the interface for all live session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted when the session state changes.
type StateChangedEvent struct {
	From SessionState `json:"from"`
	To   SessionState `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// ConnectedEvent is emitted when the duplex channel opens and the capture
// path is wired.
type ConnectedEvent struct {
	CaptureRate int `json:"capture_rate"`
	TargetRate  int `json:"target_rate"`
}

func (e *ConnectedEvent) EventType() string { return "session.connected" }

// AudioScheduledEvent is emitted for each inbound chunk handed to the
// playback scheduler.
type AudioScheduledEvent struct {
	StartAt  float64 `json:"start_at"`
	Duration float64 `json:"duration"`
}

func (e *AudioScheduledEvent) EventType() string { return "audio.scheduled" }

// InterruptedEvent is emitted when the server signals user barge-in and
// queued model audio is force-stopped.
type InterruptedEvent struct {
	Stopped int `json:"stopped"`
}

func (e *InterruptedEvent) EventType() string { return "audio.interrupted" }

// MuteChangedEvent is emitted when the capture gate flips.
type MuteChangedEvent struct {
	Muted bool `json:"muted"`
}

func (e *MuteChangedEvent) EventType() string { return "mic.mute_changed" }

// SessionClosedEvent is emitted when the session returns to idle.
type SessionClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *SessionClosedEvent) EventType() string { return "session.closed" }

// ErrorEvent is emitted when the session enters the error state.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "session.error" }
