package live

import "time"

// SessionState represents the lifecycle state of a live voice session.
type SessionState int

const (
	// StateIdle is both the initial state and the state after a clean close.
	StateIdle SessionState = iota
	// StateConnecting is the window between Connect and the channel opening.
	StateConnecting
	// StateLive means the capture and playback paths are wired and running.
	StateLive
	// StateError means the last connect attempt or the channel failed; a new
	// Connect call returns the session to service.
	StateError
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateLive:
		return "LIVE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SessionMode selects the conversation format.
type SessionMode string

const (
	// ModeStandard is a guest co-host chat with the podcast host persona.
	ModeStandard SessionMode = "Standard"
	// ModeArena is a structured debate against the AI hosts.
	ModeArena SessionMode = "Arena"
)

// DebateRole is the user's role in Arena mode.
type DebateRole string

const (
	RoleModerator DebateRole = "Moderator"
	RolePro       DebateRole = "Pro"
	RoleCon       DebateRole = "Con"
)

// CaptureConstraints mirror the capture processing the platform is asked to
// apply to the microphone stream. Platforms that cannot honour a hint
// capture without it.
type CaptureConstraints struct {
	EchoCancellation bool
	AutoGainControl  bool
	NoiseSuppression bool
	// PreferredRate asks the device for this capture rate; the granted rate
	// may differ, which the send path corrects by resampling.
	PreferredRate int
}

// SessionConfig holds all configuration for a live voice session.
type SessionConfig struct {
	// Endpoint and APIKey locate the remote voice service.
	Endpoint string
	APIKey   string

	// Model is the conversational voice model identifier.
	Model string
	// Voice is the prebuilt speaking voice name.
	Voice string

	// Mode selects Standard chat or the debate Arena.
	Mode SessionMode
	// Role is the user's debate role (Arena mode only).
	Role DebateRole
	// SourceContext is the research material grounding the conversation.
	SourceContext string
	// UserName is the user's display name, woven into the instruction.
	UserName string

	// TargetRate is the endpoint's single supported ingestion rate.
	TargetRate int
	// OutputRate is the fixed rate of inbound model audio.
	OutputRate int

	// Capture configures the microphone acquisition.
	Capture CaptureConstraints

	// DialTimeout bounds the channel handshake.
	DialTimeout time.Duration
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Endpoint:   "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
		Model:      "gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:      "Puck",
		Mode:       ModeStandard,
		Role:       RolePro,
		TargetRate: 24000,
		OutputRate: 24000,
		Capture: CaptureConstraints{
			EchoCancellation: true,
			AutoGainControl:  true,
			NoiseSuppression: true,
			PreferredRate:    24000,
		},
		DialTimeout: defaultDialTimeout,
	}
}

func (c *SessionConfig) applyDefaults() {
	def := DefaultSessionConfig()
	if c.Endpoint == "" {
		c.Endpoint = def.Endpoint
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.Voice == "" {
		c.Voice = def.Voice
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.TargetRate == 0 {
		c.TargetRate = def.TargetRate
	}
	if c.OutputRate == 0 {
		c.OutputRate = def.OutputRate
	}
	if c.Capture.PreferredRate == 0 {
		c.Capture.PreferredRate = c.TargetRate
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = def.DialTimeout
	}
}
