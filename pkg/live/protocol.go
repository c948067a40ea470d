package live

import "fmt"

// Wire types for the duplex voice channel. Outbound frames carry base64
// 16-bit little-endian PCM tagged with an "audio/pcm;rate=<R>" MIME type;
// inbound frames optionally carry model audio as inline data at a fixed
// known rate plus an interrupted flag for barge-in.

// Media is an encoded audio payload plus its MIME descriptor.
type Media struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// PCMMIMEType returns the MIME descriptor for raw PCM at the given rate.
func PCMMIMEType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// RealtimeInput is one outbound audio frame.
type RealtimeInput struct {
	Media Media `json:"media"`
}

// clientSetup is the first frame sent after the socket opens.
type clientSetup struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string             `json:"model"`
	SystemInstruction *instructionText   `json:"systemInstruction,omitempty"`
	GenerationConfig  generationSettings `json:"generationConfig"`
}

type instructionText struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generationSettings struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

// realtimeInputFrame wraps RealtimeInput for the wire.
type realtimeInputFrame struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

// InlineData is an inbound encoded audio payload.
type InlineData struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

// Part is one piece of a model turn.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// ModelTurn carries the model's streamed output parts.
type ModelTurn struct {
	Parts []Part `json:"parts,omitempty"`
}

// ServerContent is the per-message model payload.
type ServerContent struct {
	ModelTurn    *ModelTurn `json:"modelTurn,omitempty"`
	Interrupted  bool       `json:"interrupted,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
}

// ServerMessage is one inbound frame from the voice endpoint.
type ServerMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
}

// InlineAudio returns the first inline audio payload of the model turn, if
// present.
func (m *ServerMessage) InlineAudio() (string, bool) {
	if m == nil || m.ServerContent == nil || m.ServerContent.ModelTurn == nil {
		return "", false
	}
	for _, part := range m.ServerContent.ModelTurn.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return part.InlineData.Data, true
		}
	}
	return "", false
}

// Interrupted reports whether the server signalled user barge-in.
func (m *ServerMessage) Interrupted() bool {
	return m != nil && m.ServerContent != nil && m.ServerContent.Interrupted
}
