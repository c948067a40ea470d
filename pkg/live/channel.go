package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const defaultDialTimeout = 15 * time.Second

// Callbacks receives channel lifecycle and message notifications. All
// callbacks are invoked from the channel's read goroutine, in arrival order.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(*ServerMessage)
	OnClose   func()
	OnError   func(error)
}

// Channel is a duplex session with the remote voice endpoint.
type Channel interface {
	// SendRealtimeInput streams one encoded audio frame upstream.
	SendRealtimeInput(RealtimeInput) error
	// Close shuts the channel down. Idempotent.
	Close() error
}

// ChannelConfig describes how to open the duplex channel.
type ChannelConfig struct {
	// Endpoint is the websocket URL of the voice service.
	Endpoint string
	// APIKey authenticates the session (appended as a query parameter).
	APIKey string
	// Model selects the conversational voice model.
	Model string
	// Voice selects the prebuilt speaking voice.
	Voice string
	// SystemInstruction primes the conversation.
	SystemInstruction string
	// DialTimeout bounds the websocket handshake. Default 15s.
	DialTimeout time.Duration
}

// Dialer opens a Channel. Injected so sessions can be tested without a
// network endpoint.
type Dialer func(ctx context.Context, cfg ChannelConfig, cb Callbacks) (Channel, error)

// wsChannel is the production Channel over a websocket connection.
type wsChannel struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens a websocket channel to the voice endpoint, sends the setup
// frame, and starts the read loop. The handshake is bounded by
// cfg.DialTimeout; a stalled endpoint fails the connect instead of hanging.
func Dial(ctx context.Context, cfg ChannelConfig, cb Callbacks) (Channel, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	endpoint := cfg.Endpoint
	if cfg.APIKey != "" {
		endpoint += "?key=" + cfg.APIKey
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("open voice channel: %w", err)
	}

	ch := &wsChannel{
		conn: conn,
		log:  slog.Default(),
		done: make(chan struct{}),
	}

	setup := clientSetup{Setup: setupPayload{
		Model: cfg.Model,
		GenerationConfig: generationSettings{
			ResponseModalities: []string{"AUDIO"},
		},
	}}
	if cfg.Voice != "" {
		setup.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: cfg.Voice}},
		}
	}
	if cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &instructionText{Parts: []textPart{{Text: cfg.SystemInstruction}}}
	}
	if err := ch.sendJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send session setup: %w", err)
	}

	go ch.readLoop(cb)

	if cb.OnOpen != nil {
		cb.OnOpen()
	}
	return ch, nil
}

func (c *wsChannel) SendRealtimeInput(in RealtimeInput) error {
	return c.sendJSON(realtimeInputFrame{RealtimeInput: in})
}

func (c *wsChannel) sendJSON(v any) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
	<-c.done
	return nil
}

func (c *wsChannel) readLoop(cb Callbacks) {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if cb.OnClose != nil {
					cb.OnClose()
				}
				return
			}
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Scoped to this message only; drop it and keep the session.
			c.log.Warn("drop undecodable server message", "error", err)
			continue
		}
		if cb.OnMessage != nil {
			cb.OnMessage(&msg)
		}
	}
}
