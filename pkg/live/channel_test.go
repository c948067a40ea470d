package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// voiceTestServer is a minimal in-process voice endpoint.
type voiceTestServer struct {
	t      *testing.T
	server *httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn

	setupCh chan clientSetup
	frameCh chan realtimeInputFrame
}

func newVoiceTestServer(t *testing.T) *voiceTestServer {
	t.Helper()
	s := &voiceTestServer{
		t:       t,
		setupCh: make(chan clientSetup, 1),
		frameCh: make(chan realtimeInputFrame, 16),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

func (s *voiceTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *voiceTestServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("upgrade: %v", err)
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var setup clientSetup
		if json.Unmarshal(data, &setup) == nil && setup.Setup.Model != "" {
			select {
			case s.setupCh <- setup:
			default:
			}
			continue
		}
		var frame realtimeInputFrame
		if json.Unmarshal(data, &frame) == nil && frame.RealtimeInput.Media.Data != "" {
			select {
			case s.frameCh <- frame:
			default:
			}
		}
	}
}

func (s *voiceTestServer) send(t *testing.T, v any) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no connected client")
	}
	if err := s.conns[len(s.conns)-1].WriteJSON(v); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func (s *voiceTestServer) sendRaw(t *testing.T, data string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no connected client")
	}
	if err := s.conns[len(s.conns)-1].WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
		panic("unreachable")
	}
}

func TestDialSendsSetupFrame(t *testing.T) {
	t.Parallel()

	srv := newVoiceTestServer(t)
	opened := make(chan struct{}, 1)

	ch, err := Dial(context.Background(), ChannelConfig{
		Endpoint:          srv.url(),
		Model:             "gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:             "Puck",
		SystemInstruction: "You are a podcast host.",
	}, Callbacks{
		OnOpen: func() { opened <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()

	waitFor(t, opened, "open callback")
	setup := waitFor(t, srv.setupCh, "setup frame")

	if got, want := setup.Setup.Model, "gemini-2.5-flash-native-audio-preview-09-2025"; got != want {
		t.Errorf("setup model = %q, want %q", got, want)
	}
	if got := setup.Setup.GenerationConfig.ResponseModalities; len(got) != 1 || got[0] != "AUDIO" {
		t.Errorf("response modalities = %v, want [AUDIO]", got)
	}
	sc := setup.Setup.GenerationConfig.SpeechConfig
	if sc == nil || sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Errorf("speech config = %+v, want voice Puck", sc)
	}
	si := setup.Setup.SystemInstruction
	if si == nil || len(si.Parts) != 1 || si.Parts[0].Text != "You are a podcast host." {
		t.Errorf("system instruction = %+v", si)
	}
}

func TestChannelSendRealtimeInput(t *testing.T) {
	t.Parallel()

	srv := newVoiceTestServer(t)
	ch, err := Dial(context.Background(), ChannelConfig{
		Endpoint: srv.url(),
		Model:    "test-model",
	}, Callbacks{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()
	waitFor(t, srv.setupCh, "setup frame")

	in := RealtimeInput{Media: Media{
		MIMEType: PCMMIMEType(24000),
		Data:     "AAAA",
	}}
	if err := ch.SendRealtimeInput(in); err != nil {
		t.Fatalf("SendRealtimeInput: %v", err)
	}

	frame := waitFor(t, srv.frameCh, "audio frame")
	if got, want := frame.RealtimeInput.Media.MIMEType, "audio/pcm;rate=24000"; got != want {
		t.Errorf("mime type = %q, want %q", got, want)
	}
	if frame.RealtimeInput.Media.Data != "AAAA" {
		t.Errorf("payload = %q, want AAAA", frame.RealtimeInput.Media.Data)
	}
}

func TestChannelDeliversServerAudio(t *testing.T) {
	t.Parallel()

	srv := newVoiceTestServer(t)
	messages := make(chan *ServerMessage, 4)
	ch, err := Dial(context.Background(), ChannelConfig{
		Endpoint: srv.url(),
		Model:    "test-model",
	}, Callbacks{
		OnMessage: func(m *ServerMessage) { messages <- m },
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()
	waitFor(t, srv.setupCh, "setup frame")

	srv.send(t, ServerMessage{ServerContent: &ServerContent{
		ModelTurn: &ModelTurn{Parts: []Part{{
			InlineData: &InlineData{MIMEType: "audio/pcm;rate=24000", Data: "UExBWQ=="},
		}}},
	}})

	msg := waitFor(t, messages, "server audio message")
	data, ok := msg.InlineAudio()
	if !ok || data != "UExBWQ==" {
		t.Errorf("InlineAudio = %q, %v; want payload, true", data, ok)
	}
	if msg.Interrupted() {
		t.Error("message unexpectedly marked interrupted")
	}
}

func TestChannelDropsUndecodableMessages(t *testing.T) {
	t.Parallel()

	srv := newVoiceTestServer(t)
	messages := make(chan *ServerMessage, 4)
	ch, err := Dial(context.Background(), ChannelConfig{
		Endpoint: srv.url(),
		Model:    "test-model",
	}, Callbacks{
		OnMessage: func(m *ServerMessage) { messages <- m },
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ch.Close()
	waitFor(t, srv.setupCh, "setup frame")

	srv.sendRaw(t, "{not json")
	srv.send(t, ServerMessage{ServerContent: &ServerContent{Interrupted: true}})

	msg := waitFor(t, messages, "message after undecodable frame")
	if !msg.Interrupted() {
		t.Error("expected the valid interrupted message to survive the bad frame")
	}
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	srv := newVoiceTestServer(t)
	closed := make(chan struct{}, 2)
	ch, err := Dial(context.Background(), ChannelConfig{
		Endpoint: srv.url(),
		Model:    "test-model",
	}, Callbacks{
		OnClose: func() { closed <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitFor(t, srv.setupCh, "setup frame")

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	waitFor(t, closed, "close callback")

	if err := ch.SendRealtimeInput(RealtimeInput{}); err != ErrChannelClosed {
		t.Errorf("send after close = %v, want ErrChannelClosed", err)
	}
}

func TestDialUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	_, err := Dial(context.Background(), ChannelConfig{
		Endpoint:    "ws://127.0.0.1:1",
		Model:       "test-model",
		DialTimeout: 2 * time.Second,
	}, Callbacks{})
	if err == nil {
		t.Fatal("Dial succeeded against an unreachable endpoint")
	}
}
