package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kunkle3328-dev/NebulaMindBakup/internal/metrics"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/audio"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/capture"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/engine"
)

// Microphone is an open capture stream delivering float32 frames at a
// granted sample rate.
type Microphone interface {
	// Start begins delivering frames to onFrame. Frames arrive in capture
	// order from a single goroutine.
	Start(onFrame func([]float32)) error
	// Stop halts capture and releases the device. Idempotent.
	Stop() error
	// SampleRate is the rate the platform actually granted.
	SampleRate() int
}

// MicrophoneOpener acquires the microphone with the requested constraints.
// A permission denial returns an error wrapping ErrMicrophone.
type MicrophoneOpener func(CaptureConstraints) (Microphone, error)

// PlaybackGraph is the session's output path: a clock, a voice factory, and
// a teardown. The session owns its graph exclusively for the lifetime of
// one connection.
type PlaybackGraph interface {
	Clock
	Graph
	// SetTap installs an observer of the rendered output blocks. Nil
	// removes the tap.
	SetTap(tap func([]float32))
	Close() error
}

// Deps are the session's injectable collaborators. Zero-value fields fall
// back to the production implementations.
type Deps struct {
	Dial     Dialer
	OpenMic  MicrophoneOpener
	NewGraph func(outputRate int) (PlaybackGraph, error)
	Logger   *slog.Logger
}

// Session orchestrates a duplex voice conversation: microphone capture,
// the resample/encode/send path, the decode/schedule/play path, and
// server-initiated interruption.
//
// Lifecycle: Idle -> Connecting -> Live -> Idle on a clean close, or
// Connecting|Live -> Error on failure. Error -> Connecting on a manual
// retry. Disconnect is safe from any state, any number of times.
type Session struct {
	cfg  SessionConfig
	deps Deps
	log  *slog.Logger

	analyser *engine.Analyser

	mu          sync.Mutex
	state       SessionState
	channel     Channel
	mic         Microphone
	graph       PlaybackGraph
	sched       *Scheduler
	muted       bool
	captureRate int
	lastError   string
	startErr    error

	// liveGate gates the per-frame send path without taking the mutex on
	// the capture hot path.
	liveGate atomic.Bool

	events chan Event
}

// NewSession creates a session in the idle state.
func NewSession(cfg SessionConfig, deps Deps) *Session {
	cfg.applyDefaults()
	if deps.Dial == nil {
		deps.Dial = Dial
	}
	if deps.OpenMic == nil {
		deps.OpenMic = func(c CaptureConstraints) (Microphone, error) {
			return capture.Open(capture.Constraints{
				EchoCancellation: c.EchoCancellation,
				AutoGainControl:  c.AutoGainControl,
				NoiseSuppression: c.NoiseSuppression,
				PreferredRate:    c.PreferredRate,
			})
		}
	}
	if deps.NewGraph == nil {
		deps.NewGraph = func(rate int) (PlaybackGraph, error) {
			return NewOtoGraph(rate)
		}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:      cfg,
		deps:     deps,
		log:      log,
		state:    StateIdle,
		analyser: engine.NewAnalyser(engine.LiveFFTSize),
		events:   make(chan Event, 64),
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the user-facing message for the most recent failure.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Events returns the channel of session events. Events are dropped rather
// than blocking the audio paths when the consumer falls behind.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Analyser returns the spectrum analyser fed by the session's playback
// output. Valid for the lifetime of the session; it reads as silence
// while no audio is playing.
func (s *Session) Analyser() *engine.Analyser {
	return s.analyser
}

// Muted reports whether the capture gate is closed.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// ToggleMute flips the capture gate and returns the new state. Muting only
// stops frames from being encoded and sent; the capture graph stays wired
// and inbound playback is unaffected.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	s.muted = !s.muted
	muted := s.muted
	s.mu.Unlock()
	s.emit(&MuteChangedEvent{Muted: muted})
	return muted
}

// Connect acquires the microphone, opens the duplex channel, and wires the
// capture and playback paths. Failures transition to the error state and
// are returned; there is no automatic retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateLive {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()
	s.setState(StateConnecting)

	mic, err := s.deps.OpenMic(s.cfg.Capture)
	if err != nil {
		s.fail(msgMicOrEndpoint)
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}

	graph, err := s.deps.NewGraph(s.cfg.OutputRate)
	if err != nil {
		_ = mic.Stop()
		s.fail(msgMicOrEndpoint)
		return fmt.Errorf("open playback graph: %w", err)
	}

	graph.SetTap(s.analyser.Feed)

	s.mu.Lock()
	s.mic = mic
	s.graph = graph
	s.sched = NewScheduler(graph, graph)
	s.captureRate = mic.SampleRate()
	s.mu.Unlock()

	cfg := ChannelConfig{
		Endpoint:          s.cfg.Endpoint,
		APIKey:            s.cfg.APIKey,
		Model:             s.cfg.Model,
		Voice:             s.cfg.Voice,
		SystemInstruction: BuildSystemInstruction(s.cfg),
		DialTimeout:       s.cfg.DialTimeout,
	}
	cb := Callbacks{
		OnOpen:    s.onOpen,
		OnMessage: s.onMessage,
		OnClose:   s.onRemoteClose,
		OnError:   s.onTransportError,
	}

	ch, err := s.deps.Dial(ctx, cfg, cb)
	if err != nil {
		s.teardown()
		s.fail(errorMessage(err))
		return err
	}

	s.mu.Lock()
	// The open callback may have already run and failed to start capture.
	if startErr := s.startErr; startErr != nil {
		s.startErr = nil
		s.mu.Unlock()
		_ = ch.Close()
		s.teardown()
		return fmt.Errorf("start capture: %w", startErr)
	}
	s.channel = ch
	s.mu.Unlock()
	return nil
}

// Disconnect closes the channel, releases the microphone and playback
// graph, silences any scheduled audio, and returns the session to idle.
// Every teardown step is nil-checked so Disconnect is safe to call
// repeatedly and at any point of the lifecycle, including before Connect
// ever wired resources.
func (s *Session) Disconnect() {
	s.liveGate.Store(false)

	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()
	if ch != nil {
		_ = ch.Close()
	}

	s.teardown()
	s.setState(StateIdle)
}

// teardown releases the mic, scheduler, and graph without touching the
// channel or the state machine.
func (s *Session) teardown() {
	s.mu.Lock()
	mic := s.mic
	sched := s.sched
	graph := s.graph
	s.mic = nil
	s.sched = nil
	s.graph = nil
	s.mu.Unlock()

	if mic != nil {
		_ = mic.Stop()
	}
	if sched != nil {
		sched.Interrupt()
	}
	if graph != nil {
		_ = graph.Close()
	}
}

// onOpen wires the capture path once the remote session is open.
func (s *Session) onOpen() {
	s.mu.Lock()
	mic := s.mic
	rate := s.captureRate
	s.mu.Unlock()
	if mic == nil {
		// Torn down before the open completed.
		return
	}

	if err := mic.Start(s.onFrame); err != nil {
		s.mu.Lock()
		s.startErr = err
		ch := s.channel
		s.channel = nil
		s.mu.Unlock()
		// The channel is only set when the open arrived after Connect
		// returned; the synchronous case is unwound by Connect itself.
		if ch != nil {
			_ = ch.Close()
		}
		s.log.Error("start capture", "error", err)
		s.fail(msgMicOrEndpoint)
		return
	}

	s.liveGate.Store(true)
	s.setState(StateLive)
	s.emit(&ConnectedEvent{CaptureRate: rate, TargetRate: s.cfg.TargetRate})
}

// onFrame is the per-frame capture handler: resample to the target
// ingestion rate, encode, send. Frames are dropped, never queued, while
// muted or before the channel is fully open; a failed send is logged and
// the next frame proceeds normally.
func (s *Session) onFrame(frame []float32) {
	if !s.liveGate.Load() {
		metrics.FramesDropped.Inc()
		return
	}

	s.mu.Lock()
	ch := s.channel
	muted := s.muted
	rate := s.captureRate
	s.mu.Unlock()

	if muted || ch == nil {
		metrics.FramesDropped.Inc()
		return
	}

	resampled := audio.Resample(frame, rate, s.cfg.TargetRate)
	pcm := audio.Float32ToInt16LE(resampled)
	metrics.MicLevel.Set(audio.RMSEnergy(pcm))
	metrics.MicPeak.Set(audio.PeakAmplitude(pcm))
	in := RealtimeInput{Media: Media{
		MIMEType: PCMMIMEType(s.cfg.TargetRate),
		Data:     audio.EncodeBase64(pcm),
	}}

	if err := ch.SendRealtimeInput(in); err != nil {
		metrics.SendErrors.Inc()
		s.log.Warn("audio send failed", "error", err)
		return
	}
	metrics.FramesSent.Inc()
}

// onMessage handles one inbound server message: schedule inline audio for
// gapless playback, then honour an interruption signal.
func (s *Session) onMessage(msg *ServerMessage) {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()
	if sched == nil {
		return
	}

	if data, ok := msg.InlineAudio(); ok {
		raw, err := audio.DecodeBase64(data)
		if err != nil {
			// Fatal for this message only: drop it, keep the session.
			metrics.DecodeErrors.Inc()
			s.log.Warn("drop malformed audio payload", "error", err)
		} else {
			buf := Buffer{Samples: audio.Int16LEToFloat32(raw), SampleRate: s.cfg.OutputRate}
			startAt := sched.ScheduleChunk(buf)
			s.emit(&AudioScheduledEvent{StartAt: startAt, Duration: buf.Duration()})
		}
	}

	if msg.Interrupted() {
		stopped := sched.Interrupt()
		s.emit(&InterruptedEvent{Stopped: stopped})
	}
}

// onRemoteClose handles a clean remote close: back to idle, release the
// session handle. The mic stays open until Disconnect, matching the
// ownership split between the channel and the capture device.
func (s *Session) onRemoteClose() {
	s.liveGate.Store(false)
	s.mu.Lock()
	s.channel = nil
	s.mu.Unlock()
	s.setState(StateIdle)
	s.emit(&SessionClosedEvent{Reason: "remote close"})
}

// onTransportError surfaces a channel failure, distinguishing lost
// connectivity from a generic endpoint error.
func (s *Session) onTransportError(err error) {
	s.liveGate.Store(false)
	s.fail(errorMessage(err))
	s.log.Error("session error", "error", err)
}

func (s *Session) fail(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
	s.setState(StateError)
	s.emit(&ErrorEvent{Message: message})
}

func (s *Session) setState(newState SessionState) {
	s.mu.Lock()
	oldState := s.state
	s.state = newState
	s.mu.Unlock()

	if oldState != newState {
		s.emit(&StateChangedEvent{From: oldState, To: newState})
	}
}

// emit sends an event without ever blocking an audio path.
func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	default:
	}
}
