// Package engine is the process-wide playback core: one media player, one
// spectrum analyser, one media-session binding, shared by every feature
// that plays long-form audio.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
)

const sessionArtist = "Nebula Mind AI"

// Engine owns the shared playback resources. Use Shared for the process
// singleton or New to inject fakes.
type Engine struct {
	device  OutputDevice
	session MediaSession
	log     *slog.Logger

	mu        sync.Mutex
	activated bool
	player    *mediaPlayer
	analyser  *Analyser
	current   Track
	subs      map[*Subscription]struct{}
}

var (
	shared     *Engine
	sharedOnce sync.Once
)

// Shared returns the process-wide engine over the real output device.
func Shared() *Engine {
	sharedOnce.Do(func() {
		shared = New(NewOtoDevice(), NoopMediaSession{}, slog.Default())
	})
	return shared
}

// New creates an engine with explicit collaborators.
func New(device OutputDevice, session MediaSession, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		device:  device,
		session: session,
		log:     log,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Activate wires the player and analyser on first call and resumes a
// suspended output device. Subsequent calls are no-ops; the guard is the
// activated flag, so real wiring errors always surface.
func (e *Engine) Activate() error {
	e.mu.Lock()
	if e.activated {
		e.mu.Unlock()
		return nil
	}

	analyser := NewAnalyser(DefaultFFTSize)
	player := newMediaPlayer(e.device)
	player.tap = analyser.Feed
	player.onEnded = func() {
		e.log.Info("track ended")
	}
	player.onState = e.broadcast

	e.player = player
	e.analyser = analyser
	e.activated = true
	e.mu.Unlock()

	e.session.SetHandlers(
		func() { _ = e.resume() },
		func() { e.pause() },
		func(seconds float64) { e.Seek(seconds) },
	)

	if err := e.device.Resume(); err != nil {
		// Playback-policy refusal: report, do not fail activation.
		e.log.Warn("output device resume refused", "error", err)
	}
	return nil
}

// PlayTrack loads and plays a track. Playing the track that is already
// current toggles play/pause instead of restarting it; a different track
// resets the position and starts from the top.
func (e *Engine) PlayTrack(t Track) error {
	if err := e.Activate(); err != nil {
		return err
	}

	e.mu.Lock()
	sameTrack := e.current.URL == t.URL && e.current.URL != ""
	player := e.player
	e.mu.Unlock()

	if sameTrack {
		return e.TogglePlayPause()
	}

	if err := player.load(t.URL); err != nil {
		return fmt.Errorf("play %q: %w", t.Title, err)
	}

	e.mu.Lock()
	e.current = t
	e.mu.Unlock()

	e.session.SetMetadata(t.Title, sessionArtist, t.Topic, t.CoverURL)

	if err := e.resume(); err != nil {
		return err
	}
	e.broadcast()
	return nil
}

// TogglePlayPause flips the transport. Without a current track it is a
// no-op.
func (e *Engine) TogglePlayPause() error {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return nil
	}

	if player.isPlaying() {
		e.pause()
		return nil
	}
	return e.resume()
}

// Seek moves the current track position, clamped to its bounds.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player != nil {
		player.seek(seconds)
	}
}

// State returns a transport snapshot.
func (e *Engine) State() TransportState {
	e.mu.Lock()
	player := e.player
	current := e.current
	e.mu.Unlock()

	st := TransportState{TrackURL: current.URL, Title: current.Title}
	if player != nil {
		st.Playing = player.isPlaying()
		st.Position = player.position()
		st.Duration = player.duration()
	}
	return st
}

// Analyser returns the shared analyser, or nil before activation.
func (e *Engine) Analyser() *Analyser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyser
}

func (e *Engine) resume() error {
	if err := e.device.Resume(); err != nil {
		// Same policy as activation: a refused resume is a warning, not a
		// caller-visible failure.
		e.log.Warn("output device resume refused", "error", err)
	}

	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return nil
	}
	if err := player.play(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) pause() {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player != nil {
		player.pause()
	}
}

// Subscription is one registered transport listener. Close unregisters it;
// subscribe and close always come in pairs so listeners cannot leak.
type Subscription struct {
	engine *Engine
	ch     chan TransportState
	once   sync.Once
}

// Subscribe registers a transport listener. The channel receives a
// snapshot after every transport change; slow consumers miss intermediate
// snapshots instead of blocking playback.
func (e *Engine) Subscribe() *Subscription {
	sub := &Subscription{
		engine: e,
		ch:     make(chan TransportState, 8),
	}
	e.mu.Lock()
	e.subs[sub] = struct{}{}
	e.mu.Unlock()
	return sub
}

// Updates returns the listener's channel.
func (s *Subscription) Updates() <-chan TransportState {
	return s.ch
}

// Close unregisters the listener. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.engine.mu.Lock()
		delete(s.engine.subs, s)
		s.engine.mu.Unlock()
	})
}

func (e *Engine) broadcast() {
	st := e.State()
	e.mu.Lock()
	subs := make([]*Subscription, 0, len(e.subs))
	for sub := range e.subs {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- st:
		default:
		}
	}
}
