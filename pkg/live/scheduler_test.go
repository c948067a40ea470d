package live

import (
	"math"
	"sync"
	"testing"
)

type fakeClock struct {
	mu sync.Mutex
	t  float64
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d float64) {
	c.mu.Lock()
	c.t += d
	c.mu.Unlock()
}

type fakeVoice struct {
	buf     Buffer
	onEnded func()

	mu      sync.Mutex
	startAt float64
	started bool
	stopped bool
}

func (v *fakeVoice) StartAt(t float64) {
	v.mu.Lock()
	v.startAt = t
	v.started = true
	v.mu.Unlock()
}

func (v *fakeVoice) Stop() {
	v.mu.Lock()
	v.stopped = true
	v.mu.Unlock()
}

func (v *fakeVoice) finish() {
	v.mu.Lock()
	stopped := v.stopped
	v.mu.Unlock()
	if !stopped && v.onEnded != nil {
		v.onEnded()
	}
}

type fakeVoiceGraph struct {
	mu     sync.Mutex
	voices []*fakeVoice
}

func (g *fakeVoiceGraph) NewVoice(buf Buffer, onEnded func()) Voice {
	v := &fakeVoice{buf: buf, onEnded: onEnded}
	g.mu.Lock()
	g.voices = append(g.voices, v)
	g.mu.Unlock()
	return v
}

func (g *fakeVoiceGraph) all() []*fakeVoice {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*fakeVoice(nil), g.voices...)
}

func monoBuffer(durationSec float64, rate int) Buffer {
	n := int(math.Round(durationSec * float64(rate)))
	return Buffer{Samples: make([]float32, n), SampleRate: rate}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSchedulerGaplessSequence(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	graph := &fakeVoiceGraph{}
	s := NewScheduler(clock, graph)

	durations := []float64{1.0, 0.5, 0.75}
	wantStarts := []float64{0, 1.0, 1.5}

	for i, d := range durations {
		startAt := s.ScheduleChunk(monoBuffer(d, 24000))
		if !almostEqual(startAt, wantStarts[i]) {
			t.Fatalf("chunk %d: start = %v, want %v", i, startAt, wantStarts[i])
		}
	}

	if got := s.NextStartTime(); !almostEqual(got, 2.25) {
		t.Errorf("NextStartTime = %v, want 2.25", got)
	}
	if got := s.ActiveCount(); got != 3 {
		t.Errorf("ActiveCount = %d, want 3", got)
	}
	for i, v := range graph.all() {
		if !v.started {
			t.Errorf("voice %d never started", i)
		}
	}
}

func TestSchedulerNoOverlap(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	graph := &fakeVoiceGraph{}
	s := NewScheduler(clock, graph)

	// Bursty arrival: all chunks land while the clock barely moves.
	for i := 0; i < 10; i++ {
		s.ScheduleChunk(monoBuffer(0.3, 24000))
		clock.Advance(0.01)
	}

	voices := graph.all()
	for i := 1; i < len(voices); i++ {
		prevEnd := voices[i-1].startAt + voices[i-1].buf.Duration()
		if voices[i].startAt < prevEnd-1e-9 {
			t.Fatalf("chunk %d starts at %v before previous ends at %v",
				i, voices[i].startAt, prevEnd)
		}
		if !almostEqual(voices[i].startAt, prevEnd) {
			t.Fatalf("gap before chunk %d: start %v, previous end %v",
				i, voices[i].startAt, prevEnd)
		}
	}
}

func TestSchedulerResumesAtNowAfterDrain(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	graph := &fakeVoiceGraph{}
	s := NewScheduler(clock, graph)

	s.ScheduleChunk(monoBuffer(0.5, 24000))
	graph.all()[0].finish()

	if got := s.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount after drain = %d, want 0", got)
	}

	// Long silence, then a new chunk: it must play immediately, not at the
	// stale cursor.
	clock.Advance(5.0)
	startAt := s.ScheduleChunk(monoBuffer(0.5, 24000))
	if !almostEqual(startAt, 5.0) {
		t.Errorf("post-drain start = %v, want 5.0", startAt)
	}
}

func TestSchedulerInterrupt(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	graph := &fakeVoiceGraph{}
	s := NewScheduler(clock, graph)

	for i := 0; i < 3; i++ {
		s.ScheduleChunk(monoBuffer(1.0, 24000))
	}
	clock.Advance(0.3)

	stopped := s.Interrupt()
	if stopped != 3 {
		t.Fatalf("Interrupt stopped %d voices, want 3", stopped)
	}
	if got := s.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after interrupt = %d, want 0", got)
	}
	for i, v := range graph.all() {
		if !v.stopped {
			t.Errorf("voice %d not stopped", i)
		}
	}

	// The cursor resets to the interrupt moment so the reply is immediate.
	if got := s.NextStartTime(); !almostEqual(got, 0.3) {
		t.Errorf("NextStartTime after interrupt = %v, want 0.3", got)
	}
	startAt := s.ScheduleChunk(monoBuffer(0.5, 24000))
	if !almostEqual(startAt, 0.3) {
		t.Errorf("first chunk after interrupt starts at %v, want 0.3", startAt)
	}
}

func TestSchedulerEndedAfterInterruptDoesNotUnderflow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	graph := &fakeVoiceGraph{}
	s := NewScheduler(clock, graph)

	s.ScheduleChunk(monoBuffer(0.5, 24000))
	v := graph.all()[0]

	s.Interrupt()

	// A late ended callback for a voice the interrupt already removed must
	// be a no-op.
	if v.onEnded != nil {
		v.onEnded()
	}
	if got := s.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d, want 0", got)
	}
}

func TestBufferDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		samples int
		rate    int
		want    float64
	}{
		{24000, 24000, 1.0},
		{12000, 24000, 0.5},
		{0, 24000, 0},
		{100, 0, 0},
	}
	for _, tc := range cases {
		b := Buffer{Samples: make([]float32, tc.samples), SampleRate: tc.rate}
		if got := b.Duration(); !almostEqual(got, tc.want) {
			t.Errorf("Duration(%d samples @ %d) = %v, want %v",
				tc.samples, tc.rate, got, tc.want)
		}
	}
}
