package live

import (
	"sync"

	"github.com/kunkle3328-dev/NebulaMindBakup/internal/metrics"
)

// Clock reports the current playback timeline position in seconds. It must
// be monotonic for the lifetime of the graph it belongs to.
type Clock interface {
	Now() float64
}

// Voice is one scheduled playback unit bound to a decoded buffer.
//
// StartAt requests playback at the given clock time. Stop force-stops the
// voice; a stopped voice must not invoke its ended callback afterwards.
type Voice interface {
	StartAt(t float64)
	Stop()
}

// Graph creates voices connected into the output path (speaker plus any
// analyser tap). Implementations must not invoke onEnded synchronously from
// NewVoice.
type Graph interface {
	NewVoice(buf Buffer, onEnded func()) Voice
}

// Buffer is an independently decoded chunk of mono audio.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Scheduler plays decoded audio chunks back-to-back with no gaps and no
// overlap. Each chunk starts at max(now, end of previous chunk), so bursts
// queue up seamlessly and a drained queue resumes immediately at "now"
// without accumulating latency.
type Scheduler struct {
	clock Clock
	graph Graph

	mu        sync.Mutex
	nextStart float64
	active    map[Voice]struct{}
}

// NewScheduler creates a scheduler over the given clock and output graph.
func NewScheduler(clock Clock, graph Graph) *Scheduler {
	return &Scheduler{
		clock:  clock,
		graph:  graph,
		active: make(map[Voice]struct{}),
	}
}

// ScheduleChunk queues buf for gapless playback and returns its start time.
func (s *Scheduler) ScheduleChunk(buf Buffer) float64 {
	s.mu.Lock()

	startAt := s.clock.Now()
	if s.nextStart > startAt {
		startAt = s.nextStart
	}

	var v Voice
	v = s.graph.NewVoice(buf, func() {
		s.mu.Lock()
		if _, ok := s.active[v]; ok {
			delete(s.active, v)
			metrics.ActiveVoices.Dec()
		}
		s.mu.Unlock()
	})
	s.active[v] = struct{}{}
	s.nextStart = startAt + buf.Duration()
	s.mu.Unlock()

	metrics.ActiveVoices.Inc()
	metrics.ChunksScheduled.Inc()

	v.StartAt(startAt)
	return startAt
}

// Interrupt force-stops every in-flight voice, clears the active set, and
// resets the cursor to "now" so the next chunk plays immediately. Used on
// server-signalled barge-in.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	stopped := make([]Voice, 0, len(s.active))
	for v := range s.active {
		stopped = append(stopped, v)
	}
	s.active = make(map[Voice]struct{})
	s.nextStart = s.clock.Now()
	s.mu.Unlock()

	for _, v := range stopped {
		v.Stop()
	}
	metrics.ActiveVoices.Sub(float64(len(stopped)))
	metrics.Interrupts.Inc()
	return len(stopped)
}

// ActiveCount returns the number of in-flight voices.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStartTime returns the current scheduling cursor.
func (s *Scheduler) NextStartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
