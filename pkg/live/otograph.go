package live

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/kunkle3328-dev/NebulaMindBakup/internal/speaker"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/audio"
)

// OtoGraph is the production playback graph over the shared speaker. Its
// clock is the output sample cursor, so voice start times are
// sample-accurate regardless of wall-clock jitter in the render callback.
type OtoGraph struct {
	mixer  *sampleMixer
	player *oto.Player

	closeOnce sync.Once
}

// NewOtoGraph opens a player on the shared output context. Buffers
// scheduled at a different rate are resampled to the speaker rate.
func NewOtoGraph(outputRate int) (*OtoGraph, error) {
	m := &sampleMixer{rate: speaker.SampleRate}
	player, err := speaker.NewPlayer(m)
	if err != nil {
		return nil, err
	}
	g := &OtoGraph{mixer: m, player: player}
	player.Play()
	return g, nil
}

// Now returns the playback timeline position in seconds.
func (g *OtoGraph) Now() float64 {
	return g.mixer.now()
}

// NewVoice creates an unscheduled voice for buf. The ended callback fires
// from the render goroutine once the voice plays out in full.
func (g *OtoGraph) NewVoice(buf Buffer, onEnded func()) Voice {
	samples := buf.Samples
	if buf.SampleRate > 0 && buf.SampleRate != g.mixer.rate {
		samples = audio.Resample(samples, buf.SampleRate, g.mixer.rate)
	}
	return &graphVoice{mixer: g.mixer, samples: samples, onEnded: onEnded}
}

// SetTap installs a per-render-block observer of the mixed output, used to
// feed a spectrum analyser. Pass nil to remove the tap.
func (g *OtoGraph) SetTap(tap func([]float32)) {
	g.mixer.setTap(tap)
}

// Close stops the player. The shared output context stays alive for other
// playback paths.
func (g *OtoGraph) Close() error {
	g.closeOnce.Do(func() {
		g.mixer.clear()
		_ = g.player.Close()
	})
	return nil
}

// graphVoice is one scheduled chunk on the mixer timeline.
type graphVoice struct {
	mixer   *sampleMixer
	samples []float32
	onEnded func()

	mu          sync.Mutex
	startSample int64
	queued      bool
	stopped     bool
}

func (v *graphVoice) StartAt(t float64) {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.startSample = int64(math.Round(t * float64(v.mixer.rate)))
	v.queued = true
	v.mu.Unlock()
	v.mixer.enqueue(v)
}

func (v *graphVoice) Stop() {
	v.mu.Lock()
	v.stopped = true
	queued := v.queued
	v.mu.Unlock()
	if queued {
		v.mixer.remove(v)
	}
}

// sampleMixer renders queued voices onto a mono s16le stream pulled by the
// output device. The cursor counts samples handed to the device and is the
// graph's clock.
type sampleMixer struct {
	rate int

	mu     sync.Mutex
	cursor int64
	queue  []*graphVoice
	tap    func([]float32)
}

func (m *sampleMixer) now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.cursor) / float64(m.rate)
}

func (m *sampleMixer) setTap(tap func([]float32)) {
	m.mu.Lock()
	m.tap = tap
	m.mu.Unlock()
}

func (m *sampleMixer) enqueue(v *graphVoice) {
	m.mu.Lock()
	// A start time already behind the cursor plays immediately.
	if v.startSample < m.cursor {
		v.startSample = m.cursor
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()
}

func (m *sampleMixer) remove(v *graphVoice) {
	m.mu.Lock()
	for i, q := range m.queue {
		if q == v {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
}

func (m *sampleMixer) clear() {
	m.mu.Lock()
	m.queue = nil
	m.mu.Unlock()
}

// Read renders the next block. Gaps between voices come out as silence so
// the stream never starves the device.
func (m *sampleMixer) Read(p []byte) (int, error) {
	n := len(p) / 2
	block := make([]float32, n)
	var ended []func()

	m.mu.Lock()
	for i := 0; i < n; i++ {
		var sample float32
		for len(m.queue) > 0 {
			v := m.queue[0]
			if m.cursor < v.startSample {
				break
			}
			idx := m.cursor - v.startSample
			if idx < int64(len(v.samples)) {
				sample = v.samples[idx]
				break
			}
			m.queue = m.queue[1:]
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
		}
		block[i] = sample
		m.cursor++
	}
	tap := m.tap
	m.mu.Unlock()

	pcm := audio.Float32ToInt16LE(block)
	copy(p, pcm)

	for _, fn := range ended {
		fn()
	}
	if tap != nil {
		tap(block)
	}
	return n * 2, nil
}
