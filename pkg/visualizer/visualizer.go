// Package visualizer renders spectrum bars from an analyser, the terminal
// counterpart of the studio's playback visuals.
package visualizer

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBars is the bar count of the standard spectrum view.
const DefaultBars = 64

const frameInterval = 33 * time.Millisecond

// FrequencySource provides byte frequency data, typically an
// engine.Analyser.
type FrequencySource interface {
	FrequencyBinCount() int
	ByteFrequencyData([]byte)
}

// Bars reduces the source's frequency bins to n bar heights in [0, 1].
func Bars(src FrequencySource, n int) []float64 {
	if n <= 0 {
		n = DefaultBars
	}
	bins := src.FrequencyBinCount()
	data := make([]byte, bins)
	src.ByteFrequencyData(data)

	out := make([]float64, n)
	if bins == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		lo := i * bins / n
		hi := (i + 1) * bins / n
		if hi <= lo {
			hi = lo + 1
		}
		if hi > bins {
			hi = bins
		}
		var sum float64
		for _, v := range data[lo:hi] {
			sum += float64(v)
		}
		out[i] = sum / float64(hi-lo) / 255
	}
	return out
}

// Renderer draws a one-line bar view at roughly 30 frames per second.
type Renderer struct {
	src  FrequencySource
	out  io.Writer
	bars int

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(src FrequencySource, out io.Writer, bars int) *Renderer {
	if bars <= 0 {
		bars = DefaultBars
	}
	return &Renderer{
		src:  src,
		out:  out,
		bars: bars,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the frame loop. Repeated calls start only one loop.
func (r *Renderer) Start() {
	if r.started.CompareAndSwap(false, true) {
		go r.run()
	}
}

// Stop halts the loop and waits for the final frame to finish. Safe to
// call repeatedly, including on a renderer that never started.
func (r *Renderer) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started.Load() {
		<-r.done
	}
}

func (r *Renderer) run() {
	defer close(r.done)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			fmt.Fprint(r.out, "\r"+strings.Repeat(" ", r.bars)+"\r")
			return
		case <-ticker.C:
			r.frame()
		}
	}
}

var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

func (r *Renderer) frame() {
	heights := Bars(r.src, r.bars)
	var b strings.Builder
	b.WriteByte('\r')
	for _, h := range heights {
		idx := int(h * float64(len(barGlyphs)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(barGlyphs) {
			idx = len(barGlyphs) - 1
		}
		b.WriteRune(barGlyphs[idx])
	}
	fmt.Fprint(r.out, b.String())
}
