package engine

import (
	"math"
	"math/cmplx"
	"sync"
)

const (
	// DefaultFFTSize matches the shared playback analyser.
	DefaultFFTSize = 128
	// LiveFFTSize is the finer resolution used for live voice visuals.
	LiveFFTSize = 256

	minDecibels      = -100.0
	maxDecibels      = -30.0
	defaultSmoothing = 0.8
)

// Analyser computes byte frequency data from a tapped sample stream. It
// keeps a ring of the most recent samples; each ByteFrequencyData call
// windows and transforms the latest fftSize of them.
type Analyser struct {
	fftSize   int
	smoothing float64

	mu     sync.Mutex
	ring   []float32
	w      int
	filled bool
	smooth []float64
	window []float64
}

// NewAnalyser creates an analyser. fftSize must be a power of two; other
// values are rounded up to the next one.
func NewAnalyser(fftSize int) *Analyser {
	if fftSize < 2 {
		fftSize = DefaultFFTSize
	}
	size := 2
	for size < fftSize {
		size *= 2
	}

	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return &Analyser{
		fftSize:   size,
		smoothing: defaultSmoothing,
		ring:      make([]float32, size),
		smooth:    make([]float64, size/2),
		window:    window,
	}
}

// FFTSize returns the transform size.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount returns the number of output bins, fftSize/2.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// Feed appends a block of mono samples from the output tap.
func (a *Analyser) Feed(block []float32) {
	a.mu.Lock()
	for _, s := range block {
		a.ring[a.w] = s
		a.w++
		if a.w == len(a.ring) {
			a.w = 0
			a.filled = true
		}
	}
	a.mu.Unlock()
}

// ByteFrequencyData fills dst with magnitude bins scaled 0..255, dst is
// truncated or zero-padded to FrequencyBinCount entries.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	bins := a.FrequencyBinCount()

	a.mu.Lock()
	input := make([]complex128, a.fftSize)
	start := a.w
	if !a.filled {
		start = 0
	}
	for i := 0; i < a.fftSize; i++ {
		s := a.ring[(start+i)%a.fftSize]
		input[i] = complex(float64(s)*a.window[i], 0)
	}

	fft(input)

	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(input[k]) / float64(a.fftSize)
		a.smooth[k] = a.smoothing*a.smooth[k] + (1-a.smoothing)*mag

		db := -math.MaxFloat64
		if a.smooth[k] > 0 {
			db = 20 * math.Log10(a.smooth[k])
		}
		v := (db - minDecibels) / (maxDecibels - minDecibels) * 255
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		if k < len(dst) {
			dst[k] = byte(v)
		}
	}
	a.mu.Unlock()

	for i := bins; i < len(dst); i++ {
		dst[i] = 0
	}
}

// fft is an in-place iterative radix-2 transform.
func fft(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wl := cmplx.Rect(1, angle)
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := x[i+j]
				v := x[i+j+length/2] * w
				x[i+j] = u + v
				x[i+j+length/2] = u - v
				w *= wl
			}
		}
	}
}
