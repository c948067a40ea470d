package engine

import (
	"math"
	"testing"
)

func TestAnalyserSilenceIsZero(t *testing.T) {
	t.Parallel()

	a := NewAnalyser(DefaultFFTSize)
	a.Feed(make([]float32, 512))

	data := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(data)
	for i, v := range data {
		if v != 0 {
			t.Fatalf("bin %d = %d for silence, want 0", i, v)
		}
	}
}

func TestAnalyserFindsToneBin(t *testing.T) {
	t.Parallel()

	a := NewAnalyser(DefaultFFTSize)

	// A tone completing exactly 8 cycles per transform lands in bin 8.
	const toneBin = 8
	block := make([]float32, a.FFTSize()*4)
	for i := range block {
		block[i] = float32(math.Sin(2 * math.Pi * toneBin * float64(i) / float64(a.FFTSize())))
	}
	a.Feed(block)

	data := make([]byte, a.FrequencyBinCount())
	// Two reads let the smoothing filter settle.
	a.ByteFrequencyData(data)
	a.ByteFrequencyData(data)

	peak := 0
	for i, v := range data {
		if v > data[peak] {
			peak = i
		}
	}
	if peak != toneBin {
		t.Errorf("peak bin = %d, want %d", peak, toneBin)
	}
	if data[toneBin] == 0 {
		t.Error("tone bin has zero magnitude")
	}

	// Far-away bins should be well below the peak.
	far := data[a.FrequencyBinCount()-1]
	if far >= data[toneBin] {
		t.Errorf("far bin %d >= tone bin %d", far, data[toneBin])
	}
}

func TestAnalyserRoundsSizeUpToPowerOfTwo(t *testing.T) {
	t.Parallel()

	a := NewAnalyser(100)
	if got := a.FFTSize(); got != 128 {
		t.Errorf("FFTSize = %d, want 128", got)
	}
	if got := a.FrequencyBinCount(); got != 64 {
		t.Errorf("FrequencyBinCount = %d, want 64", got)
	}
}

func TestAnalyserTruncatesAndPadsDst(t *testing.T) {
	t.Parallel()

	a := NewAnalyser(DefaultFFTSize)
	a.Feed(make([]float32, a.FFTSize()))

	short := make([]byte, 8)
	a.ByteFrequencyData(short)

	long := make([]byte, a.FrequencyBinCount()+16)
	for i := range long {
		long[i] = 0xFF
	}
	a.ByteFrequencyData(long)
	for i := a.FrequencyBinCount(); i < len(long); i++ {
		if long[i] != 0 {
			t.Fatalf("padding byte %d = %d, want 0", i, long[i])
		}
	}
}
