package audio

import (
	"bytes"
	"math"
	"testing"
)

func TestFloat32ToInt16LE_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0, 0.5, -0.5, 0.999, -0.999, 0.001, -0.001}
	back := Int16LEToFloat32(Float32ToInt16LE(in))
	if len(back) != len(in) {
		t.Fatalf("len=%d, want %d", len(back), len(in))
	}
	for i := range in {
		if diff := math.Abs(float64(back[i] - in[i])); diff > 1.0/32768 {
			t.Fatalf("sample %d: got %v, want %v within 1/32768", i, back[i], in[i])
		}
	}
}

func TestFloat32ToInt16LE_ClampsOutOfRange(t *testing.T) {
	t.Parallel()

	out := Float32ToInt16LE([]float32{2.5, -2.5, 1, -1})
	samples := Int16LEToFloat32(out)

	if samples[0] != samples[2] {
		t.Fatalf("+2.5 encoded as %v, want clamp to +1 encoding %v", samples[0], samples[2])
	}
	if samples[1] != samples[3] {
		t.Fatalf("-2.5 encoded as %v, want clamp to -1 encoding %v", samples[1], samples[3])
	}
	if samples[0] < 0 {
		t.Fatalf("positive overflow wrapped negative: %v", samples[0])
	}
	if samples[1] > 0 {
		t.Fatalf("negative overflow wrapped positive: %v", samples[1])
	}
}

func TestBase64_RoundTripsArbitraryBytes(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		{},
		{0x00, 0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0x00, 0x01, 0x7F, 0x80, 0xFE, 0xFF},
	}
	for _, in := range cases {
		out, err := DecodeBase64(EncodeBase64(in))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip %v -> %v", in, out)
		}
	}
}

func TestDecodeBase64_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := DecodeBase64("not!!valid=="); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRMSEnergy(t *testing.T) {
	t.Parallel()

	if got := RMSEnergy(nil); got != 0 {
		t.Fatalf("empty RMS=%v, want 0", got)
	}

	// Full-scale square wave has RMS ~1.0.
	pcm := Float32ToInt16LE([]float32{1, -1, 1, -1, 1, -1, 1, -1})
	if got := RMSEnergy(pcm); got < 0.99 || got > 1.0 {
		t.Fatalf("square wave RMS=%v, want ~1.0", got)
	}
}

func TestPeakAmplitude(t *testing.T) {
	t.Parallel()

	pcm := Float32ToInt16LE([]float32{0.1, -0.75, 0.3})
	got := PeakAmplitude(pcm)
	if math.Abs(got-0.75) > 0.001 {
		t.Fatalf("peak=%v, want ~0.75", got)
	}
}

func TestConfigDurations(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 24000, Channels: 1, BitsPerSample: 16}
	if got := cfg.BytesPerSecond(); got != 48000 {
		t.Fatalf("BytesPerSecond=%d, want 48000", got)
	}
	if got := cfg.BytesForDurationMs(100); got != 4800 {
		t.Fatalf("BytesForDurationMs(100)=%d, want 4800", got)
	}
	if got := cfg.DurationMs(4800); got != 100 {
		t.Fatalf("DurationMs(4800)=%d, want 100", got)
	}
}
