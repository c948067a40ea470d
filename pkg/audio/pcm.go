package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Config describes a raw PCM stream.
type Config struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BytesPerSecond returns the byte rate of the stream.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * c.BitsPerSample / 8
}

// BytesForDurationMs returns how many bytes cover durationMs of audio.
func (c Config) BytesForDurationMs(durationMs int) int {
	return c.BytesPerSecond() * durationMs / 1000
}

// DurationMs returns the duration in milliseconds of byteLen bytes of audio.
func (c Config) DurationMs(byteLen int) int {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return byteLen * 1000 / bps
}

// Float32ToInt16LE converts float32 samples to 16-bit little-endian PCM.
// Samples are clamped to [-1, 1] before scaling so out-of-range input
// saturates instead of wrapping.
func Float32ToInt16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s < 0 {
			v = int16(s * 32768)
		} else {
			v = int16(s * 32767)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Int16LEToFloat32 converts 16-bit little-endian PCM to float32 samples in
// [-1, 1). A trailing odd byte is ignored.
func Int16LEToFloat32(b []byte) []float32 {
	n := len(b) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(b[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// EncodeBase64 transcodes raw bytes for transport over a text channel.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 is the inverse of EncodeBase64. A malformed payload returns
// an error scoped to that payload; callers drop the message and continue.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 audio: %w", err)
	}
	return b, nil
}

// RMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM. Returns a value between 0.0 and 1.0.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// PeakAmplitude returns the maximum absolute amplitude in the PCM data,
// between 0.0 and 1.0.
func PeakAmplitude(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}
