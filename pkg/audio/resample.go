package audio

import "math"

// Resample downsamples a block of float32 samples from inputRate to
// outputRate using block averaging. Each output sample is the mean of the
// input samples in its bucket, which acts as a cheap anti-aliasing decimator
// adequate for speech-bandwidth audio.
//
// When the rates match the input is returned unchanged. If a tail bucket is
// empty the output sample is 0.
func Resample(samples []float32, inputRate, outputRate int) []float32 {
	if inputRate == outputRate {
		return samples
	}

	ratio := float64(inputRate) / float64(outputRate)
	outLen := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, outLen)

	offset := 0
	for i := range out {
		next := int(math.Round(float64(i+1) * ratio))

		var accum float64
		count := 0
		for j := offset; j < next && j < len(samples); j++ {
			accum += float64(samples[j])
			count++
		}
		if count > 0 {
			out[i] = float32(accum / float64(count))
		}
		offset = next
	}

	return out
}
