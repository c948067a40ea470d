package engine

import (
	"fmt"
	"os"
	"sync"

	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/audio"
)

// mediaPlayer decodes a WAV track into memory and serves it to the output
// device as a pull stream. The byte position cursor gives exact seek and
// progress without querying the device.
type mediaPlayer struct {
	device OutputDevice

	mu      sync.Mutex
	samples []float32
	rate    int
	pos     int
	playing bool
	stream  OutputStream
	ended   bool

	tap     func([]float32)
	onEnded func()
	onState func()
}

func newMediaPlayer(device OutputDevice) *mediaPlayer {
	return &mediaPlayer{device: device}
}

// load decodes the WAV file at path and resets the cursor. Any current
// playback continues from the new track start only after play.
func (p *mediaPlayer) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read track: %w", err)
	}
	pcm, rate, channels, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decode track: %w", err)
	}
	samples := audio.Int16LEToFloat32(pcm)
	if channels == 2 {
		samples = downmixStereo(samples)
	}

	p.mu.Lock()
	p.samples = samples
	p.rate = rate
	p.pos = 0
	p.ended = false
	p.playing = false
	p.mu.Unlock()
	return nil
}

func downmixStereo(samples []float32) []float32 {
	out := make([]float32, len(samples)/2)
	for i := range out {
		out[i] = (samples[i*2] + samples[i*2+1]) / 2
	}
	return out
}

// play starts or resumes playback, opening the device stream on first use.
func (p *mediaPlayer) play() error {
	p.mu.Lock()
	if len(p.samples) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("no track loaded")
	}
	if p.ended {
		// Replay from the top after a natural end.
		p.pos = 0
		p.ended = false
	}
	p.playing = true
	needStream := p.stream == nil
	p.mu.Unlock()

	if needStream {
		stream, err := p.device.NewStream(p)
		if err != nil {
			p.mu.Lock()
			p.playing = false
			p.mu.Unlock()
			return fmt.Errorf("open output stream: %w", err)
		}
		p.mu.Lock()
		p.stream = stream
		p.mu.Unlock()
		stream.Play()
	}
	p.notify()
	return nil
}

func (p *mediaPlayer) pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.notify()
}

func (p *mediaPlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// seek moves the cursor, clamped to the track bounds.
func (p *mediaPlayer) seek(seconds float64) {
	p.mu.Lock()
	if p.rate > 0 {
		pos := int(seconds * float64(p.rate))
		if pos < 0 {
			pos = 0
		}
		if pos > len(p.samples) {
			pos = len(p.samples)
		}
		p.pos = pos
		p.ended = false
	}
	p.mu.Unlock()
	p.notify()
}

func (p *mediaPlayer) position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rate <= 0 {
		return 0
	}
	return float64(p.pos) / float64(p.rate)
}

func (p *mediaPlayer) duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rate <= 0 {
		return 0
	}
	return float64(len(p.samples)) / float64(p.rate)
}

func (p *mediaPlayer) close() {
	p.mu.Lock()
	stream := p.stream
	p.stream = nil
	p.playing = false
	p.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
}

// Read serves the output device. Paused or drained tracks produce silence
// so the stream never starves; the natural end fires the ended callback
// exactly once.
func (p *mediaPlayer) Read(out []byte) (int, error) {
	n := len(out) / 2
	block := make([]float32, n)
	var fireEnded bool

	p.mu.Lock()
	if p.playing {
		for i := 0; i < n; i++ {
			if p.pos >= len(p.samples) {
				break
			}
			block[i] = p.samples[p.pos]
			p.pos++
		}
		if p.pos >= len(p.samples) && len(p.samples) > 0 && !p.ended {
			p.ended = true
			p.playing = false
			fireEnded = true
		}
	}
	tap := p.tap
	p.mu.Unlock()

	copy(out, audio.Float32ToInt16LE(block))

	if tap != nil {
		tap(block)
	}
	if fireEnded {
		if p.onEnded != nil {
			p.onEnded()
		}
		p.notify()
	}
	return n * 2, nil
}

func (p *mediaPlayer) notify() {
	if p.onState != nil {
		p.onState()
	}
}
