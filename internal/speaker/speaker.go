// Package speaker owns the process-wide audio output context. The
// underlying backend allows exactly one context per process, so every
// playback path in the studio shares this one.
package speaker

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	// SampleRate is the fixed output rate. Model audio arrives at this rate
	// already; everything else is resampled before reaching the speaker.
	SampleRate = 24000
	// Channels is mono output.
	Channels = 1
)

var (
	once    sync.Once
	ctx     *oto.Context
	initErr error
)

// Context returns the shared output context, initializing it on first use.
func Context() (*oto.Context, error) {
	once.Do(func() {
		opts := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			// ~100ms keeps latency low enough for conversation without
			// glitching on scheduler jitter.
			BufferSize: 100 * time.Millisecond,
		}
		c, ready, err := oto.NewContext(opts)
		if err != nil {
			initErr = fmt.Errorf("init audio output: %w", err)
			return
		}
		<-ready
		ctx = c
	})
	return ctx, initErr
}

// NewPlayer creates a player pulling 16-bit little-endian mono PCM from r.
// The player is stopped; callers invoke Play when ready.
func NewPlayer(r io.Reader) (*oto.Player, error) {
	c, err := Context()
	if err != nil {
		return nil, err
	}
	return c.NewPlayer(r), nil
}
