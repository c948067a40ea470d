package engine

import (
	"io"

	"github.com/ebitengine/oto/v3"

	"github.com/kunkle3328-dev/NebulaMindBakup/internal/speaker"
)

// OutputDevice abstracts the speaker so the engine can be driven by a fake
// in tests.
type OutputDevice interface {
	// NewStream opens a pull stream of 16-bit little-endian mono PCM.
	NewStream(r io.Reader) (OutputStream, error)
	// Resume lifts a suspended output. Failure here is the playback-policy
	// case: the engine reports it and carries on.
	Resume() error
}

// OutputStream is one open output stream.
type OutputStream interface {
	Play()
	Pause()
	Close() error
}

type otoDevice struct{}

// NewOtoDevice returns the production output device over the shared
// speaker context.
func NewOtoDevice() OutputDevice { return otoDevice{} }

func (otoDevice) NewStream(r io.Reader) (OutputStream, error) {
	p, err := speaker.NewPlayer(r)
	if err != nil {
		return nil, err
	}
	return &otoStream{p: p}, nil
}

func (otoDevice) Resume() error {
	c, err := speaker.Context()
	if err != nil {
		return err
	}
	return c.Resume()
}

type otoStream struct {
	p *oto.Player
}

func (s *otoStream) Play()        { s.p.Play() }
func (s *otoStream) Pause()       { s.p.Pause() }
func (s *otoStream) Close() error { return s.p.Close() }
