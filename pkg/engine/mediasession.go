package engine

// MediaSession mirrors the engine's transport onto a platform media
// surface (OS now-playing widget, remote control keys).
type MediaSession interface {
	SetMetadata(title, artist, album, artworkURL string)
	SetHandlers(play, pause func(), seekTo func(seconds float64))
}

// NoopMediaSession is used when no platform surface exists.
type NoopMediaSession struct{}

func (NoopMediaSession) SetMetadata(title, artist, album, artworkURL string) {}

func (NoopMediaSession) SetHandlers(play, pause func(), seekTo func(seconds float64)) {}
