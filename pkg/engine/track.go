package engine

// Track identifies one piece of playable audio plus its display metadata.
type Track struct {
	// URL locates the audio. Local WAV file paths are the common case.
	URL      string
	Title    string
	Topic    string
	CoverURL string
	// Duration in seconds, if known ahead of load. The player's decoded
	// duration wins once the track is loaded.
	Duration float64
}

// TransportState is a snapshot of the engine's playback transport.
type TransportState struct {
	TrackURL string  `json:"track_url"`
	Title    string  `json:"title"`
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}
