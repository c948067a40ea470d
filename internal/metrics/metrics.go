// Package metrics exposes Prometheus instrumentation for the studio engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesSent counts microphone frames encoded and sent to the voice endpoint.
	FramesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_frames_sent_total",
		Help: "Total number of captured audio frames sent upstream",
	})

	// FramesDropped counts frames discarded while muted or not yet live.
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_frames_dropped_total",
		Help: "Total number of captured audio frames dropped before send",
	})

	// SendErrors counts per-frame send failures (non-fatal).
	SendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_send_errors_total",
		Help: "Total number of failed audio frame sends",
	})

	// DecodeErrors counts malformed inbound audio payloads (dropped).
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_decode_errors_total",
		Help: "Total number of inbound audio payloads that failed to decode",
	})

	// ChunksScheduled counts decoded audio chunks handed to the playback scheduler.
	ChunksScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_chunks_scheduled_total",
		Help: "Total number of inbound audio chunks scheduled for playback",
	})

	// Interrupts counts server-initiated barge-in signals.
	Interrupts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nebula_live_interrupts_total",
		Help: "Total number of barge-in interruptions handled",
	})

	// MicLevel is the RMS level of the most recent captured frame.
	MicLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nebula_live_mic_level",
		Help: "RMS level of the most recent microphone frame, 0.0 to 1.0",
	})

	// MicPeak is the peak amplitude of the most recent captured frame.
	MicPeak = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nebula_live_mic_peak",
		Help: "Peak amplitude of the most recent microphone frame, 0.0 to 1.0",
	})

	// ActiveVoices tracks in-flight scheduled playback units.
	ActiveVoices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nebula_playback_active_voices",
		Help: "Number of scheduled playback units currently active",
	})
)
