// Package capture acquires the microphone and delivers fixed-size float32
// frames to a handler, the raw feed for the live voice send path.
package capture

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// FrameSize is the number of samples delivered per frame.
const FrameSize = 4096

const defaultRate = 24000

// Constraints describe the capture processing requested from the platform.
// Backends that cannot honour a hint simply capture without it.
type Constraints struct {
	EchoCancellation bool
	AutoGainControl  bool
	NoiseSuppression bool
	// PreferredRate asks the device for this rate. The granted rate can
	// differ and is reported by SampleRate.
	PreferredRate int
}

// Source is an open capture stream.
type Source interface {
	Start(onFrame func([]float32)) error
	Stop() error
	SampleRate() int
}

// Device is the production Source over the system microphone.
type Device struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	rate   int

	mu      sync.Mutex
	onFrame func([]float32)
	pending []float32
	started bool
	stopped bool
}

// Open initializes the capture backend and the default microphone. The
// device does not deliver frames until Start.
func Open(c Constraints) (*Device, error) {
	rate := c.PreferredRate
	if rate <= 0 {
		rate = defaultRate
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("init capture context: %w", err)
	}

	d := &Device{
		ctx:     ctx,
		rate:    rate,
		pending: make([]float32, 0, FrameSize*2),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(rate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			d.ingest(input)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init microphone: %w", err)
	}
	d.device = device
	return d, nil
}

// SampleRate returns the granted capture rate.
func (d *Device) SampleRate() int { return d.rate }

// Start begins capture. Frames of FrameSize samples are delivered to
// onFrame in capture order from the backend's audio thread.
func (d *Device) Start(onFrame func([]float32)) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return fmt.Errorf("capture device is stopped")
	}
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("capture already started")
	}
	d.onFrame = onFrame
	d.started = true
	d.mu.Unlock()

	if err := d.device.Start(); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}
	return nil
}

// Stop halts capture and releases the device and backend. Idempotent.
func (d *Device) Stop() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.onFrame = nil
	d.mu.Unlock()

	if d.device != nil {
		_ = d.device.Stop()
		d.device.Uninit()
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx.Free()
	}
	return nil
}

// ingest appends raw little-endian float32 bytes and cuts full frames.
func (d *Device) ingest(input []byte) {
	d.mu.Lock()
	fn := d.onFrame
	if fn == nil {
		d.mu.Unlock()
		return
	}
	for i := 0; i+4 <= len(input); i += 4 {
		bits := binary.LittleEndian.Uint32(input[i:])
		d.pending = append(d.pending, math.Float32frombits(bits))
	}

	var frames [][]float32
	for len(d.pending) >= FrameSize {
		frame := make([]float32, FrameSize)
		copy(frame, d.pending[:FrameSize])
		d.pending = d.pending[FrameSize:]
		frames = append(frames, frame)
	}
	d.mu.Unlock()

	for _, frame := range frames {
		fn(frame)
	}
}
