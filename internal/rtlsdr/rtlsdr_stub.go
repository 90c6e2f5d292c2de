//go:build !rtlsdr

// Package rtlsdr wraps the RTL-SDR device for block-oriented sample reads.
// This file is compiled when the "rtlsdr" build tag is NOT specified and
// provides a hardware-free device that delivers synthetic sample blocks,
// so the binary and the tests run without an RTL-SDR attached.
package rtlsdr

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ErrCanceled is returned by ReadBlock when the pending read was canceled
// before a block arrived.
var ErrCanceled = errors.New("rtlsdr: read canceled")

// stubReadDelay simulates the USB transfer time of one block
const stubReadDelay = 5 * time.Millisecond

// stubGains mirrors the gain table of a common R820T tuner, in tenths of dB
var stubGains = []int{0, 9, 14, 27, 37, 77, 87, 125, 144, 157, 166, 197,
	207, 229, 254, 280, 297, 328, 338, 364, 372, 386, 402, 421, 434, 439,
	445, 480, 496}

// Device represents a stub RTL-SDR device (no actual hardware access)
type Device struct {
	index        int    // Device index it was "opened" from
	frequency    uint32 // Stored center frequency
	sampleRate   uint32 // Stored sample rate
	gain         int    // Stored manual gain in tenths of dB
	autoGain     bool   // AGC selected instead of manual gain
	offsetTuning bool   // Stored offset tuning setting

	mu       sync.Mutex
	canceled bool
	cancelCh chan struct{}

	rng *rand.Rand
}

// DeviceCount reports a single stub device
func DeviceCount() int {
	return 1
}

// DeviceName returns the name of the stub device at the given index
func DeviceName(index int) string {
	return fmt.Sprintf("Generic RTL2832U OEM (stub #%d)", index)
}

// NewDevice opens the stub device at the given index
func NewDevice(index int) (*Device, error) {
	if index >= DeviceCount() {
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, DeviceCount())
	}
	return &Device{
		index:      index,
		frequency:  100000000,
		sampleRate: 2048000,
		cancelCh:   make(chan struct{}),
		rng:        rand.New(rand.NewSource(1)),
	}, nil
}

// Name returns the name of the opened stub device
func (d *Device) Name() string {
	return DeviceName(d.index)
}

// SetCenterFrequency stores the center frequency setting
func (d *Device) SetCenterFrequency(freq uint32) error {
	d.frequency = freq
	return nil
}

// SetSampleRate stores the sample rate setting
func (d *Device) SetSampleRate(rate uint32) error {
	if rate == 0 {
		return fmt.Errorf("failed to set sample rate to 0 Hz")
	}
	d.sampleRate = rate
	return nil
}

// SetAutoGain selects automatic gain control
func (d *Device) SetAutoGain() error {
	d.autoGain = true
	return nil
}

// TunerGains returns the stub tuner gain table in tenths of dB and
// selects manual gain mode
func (d *Device) TunerGains() ([]int, error) {
	d.autoGain = false
	gains := make([]int, len(stubGains))
	copy(gains, stubGains)
	return gains, nil
}

// SetTunerGain stores a manual gain setting, in tenths of dB
func (d *Device) SetTunerGain(tenths int) error {
	d.gain = tenths
	d.autoGain = false
	return nil
}

// SetOffsetTuning stores the offset tuning setting
func (d *Device) SetOffsetTuning(enable bool) error {
	d.offsetTuning = enable
	return nil
}

// ResetBuffer is a no-op for the stub
func (d *Device) ResetBuffer() error {
	return nil
}

// ReadBlock delivers one synthetic raw block of nbytes interleaved I/Q
// bytes: noise centered on the 127 zero-signal level, the way an idle
// receiver looks. Cancel aborts a pending request, in which case
// ReadBlock returns ErrCanceled.
func (d *Device) ReadBlock(nbytes int) ([]byte, error) {
	d.mu.Lock()
	if d.canceled {
		d.mu.Unlock()
		return nil, ErrCanceled
	}
	cancelCh := d.cancelCh
	d.mu.Unlock()

	select {
	case <-time.After(stubReadDelay):
	case <-cancelCh:
		return nil, ErrCanceled
	}

	block := make([]byte, nbytes)
	for i := range block {
		block[i] = byte(127 + d.rng.Intn(5) - 2)
	}
	return block, nil
}

// Cancel aborts the pending read request, if any. Subsequent ReadBlock
// calls fail with ErrCanceled.
func (d *Device) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.canceled {
		d.canceled = true
		close(d.cancelCh)
	}
	return nil
}

// Close is a no-op for the stub
func (d *Device) Close() error {
	return nil
}
