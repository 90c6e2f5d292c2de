//go:build rtlsdr

// Package rtlsdr wraps the RTL-SDR device for block-oriented sample reads.
// This file is only compiled when the "rtlsdr" build tag is specified.
package rtlsdr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jpoirier/gortlsdr"
)

// ErrCanceled is returned by ReadBlock when the pending read was canceled
// before a block arrived.
var ErrCanceled = errors.New("rtlsdr: read canceled")

// Device represents an open RTL-SDR device
type Device struct {
	dev   *rtlsdr.Context // RTL-SDR device context
	index int             // Device index the context was opened from

	mu       sync.Mutex
	canceled bool
	reading  bool
}

// DeviceCount returns the number of connected RTL-SDR devices
func DeviceCount() int {
	return rtlsdr.GetDeviceCount()
}

// DeviceName returns the name of the device at the given index
func DeviceName(index int) string {
	return rtlsdr.GetDeviceName(index)
}

// NewDevice opens the RTL-SDR device at the given 0-based index
func NewDevice(index int) (*Device, error) {
	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, fmt.Errorf("no supported devices found")
	}
	if index >= count {
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, count)
	}

	dev, err := rtlsdr.Open(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open RTL-SDR device: %w", err)
	}
	return &Device{dev: dev, index: index}, nil
}

// Name returns the name of the opened device
func (d *Device) Name() string {
	return rtlsdr.GetDeviceName(d.index)
}

// SetCenterFrequency tunes the device to the given center frequency in Hz
func (d *Device) SetCenterFrequency(freq uint32) error {
	if err := d.dev.SetCenterFreq(int(freq)); err != nil {
		return fmt.Errorf("failed to set frequency to %d Hz: %w", freq, err)
	}
	return nil
}

// SetSampleRate sets the device sample rate in Hz
func (d *Device) SetSampleRate(rate uint32) error {
	if err := d.dev.SetSampleRate(int(rate)); err != nil {
		return fmt.Errorf("failed to set sample rate to %d Hz: %w", rate, err)
	}
	return nil
}

// SetAutoGain switches the tuner to automatic gain control
func (d *Device) SetAutoGain() error {
	// SetTunerGainMode expects false for AGC
	if err := d.dev.SetTunerGainMode(false); err != nil {
		return fmt.Errorf("failed to set auto gain mode: %w", err)
	}
	return nil
}

// TunerGains returns the gain values supported by the tuner, in tenths of
// dB. Calling this also switches the tuner to manual gain mode, since a
// manual gain is about to be applied.
func (d *Device) TunerGains() ([]int, error) {
	if err := d.dev.SetTunerGainMode(true); err != nil {
		return nil, fmt.Errorf("failed to set manual gain mode: %w", err)
	}
	gains, err := d.dev.GetTunerGains()
	if err != nil {
		return nil, fmt.Errorf("failed to query tuner gains: %w", err)
	}
	return gains, nil
}

// SetTunerGain applies a manual tuner gain, in tenths of dB
func (d *Device) SetTunerGain(tenths int) error {
	if err := d.dev.SetTunerGain(tenths); err != nil {
		return fmt.Errorf("failed to set gain to %.1f dB: %w", float64(tenths)/10, err)
	}
	return nil
}

// SetOffsetTuning enables or disables offset tuning for zero-IF tuners,
// which avoids the DC offset artifact of the ADCs. Not every tuner
// supports it; the caller decides whether that is fatal.
func (d *Device) SetOffsetTuning(enable bool) error {
	if err := d.dev.SetOffsetTuning(enable); err != nil {
		return fmt.Errorf("offset tuning unsupported by tuner: %w", err)
	}
	return nil
}

// ResetBuffer clears the device's internal sample buffer
func (d *Device) ResetBuffer() error {
	if err := d.dev.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffers: %w", err)
	}
	return nil
}

// ReadBlock issues one asynchronous read request against the device and
// blocks until a raw block of nbytes interleaved I/Q bytes is delivered.
// The returned block is a copy, safe to retain past the call. Cancel
// aborts a pending request, in which case ReadBlock returns ErrCanceled.
func (d *Device) ReadBlock(nbytes int) ([]byte, error) {
	d.mu.Lock()
	if d.canceled {
		d.mu.Unlock()
		return nil, ErrCanceled
	}
	d.reading = true
	d.mu.Unlock()

	blockCh := make(chan []byte, 1)
	var once sync.Once
	callback := func(buf []byte) {
		once.Do(func() {
			block := make([]byte, len(buf))
			copy(block, buf)
			blockCh <- block
			// One block per request: stop the transfer loop so
			// ReadAsync returns and the request completes.
			d.dev.CancelAsync()
		})
	}

	err := d.dev.ReadAsync(callback, nil, 0, nbytes)

	d.mu.Lock()
	d.reading = false
	canceled := d.canceled
	d.mu.Unlock()

	if canceled {
		return nil, ErrCanceled
	}
	select {
	case block := <-blockCh:
		if len(block) > nbytes {
			block = block[:nbytes]
		}
		return block, nil
	default:
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return nil, fmt.Errorf("read returned without data")
}

// Cancel aborts the pending read request, if any. Safe to call from a
// goroutine other than the reader. Subsequent ReadBlock calls fail with
// ErrCanceled.
func (d *Device) Cancel() error {
	d.mu.Lock()
	d.canceled = true
	reading := d.reading
	d.mu.Unlock()
	if reading {
		if err := d.dev.CancelAsync(); err != nil {
			return fmt.Errorf("failed to cancel read: %w", err)
		}
	}
	return nil
}

// Close releases the device
func (d *Device) Close() error {
	if d.dev != nil {
		return d.dev.Close()
	}
	return nil
}
