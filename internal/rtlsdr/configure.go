package rtlsdr

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/orhun/rtl-map/internal/config"
)

// Manual gain is picked from the tuner's gain table between these bounds,
// in tenths of dB. Low gain keeps the noise floor of cheap tuners usable.
const (
	gainFloorTenths = 10
	gainCeilTenths  = 30
)

// OpenConfigured opens the device selected by the session configuration
// and applies frequency, sample rate, gain and offset tuning to it,
// logging each step. On any fatal configuration error the device is
// closed before returning. An unsupported offset tuning request is the
// one non-fatal condition; it is logged at warn level.
func OpenConfigured(cfg config.RTLSDRConfig, logger *log.Logger) (*Device, error) {
	count := DeviceCount()
	if count == 0 {
		return nil, fmt.Errorf("no supported devices found")
	}
	logger.Infof("Found %d device(s):", count)
	for i := 0; i < count; i++ {
		logger.Infof("#%d: %s", i, DeviceName(i))
	}

	dev, err := NewDevice(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to open RTL-SDR device #%d: %w", cfg.DeviceIndex, err)
	}
	logger.Infof("Using device: %s", dev.Name())

	if cfg.Gain == 0 {
		if err := dev.SetAutoGain(); err != nil {
			dev.Close()
			return nil, err
		}
		logger.Info("Gain mode set to auto.")
	} else {
		gains, err := dev.TunerGains()
		if err != nil {
			dev.Close()
			return nil, err
		}
		logger.Infof("Supported gain values (%d): %s", len(gains), formatGains(gains))
		tenths := selectGain(gains, int(cfg.Gain*10))
		logger.Infof("Gain set to %.1f", float64(tenths)/10)
		if err := dev.SetTunerGain(tenths); err != nil {
			dev.Close()
			return nil, err
		}
	}

	if err := dev.SetOffsetTuning(cfg.OffsetTuning); err != nil {
		logger.Warnf("Offset tuning not applied: %v", err)
	}

	if err := dev.SetCenterFrequency(cfg.Frequency); err != nil {
		dev.Close()
		return nil, err
	}
	logger.Infof("Center frequency set to %d Hz.", cfg.Frequency)

	if err := dev.SetSampleRate(cfg.SampleRate); err != nil {
		dev.Close()
		return nil, err
	}
	logger.Infof("Sampling at %d S/s", cfg.SampleRate)

	if err := dev.ResetBuffer(); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

// selectGain picks the manual gain from a tuner gain table: the last
// table entry strictly between the low-gain bounds, falling back to the
// requested value when the table has none. Gain tables differ between
// tuner models, so the requested value is only a hint.
func selectGain(table []int, requested int) int {
	selected := requested
	for _, g := range table {
		if g > gainFloorTenths && g < gainCeilTenths {
			selected = g
		}
	}
	return selected
}

// formatGains renders a gain table as space-separated dB values
func formatGains(table []int) string {
	var b strings.Builder
	for i, g := range table {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f", float64(g)/10)
	}
	return b.String()
}
