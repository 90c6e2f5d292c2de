// Package config provides configuration structures and defaults for rtl-map
package config

import (
	"fmt"
	"time"
)

// DefaultBlockSize is the number of complex samples per read, which is also
// the FFT size. One raw block is twice this many bytes (interleaved I/Q).
const DefaultBlockSize = 512

// Config represents the complete application configuration
type Config struct {
	RTLSDR  RTLSDRConfig  `yaml:"rtlsdr" mapstructure:"rtlsdr"`   // RTL-SDR device settings
	Capture CaptureConfig `yaml:"capture" mapstructure:"capture"` // Acquisition scheduling settings
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`   // Trace sink settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"` // Logging configuration
}

// RTLSDRConfig contains RTL-SDR device configuration parameters
type RTLSDRConfig struct {
	DeviceIndex  int     `yaml:"device_index" mapstructure:"device_index"`   // RTL-SDR device index (0-based)
	SampleRate   uint32  `yaml:"sample_rate" mapstructure:"sample_rate"`     // Sample rate in Hz
	Frequency    uint32  `yaml:"frequency" mapstructure:"frequency"`         // Center frequency in Hz (mandatory)
	Gain         float64 `yaml:"gain" mapstructure:"gain"`                   // Tuner gain in dB, 0 selects AGC
	OffsetTuning bool    `yaml:"offset_tuning" mapstructure:"offset_tuning"` // Offset tuning for zero-IF tuners
}

// CaptureConfig contains acquisition scheduling parameters
type CaptureConfig struct {
	BlockSize  int  `yaml:"block_size" mapstructure:"block_size"` // Complex samples per read, also the FFT size
	Continuous bool `yaml:"continuous" mapstructure:"continuous"` // Keep reading blocks until stopped
	MaxReads   int  `yaml:"max_reads" mapstructure:"max_reads"`   // Read limit for continuous mode, 0 = unbounded
	RefreshMs  int  `yaml:"refresh_ms" mapstructure:"refresh_ms"` // Delay between reads in milliseconds
}

// OutputConfig contains trace sink parameters
type OutputConfig struct {
	File      string `yaml:"file" mapstructure:"file"`           // Trace file target, "-" = stdout, "" = no file sink
	Plot      bool   `yaml:"plot" mapstructure:"plot"`           // Feed the trace to a gnuplot process
	Magnitude bool   `yaml:"magnitude" mapstructure:"magnitude"` // Emit linear magnitude instead of dB
}

// LoggingConfig contains logging parameters
type LoggingConfig struct {
	Colors bool `yaml:"colors" mapstructure:"colors"` // Colored log output
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		RTLSDR: RTLSDRConfig{
			DeviceIndex:  0,                       // First RTL-SDR device
			SampleRate:   DefaultBlockSize * 4000, // 2.048 MSps
			Frequency:    0,                       // Unset, must be provided
			Gain:         1.4,                     // 1.4 dB, a low-noise setting on common tuners
			OffsetTuning: true,                    // Avoids the zero-IF DC offset artifact
		},
		Capture: CaptureConfig{
			BlockSize:  DefaultBlockSize, // 512-point FFT per read
			Continuous: false,            // Single-shot by default
			MaxReads:   0,                // Unbounded
			RefreshMs:  500,              // Half a second between reads
		},
		Output: OutputConfig{
			File:      "",   // No file sink
			Plot:      true, // gnuplot window on by default
			Magnitude: false,
		},
		Logging: LoggingConfig{
			Colors: true,
		},
	}
}

// RefreshInterval returns the inter-read delay as a duration
func (c CaptureConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

// BlockBytes returns the raw read size in bytes, two bytes per complex sample
func (c CaptureConfig) BlockBytes() int {
	return 2 * c.BlockSize
}

// Validate checks configuration values that have no usable fallback.
// The mandatory center frequency is checked by the CLI layer instead,
// since its absence is treated as a help request.
func (c *Config) Validate() error {
	if c.Capture.BlockSize <= 0 {
		return fmt.Errorf("invalid block size: %d (must be positive)", c.Capture.BlockSize)
	}
	if c.RTLSDR.SampleRate == 0 {
		return fmt.Errorf("invalid sample rate: 0 (must be positive)")
	}
	if c.Capture.RefreshMs < 0 {
		return fmt.Errorf("invalid refresh rate: %d ms (must not be negative)", c.Capture.RefreshMs)
	}
	if c.Capture.MaxReads < 0 {
		return fmt.Errorf("invalid number of reads: %d (must not be negative)", c.Capture.MaxReads)
	}
	if c.RTLSDR.Gain < 0 {
		return fmt.Errorf("invalid gain: %.1f dB (must not be negative)", c.RTLSDR.Gain)
	}
	return nil
}
