// Package dsp converts raw RTL-SDR sample blocks into amplitude traces:
// interleaved I/Q bytes to complex baseband samples, a forward DFT, and
// magnitude or dB scaling of the resulting spectrum.
package dsp

import "fmt"

// centerOffset is the zero-signal level of the 8-bit samples. The converter
// reports 127 for no signal; 127.34 matches the observed DC level.
const centerOffset = 127.34

// DecodeIQ converts a raw interleaved I/Q byte block into complex baseband
// samples, one sample per byte pair. The block length must be even; odd input
// is a caller bug, not a condition to recover from. dst is reused when it has
// capacity.
func DecodeIQ(raw []byte, dst []complex128) ([]complex128, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("dsp: odd raw block length %d", len(raw))
	}
	n := len(raw) / 2
	if cap(dst) < n {
		dst = make([]complex128, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = complex(float64(raw[2*i])-centerOffset, float64(raw[2*i+1])-centerOffset)
	}
	return dst, nil
}
