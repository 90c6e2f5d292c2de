package dsp

import "math"

// TraceEntry is one bin of the emitted amplitude trace
type TraceEntry struct {
	Index     int     // Bin index, 0-based
	Amplitude float64 // dB or linear magnitude, depending on the session mode
}

// ScaleSpectrum converts complex spectrum bins into trace entries in bin
// order. Amplitude is sqrt(re^2+im^2) in magnitude mode and 10*log10 of that
// in dB mode; a zero-magnitude bin scales to -Inf in dB mode. Neither mode
// normalizes by the block size. dst is reused when it has capacity.
func ScaleSpectrum(bins []complex128, magnitude bool, dst []TraceEntry) []TraceEntry {
	if cap(dst) < len(bins) {
		dst = make([]TraceEntry, len(bins))
	}
	dst = dst[:len(bins)]
	for i, bin := range bins {
		re, im := real(bin), imag(bin)
		mag := math.Sqrt(re*re + im*im)
		amp := mag
		if !magnitude {
			amp = 10 * math.Log10(mag)
		}
		dst[i] = TraceEntry{Index: i, Amplitude: amp}
	}
	return dst
}
