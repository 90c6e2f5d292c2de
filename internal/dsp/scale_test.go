package dsp

import (
	"math"
	"testing"
)

func TestScaleSpectrumMagnitudeMode(t *testing.T) {
	bins := []complex128{complex(3, 4), complex(0, 2), complex(-5, 0)}

	entries := ScaleSpectrum(bins, true, nil)
	if len(entries) != len(bins) {
		t.Fatalf("Expected %d entries, got %d", len(bins), len(entries))
	}

	want := []float64{5, 2, 5}
	for i, e := range entries {
		if e.Index != i {
			t.Errorf("Expected entry %d to keep bin index %d, got %d", i, i, e.Index)
		}
		if math.Abs(e.Amplitude-want[i]) > 1e-12 {
			t.Errorf("Expected magnitude %g at bin %d, got %g", want[i], i, e.Amplitude)
		}
		if e.Amplitude < 0 {
			t.Errorf("Expected non-negative magnitude at bin %d, got %g", i, e.Amplitude)
		}
	}
}

func TestScaleSpectrumDBMode(t *testing.T) {
	bins := []complex128{complex(3, 4), complex(1, 0), complex(0.05, 0)}

	entries := ScaleSpectrum(bins, false, nil)

	want := []float64{10 * math.Log10(5), 0, 10 * math.Log10(0.05)}
	for i, e := range entries {
		if math.Abs(e.Amplitude-want[i]) > 1e-12 {
			t.Errorf("Expected %g dB at bin %d, got %g", want[i], i, e.Amplitude)
		}
	}

	// Sub-unity magnitudes must come out negative
	if entries[2].Amplitude >= 0 {
		t.Errorf("Expected a negative dB value for magnitude 0.05, got %g", entries[2].Amplitude)
	}
}

func TestScaleSpectrumZeroBin(t *testing.T) {
	bins := []complex128{0}

	// dB of a zero-magnitude bin is negative infinity
	entries := ScaleSpectrum(bins, false, nil)
	if !math.IsInf(entries[0].Amplitude, -1) {
		t.Errorf("Expected -Inf for a zero bin in dB mode, got %g", entries[0].Amplitude)
	}

	// Magnitude mode keeps it at zero
	entries = ScaleSpectrum(bins, true, nil)
	if entries[0].Amplitude != 0 {
		t.Errorf("Expected 0 for a zero bin in magnitude mode, got %g", entries[0].Amplitude)
	}
}

func TestScaleSpectrumReusesBuffer(t *testing.T) {
	bins := make([]complex128, 8)
	dst := make([]TraceEntry, 0, 32)

	entries := ScaleSpectrum(bins, false, dst)
	if cap(entries) != 32 {
		t.Errorf("Expected the provided buffer to be reused (cap 32), got cap %d", cap(entries))
	}
	if len(entries) != 8 {
		t.Errorf("Expected 8 entries, got %d", len(entries))
	}
}
