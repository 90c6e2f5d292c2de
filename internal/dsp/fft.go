package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transformer computes the forward DFT of complex sample blocks. The FFT plan
// and the output buffer are allocated once per block size and reused, since
// the transform runs once per read in continuous mode. No window function is
// applied and the transform size always equals the block size.
type Transformer struct {
	n    int
	fft  *fourier.CmplxFFT
	bins []complex128
}

// NewTransformer creates a transformer planned for n-point blocks
func NewTransformer(n int) (*Transformer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("dsp: invalid transform size %d", n)
	}
	return &Transformer{
		n:    n,
		fft:  fourier.NewCmplxFFT(n),
		bins: make([]complex128, n),
	}, nil
}

// Transform returns the frequency bins for one block of samples, bin i
// holding the unnormalized coefficient for frequency i/n. A block of a new
// size replaces the cached plan. The returned slice is overwritten by the
// next call.
func (t *Transformer) Transform(samples []complex128) ([]complex128, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("dsp: empty sample block")
	}
	if len(samples) != t.n {
		t.n = len(samples)
		t.fft = fourier.NewCmplxFFT(t.n)
		t.bins = make([]complex128, t.n)
	}
	return t.fft.Coefficients(t.bins, samples), nil
}

// Size returns the block size the current plan is built for
func (t *Transformer) Size() int {
	return t.n
}
