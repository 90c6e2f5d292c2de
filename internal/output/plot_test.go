package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/orhun/rtl-map/internal/dsp"
)

// pipeBuffer is an in-memory stand-in for the gnuplot stdin pipe
type pipeBuffer struct {
	bytes.Buffer
	closes int
}

func (p *pipeBuffer) Close() error {
	p.closes++
	return nil
}

func TestPlotSinkPreamble(t *testing.T) {
	pipe := &pipeBuffer{}
	sink := newPlotSinkPipe(pipe, 96000000, 512)
	if err := sink.w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	got := pipe.String()
	wantLines := []string{
		"set title 'rtl-map' enhanced\n",
		"set xlabel 'Frequency (MHz)'\n",
		"set ylabel 'Amplitude (dB)'\n",
		// 96 MHz center, 0.512 MHz step, tics at bins 1, 256 and 512
		"set xtics ('95.5' 1, '96.0' 256, '96.5' 512)\n",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("Expected preamble to contain %q, got:\n%s", line, got)
		}
	}
}

func TestPlotSinkBlockProtocol(t *testing.T) {
	pipe := &pipeBuffer{}
	sink := newPlotSinkPipe(pipe, 96000000, 4)
	sink.w.Flush()
	pipe.Reset()

	entries := []dsp.TraceEntry{
		{Index: 0, Amplitude: 10.5},
		{Index: 1, Amplitude: 0},
		{Index: 2, Amplitude: -7.25},
		{Index: 3, Amplitude: 3},
	}
	if err := sink.Write(entries); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// One plot command, amplitude-first coordinate lines, then the
	// end-of-data marker. Write flushes, so the pipe already holds it all.
	want := "plot '-' smooth frequency with linespoints lt -1 notitle\n" +
		"10.500000\t1\n" +
		"0.000000\t2\n" +
		"-7.250000\t3\n" +
		"3.000000\t4\n" +
		"e\n"
	if pipe.String() != want {
		t.Errorf("Expected block feed:\n%s\ngot:\n%s", want, pipe.String())
	}

	// A second block opens a fresh data series
	pipe.Reset()
	if err := sink.Write(entries[:1]); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}
	if !strings.HasPrefix(pipe.String(), "plot '-' ") {
		t.Errorf("Expected each block to start a new plot command, got:\n%s", pipe.String())
	}
}

func TestPlotSinkCloseOnce(t *testing.T) {
	pipe := &pipeBuffer{}
	sink := newPlotSinkPipe(pipe, 100000000, 8)

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
	if pipe.closes != 1 {
		t.Errorf("Expected the pipe closed exactly once, got %d", pipe.closes)
	}

	if err := sink.Write(testTrace(2)); err == nil {
		t.Error("Expected writing to a closed plot sink to fail")
	}
}
