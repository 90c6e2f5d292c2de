package output

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"

	"github.com/orhun/rtl-map/internal/dsp"
)

// PlotSink feeds the amplitude trace to a gnuplot process over its stdin
// pipe. Each block becomes one inline data series: a plot command, one
// "<amplitude>\t<index+1>" line per bin, an "e" end-of-data marker, then
// a flush so the window redraws before the next block arrives. Note the
// column order is the reverse of the file sink's.
type PlotSink struct {
	cmd    *exec.Cmd // nil when the sink was built over a plain pipe
	pipe   io.WriteCloser
	w      *bufio.Writer
	closed bool
}

// NewPlotSink spawns "gnuplot -persistent" and writes the graph preamble:
// title, axis labels and frequency tics derived from the center frequency
// and the block size.
func NewPlotSink(frequency uint32, blockSize int) (*PlotSink, error) {
	cmd := exec.Command("gnuplot", "-persistent")
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open gnuplot pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open gnuplot pipe: %w", err)
	}
	s := newPlotSinkPipe(pipe, frequency, blockSize)
	s.cmd = cmd
	return s, nil
}

// newPlotSinkPipe builds a plot sink over an already-open pipe and writes
// the preamble to it. Split out so tests can capture the protocol without
// a gnuplot process.
func newPlotSinkPipe(pipe io.WriteCloser, frequency uint32, blockSize int) *PlotSink {
	s := &PlotSink{pipe: pipe, w: bufio.NewWriter(pipe)}
	fmt.Fprintf(s.w, "set title 'rtl-map' enhanced\n")
	fmt.Fprintf(s.w, "set xlabel 'Frequency (MHz)'\n")
	fmt.Fprintf(s.w, "set ylabel 'Amplitude (dB)'\n")

	// The x axis runs over bin numbers; label its start, center and end
	// with frequencies one step below and above the center. The step is
	// the block size scaled from kHz to MHz.
	centerMHz := float64(frequency) / 1e6
	stepMHz := float64(blockSize) * 1e3 / 1e6
	fmt.Fprintf(s.w, "set xtics ('%.1f' 1, '%.1f' %d, '%.1f' %d)\n",
		centerMHz-stepMHz, centerMHz, blockSize/2, centerMHz+stepMHz, blockSize)
	return s
}

// Write feeds one block's trace to gnuplot and flushes the pipe
func (s *PlotSink) Write(entries []dsp.TraceEntry) error {
	if s.closed {
		return fmt.Errorf("write to closed plot sink")
	}
	fmt.Fprintf(s.w, "plot '-' smooth frequency with linespoints lt -1 notitle\n")
	for _, e := range entries {
		fmt.Fprintf(s.w, "%f\t%d\n", e.Amplitude, e.Index+1)
	}
	fmt.Fprintf(s.w, "e\n")
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("plot sink write failed: %w", err)
	}
	return nil
}

// Close flushes and closes the pipe, once, and waits for gnuplot to exit.
// The -persistent flag keeps the plot window alive past that.
func (s *PlotSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.w.Flush()
	err := s.pipe.Close()
	if s.cmd != nil {
		if waitErr := s.cmd.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close plot sink: %w", err)
	}
	return nil
}
