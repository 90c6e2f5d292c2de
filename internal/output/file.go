package output

import (
	"fmt"
	"io"
	"os"

	"github.com/orhun/rtl-map/internal/dsp"
)

// StdoutTarget is the file sink target that selects standard output
// instead of opening a file.
const StdoutTarget = "-"

// FileSink appends one line per trace entry to a file, formatted as
// "<index+1>\t<amplitude>". With the StdoutTarget name no file is opened;
// the trace shares the process's stdout and Close leaves it open.
type FileSink struct {
	w      io.Writer
	file   *os.File // nil when the sink shares stdout
	closed bool
}

// NewFileSink opens the trace file at path, truncating an existing one.
// The session writes it sequentially from the start.
func NewFileSink(path string) (*FileSink, error) {
	if path == StdoutTarget {
		return &FileSink{w: os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileSink{w: f, file: f}, nil
}

// Write appends one trace, one line per entry with a 1-based index
func (s *FileSink) Write(entries []dsp.TraceEntry) error {
	if s.closed {
		return fmt.Errorf("write to closed file sink")
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(s.w, "%d\t%f\n", e.Index+1, e.Amplitude); err != nil {
			return fmt.Errorf("file sink write failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying file, once. A sink on stdout only marks
// itself closed; stdout stays usable for the rest of the process.
func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
