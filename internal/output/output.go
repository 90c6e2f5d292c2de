// Package output delivers per-block amplitude traces to the configured
// sinks: a file or stdout stream and a gnuplot child process. Sinks are
// opened once at session start and closed exactly once at shutdown;
// closing is idempotent.
package output

import (
	"github.com/orhun/rtl-map/internal/dsp"
)

// Sink receives the ordered amplitude trace of one block
type Sink interface {
	// Write delivers one full trace, ordered by bin index
	Write(entries []dsp.TraceEntry) error
	// Close releases the sink. Safe to call more than once.
	Close() error
}

// Fanout delivers each trace to every configured sink in order.
// Sinks are independent: the absence of one does not block the others,
// but a write failure on any sink is fatal to the session.
type Fanout struct {
	sinks  []Sink
	closed bool
}

// NewFanout builds a fanout over the given sinks. Close order follows
// the argument order.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add appends a sink to the fanout
func (f *Fanout) Add(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Len returns the number of configured sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Emit writes one trace to every sink, stopping at the first failure
func (f *Fanout) Emit(entries []dsp.TraceEntry) error {
	for _, s := range f.sinks {
		if err := s.Write(entries); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink in order, exactly once. Later calls are no-ops.
// The first close error is returned after all sinks have been closed.
func (f *Fanout) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
