// Package scheduler drives the acquisition-to-spectrum pipeline: it
// issues one read request at a time against the sample source, runs
// decode, transform and scaling on each delivered block, fans the trace
// out to the sinks, and owns cancellation and shutdown.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orhun/rtl-map/internal/config"
	"github.com/orhun/rtl-map/internal/dsp"
	"github.com/orhun/rtl-map/internal/output"
)

// Source delivers fixed-size raw sample blocks and can be told to stop.
// ReadBlock blocks until one block of nbytes arrives; after Cancel it
// returns an error instead.
type Source interface {
	ReadBlock(nbytes int) ([]byte, error)
	Cancel() error
}

// Scheduler owns the per-session read loop. Exactly one block is in
// flight at a time: the pipeline runs to completion on the reader
// goroutine before the next read is issued, and in continuous mode the
// inter-block delay is a blocking wait on that same goroutine. Throughput
// is therefore processing time plus the refresh interval per block, not
// the source's sample cadence.
type Scheduler struct {
	capture   config.CaptureConfig
	magnitude bool
	plot      bool

	source      Source
	fanout      *output.Fanout
	transformer *dsp.Transformer
	logger      *log.Logger

	stopChan chan struct{}
	stopOnce sync.Once

	reads int // Completed reads; only the Run goroutine writes it

	// Reused per-block buffers
	samples []complex128
	trace   []dsp.TraceEntry

	// PostProcess, when set, receives each block's trace after fan-out.
	// Extension point for peak detection or bin sorting; the trace slice
	// is only valid until the next block.
	PostProcess func([]dsp.TraceEntry)
}

// New builds a scheduler over the given source and sinks
func New(capture config.CaptureConfig, out config.OutputConfig, source Source, fanout *output.Fanout, logger *log.Logger) (*Scheduler, error) {
	transformer, err := dsp.NewTransformer(capture.BlockSize)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		capture:     capture,
		magnitude:   out.Magnitude,
		plot:        out.Plot,
		source:      source,
		fanout:      fanout,
		transformer: transformer,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}, nil
}

// Reads returns the number of fully processed blocks
func (s *Scheduler) Reads() int {
	return s.reads
}

// Stop requests cancellation: the pending read is canceled and the run
// loop drains at its next safe point. Safe to call from any goroutine,
// any number of times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.source.Cancel()
	})
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// Run executes the acquisition loop until the session ends: single-shot
// after one block, continuous mode after the read limit or a Stop call.
// Sinks are closed exactly once on every exit path. A nil return means a
// controlled shutdown; any pipeline, read or sink failure is fatal and
// returned after draining.
func (s *Scheduler) Run() error {
	for {
		if s.stopped() {
			return s.drain(nil)
		}

		raw, err := s.source.ReadBlock(s.capture.BlockBytes())
		if err != nil {
			if s.stopped() {
				// Canceled read, not a failure
				return s.drain(nil)
			}
			return s.drain(fmt.Errorf("read failed: %w", err))
		}

		// Cancellation accepted before processing: the in-flight block
		// is dropped without emitting a partial trace.
		if s.stopped() {
			return s.drain(nil)
		}

		if err := s.process(raw); err != nil {
			return s.drain(err)
		}
		s.reads++

		if !s.capture.Continuous || (s.capture.MaxReads > 0 && s.reads >= s.capture.MaxReads) {
			s.logger.Info("Done, exiting...")
			return s.drain(nil)
		}

		// Blocking inter-block delay, interruptible only by Stop
		select {
		case <-s.stopChan:
			return s.drain(nil)
		case <-time.After(s.capture.RefreshInterval()):
		}
	}
}

// process runs one block through decode, transform, scaling and fan-out
func (s *Scheduler) process(raw []byte) error {
	samples, err := dsp.DecodeIQ(raw, s.samples)
	if err != nil {
		return err
	}
	s.samples = samples

	bins, err := s.transformer.Transform(samples)
	if err != nil {
		return err
	}

	s.trace = dsp.ScaleSpectrum(bins, s.magnitude, s.trace)

	if !s.capture.Continuous {
		if s.plot {
			s.logger.Info("Creating FFT graph from samples using gnuplot...")
		} else {
			s.logger.Info("Reading samples...")
		}
	}

	if err := s.fanout.Emit(s.trace); err != nil {
		return err
	}
	if s.PostProcess != nil {
		s.PostProcess(s.trace)
	}
	return nil
}

// drain is the single shutdown path: cancel any pending source read,
// close the sinks exactly once, and hand back the fatal error, if any
func (s *Scheduler) drain(runErr error) error {
	s.source.Cancel()
	if err := s.fanout.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
