package output

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/orhun/rtl-map/internal/dsp"
)

// memorySink records deliveries for fanout tests
type memorySink struct {
	writes  int
	closes  int
	lastLen int
	failOn  int // fail the write with this ordinal, 0 = never
}

func (m *memorySink) Write(entries []dsp.TraceEntry) error {
	m.writes++
	m.lastLen = len(entries)
	if m.failOn != 0 && m.writes == m.failOn {
		return fmt.Errorf("sink write failed")
	}
	return nil
}

func (m *memorySink) Close() error {
	m.closes++
	return nil
}

func testTrace(n int) []dsp.TraceEntry {
	entries := make([]dsp.TraceEntry, n)
	for i := range entries {
		entries[i] = dsp.TraceEntry{Index: i, Amplitude: float64(i) * 0.5}
	}
	return entries
}

func TestFanoutEmitsToEverySink(t *testing.T) {
	first := &memorySink{}
	second := &memorySink{}
	f := NewFanout(first, second)

	if f.Len() != 2 {
		t.Fatalf("Expected 2 sinks, got %d", f.Len())
	}

	if err := f.Emit(testTrace(8)); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if first.writes != 1 || second.writes != 1 {
		t.Errorf("Expected one write per sink, got %d and %d", first.writes, second.writes)
	}
	if first.lastLen != 8 || second.lastLen != 8 {
		t.Errorf("Expected 8 entries delivered to each sink, got %d and %d", first.lastLen, second.lastLen)
	}
}

func TestFanoutEmitWithNoSinks(t *testing.T) {
	f := NewFanout()
	if err := f.Emit(testTrace(4)); err != nil {
		t.Errorf("Expected emitting to zero sinks to succeed, got %v", err)
	}
}

func TestFanoutWriteFailureIsFatal(t *testing.T) {
	first := &memorySink{failOn: 1}
	second := &memorySink{}
	f := NewFanout(first, second)

	if err := f.Emit(testTrace(4)); err == nil {
		t.Error("Expected the first sink's write failure to propagate")
	}
	if second.writes != 0 {
		t.Errorf("Expected delivery to stop at the failing sink, second sink saw %d writes", second.writes)
	}
}

func TestFanoutClosesExactlyOnce(t *testing.T) {
	first := &memorySink{}
	second := &memorySink{}
	f := NewFanout(first, second)

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// A second close must be a no-op
	if err := f.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}

	if first.closes != 1 || second.closes != 1 {
		t.Errorf("Expected each sink closed exactly once, got %d and %d", first.closes, second.closes)
	}
}

func TestFileSinkFormat(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "output_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "trace.txt")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	entries := []dsp.TraceEntry{
		{Index: 0, Amplitude: 12.5},
		{Index: 1, Amplitude: -3.25},
	}
	if err := sink.Write(entries); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	want := "1\t12.500000\n2\t-3.250000\n"
	if string(data) != want {
		t.Errorf("Expected file contents %q, got %q", want, string(data))
	}
}

func TestFileSinkStdoutTarget(t *testing.T) {
	sink, err := NewFileSink(StdoutTarget)
	if err != nil {
		t.Fatalf("NewFileSink failed for stdout target: %v", err)
	}

	// The stdout sink must not hold a separate file handle
	if sink.file != nil {
		t.Error("Expected no file handle for the stdout target")
	}
	if sink.w != os.Stdout {
		t.Error("Expected the sink to share the process stdout stream")
	}

	// Closing must not close stdout and must stay idempotent
	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestFileSinkOpenFailure(t *testing.T) {
	if _, err := NewFileSink("/nonexistent-dir/trace.txt"); err == nil {
		t.Error("Expected an error opening a file in a missing directory")
	}
}

func TestFileSinkCloseThenWrite(t *testing.T) {
	sink, err := NewFileSink(StdoutTarget)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Write(testTrace(1)); err == nil {
		t.Error("Expected writing to a closed sink to fail")
	}
}
