// rtlmap-reader - Utility to inspect saved rtl_map trace files.
// This program reads the "<index>\t<amplitude>" lines written by the
// file sink and summarizes the capture: block count, entries per block
// and amplitude statistics, with an optional ASCII graph of the last block.
package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orhun/rtl-map/internal/dsp"
	"github.com/orhun/rtl-map/internal/version"
)

var (
	showStats   bool
	showGraph   bool
	graphWidth  int
	graphHeight int
)

// blockStats summarizes the finite amplitudes of one block
type blockStats struct {
	entries   int
	nonFinite int // -Inf bins from dB-of-zero, excluded from aggregates
	min       float64
	max       float64
	mean      float64
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rtlmap-reader [file]",
	Short: "Inspect saved rtl_map trace files",
	Long: `rtlmap-reader displays the contents of trace files written by rtl_map.
A trace file holds one "<index>\t<amplitude>" line per FFT bin; a capture
in continuous mode appends one such block per read.

Display modes:
  --stats    Show per-block amplitude statistics
  --graph    Render an ASCII amplitude-vs-bin graph of the last block`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := displayFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
	Version: version.GetFullVersion(),
}

func init() {
	rootCmd.Flags().BoolVar(&showStats, "stats", false, "show per-block amplitude statistics")
	rootCmd.Flags().BoolVarP(&showGraph, "graph", "g", false, "render an ASCII graph of the last block")
	rootCmd.Flags().IntVar(&graphWidth, "graph-width", 64, "width of the ASCII graph in characters")
	rootCmd.Flags().IntVar(&graphHeight, "graph-height", 16, "height of the ASCII graph in lines")
}

// displayFile reads and summarizes one trace file
func displayFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	blocks, err := parseTrace(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if len(blocks) == 0 {
		return fmt.Errorf("no trace entries in %s", filename)
	}

	fmt.Printf("RTL-MAP TRACE READER %s\n\n", version.GetFullVersion())
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Blocks: %d\n", len(blocks))
	fmt.Printf("Entries per block: %d\n", len(blocks[0]))

	total := statsFor(flatten(blocks))
	fmt.Printf("Amplitude: min %.3f, max %.3f, mean %.3f\n", total.min, total.max, total.mean)
	if total.nonFinite > 0 {
		fmt.Printf("Non-finite amplitudes (excluded): %d\n", total.nonFinite)
	}

	if showStats {
		fmt.Printf("\nPer-block statistics:\n")
		for i, block := range blocks {
			s := statsFor(block)
			fmt.Printf("#%d: entries %d, min %.3f, max %.3f, mean %.3f\n",
				i+1, s.entries, s.min, s.max, s.mean)
		}
	}

	if showGraph {
		fmt.Printf("\nLast block:\n")
		fmt.Print(renderGraph(blocks[len(blocks)-1], graphWidth, graphHeight))
	}
	return nil
}

// parseTrace reads "<index>\t<amplitude>" lines and splits them into
// blocks wherever the 1-based index restarts
func parseTrace(r io.Reader) ([][]dsp.TraceEntry, error) {
	var blocks [][]dsp.TraceEntry
	var current []dsp.TraceEntry

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<index>\\t<amplitude>\", got %q", line, text)
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil || index < 1 {
			return nil, fmt.Errorf("line %d: invalid bin index %q", line, fields[0])
		}
		amplitude, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amplitude %q", line, fields[1])
		}

		// An index restart marks the start of the next block
		if index == 1 && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, dsp.TraceEntry{Index: index - 1, Amplitude: amplitude})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, nil
}

// flatten concatenates all blocks for whole-file statistics
func flatten(blocks [][]dsp.TraceEntry) []dsp.TraceEntry {
	var all []dsp.TraceEntry
	for _, b := range blocks {
		all = append(all, b...)
	}
	return all
}

// statsFor aggregates the finite amplitudes of a trace. dB traces carry
// -Inf for zero-magnitude bins; those are counted but excluded.
func statsFor(entries []dsp.TraceEntry) blockStats {
	s := blockStats{entries: len(entries), min: math.Inf(1), max: math.Inf(-1)}
	var sum float64
	finite := 0
	for _, e := range entries {
		if math.IsInf(e.Amplitude, 0) || math.IsNaN(e.Amplitude) {
			s.nonFinite++
			continue
		}
		finite++
		sum += e.Amplitude
		if e.Amplitude < s.min {
			s.min = e.Amplitude
		}
		if e.Amplitude > s.max {
			s.max = e.Amplitude
		}
	}
	if finite > 0 {
		s.mean = sum / float64(finite)
	} else {
		s.min, s.max = 0, 0
	}
	return s
}

// renderGraph draws an amplitude-vs-bin column chart of one block.
// Bins are averaged into width buckets; non-finite amplitudes fall to
// the bottom row.
func renderGraph(entries []dsp.TraceEntry, width, height int) string {
	if width < 1 || height < 1 || len(entries) == 0 {
		return ""
	}
	if width > len(entries) {
		width = len(entries)
	}

	s := statsFor(entries)
	span := s.max - s.min
	if span == 0 {
		span = 1
	}

	// Average each bucket of bins into one column level in [0, height]
	levels := make([]int, width)
	for col := 0; col < width; col++ {
		lo := col * len(entries) / width
		hi := (col + 1) * len(entries) / width
		var sum float64
		finite := 0
		for _, e := range entries[lo:hi] {
			if math.IsInf(e.Amplitude, 0) || math.IsNaN(e.Amplitude) {
				continue
			}
			sum += e.Amplitude
			finite++
		}
		if finite == 0 {
			levels[col] = 0
			continue
		}
		avg := sum / float64(finite)
		levels[col] = int(math.Round((avg - s.min) / span * float64(height)))
	}

	var b strings.Builder
	for row := height; row > 0; row-- {
		for _, level := range levels {
			if level >= row {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "min %.3f / max %.3f over %d bins\n", s.min, s.max, len(entries))
	return b.String()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
