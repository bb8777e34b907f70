package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/kachinap/sandpile-project/internal/stats"
)

// writeFrequencyCSV writes the size→count table, one row per distinct size.
func writeFrequencyCSV(path string, freq []stats.Bin) error {
	rows := [][]string{{"size", "count"}}
	for _, b := range freq {
		rows = append(rows, []string{strconv.Itoa(b.Size), strconv.Itoa(b.Count)})
	}
	return writeCSV(path, rows)
}

// writeHistogramCSV writes one row per log-spaced bucket. Zero-size
// avalanches are reported on a separate row with empty bounds.
func writeHistogramCSV(path string, h stats.LogHistogram) error {
	rows := [][]string{{"lower", "upper", "count"}}
	if h.Zeros > 0 {
		rows = append(rows, []string{"", "", strconv.Itoa(h.Zeros)})
	}
	for i, c := range h.Counts {
		rows = append(rows, []string{
			strconv.FormatFloat(h.Edges[i], 'g', 6, 64),
			strconv.FormatFloat(h.Edges[i+1], 'g', 6, 64),
			strconv.Itoa(c),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
