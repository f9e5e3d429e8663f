// Package export writes rendered dashboard charts to CSV, XLSX and PDF.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// WriteCSV emits one block per chart: a title row, a header row of series
// names and one row per label. Blocks are separated by an empty record.
func WriteCSV(w io.Writer, specs []chart.Spec) error {
	writer := csv.NewWriter(w)
	for i, spec := range specs {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{"Chart", spec.Title, string(spec.Kind)}); err != nil {
			return err
		}
		for _, record := range table(spec) {
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// table flattens spec into a header row plus one row per label. Missing points
// are left blank.
func table(spec chart.Spec) [][]string {
	header := make([]string, 0, len(spec.Series)+1)
	header = append(header, "Label")
	for i, s := range spec.Series {
		name := s.Name
		if name == "" {
			name = "Series " + strconv.Itoa(i+1)
		}
		header = append(header, name)
	}
	records := [][]string{header}
	for i, label := range spec.Labels {
		row := make([]string, 0, len(header))
		row = append(row, label)
		for s := range spec.Series {
			if v, ok := spec.ValueAt(s, i); ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		records = append(records, row)
	}
	return records
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
