package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

const maxSheetName = 31

var chartTypes = map[chart.Kind]excelize.ChartType{
	chart.KindPie:       excelize.Pie,
	chart.KindDoughnut:  excelize.Doughnut,
	chart.KindBar:       excelize.Col,
	chart.KindLine:      excelize.Line,
	chart.KindPolarArea: excelize.Radar,
}

// XLSX builds a workbook with one sheet per chart holding the data table and
// a native chart over it. Charts without data get a "No data" note instead.
func XLSX(specs []chart.Spec) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := map[string]bool{}
	first := ""
	for i, spec := range specs {
		name := sheetName(spec, i, used)
		if first == "" {
			first = name
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("export: new sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, spec); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, spec chart.Spec) error {
	if err := f.SetCellValue(sheet, "A1", spec.Title); err != nil {
		return err
	}
	records := table(spec)
	for r, record := range records {
		row := make([]any, len(record))
		for c, cell := range record {
			row[c] = cell
			if r > 0 && c > 0 {
				if v, ok := spec.ValueAt(c-1, r-1); ok {
					row[c] = v
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: sheet %s row %d: %w", sheet, r, err)
		}
	}
	if spec.Empty() {
		return f.SetCellValue(sheet, "A3", "No data")
	}

	kind, ok := chartTypes[spec.Kind]
	if !ok {
		return fmt.Errorf("export: unsupported chart kind %q", spec.Kind)
	}
	lastRow := len(spec.Labels) + 2
	series := make([]excelize.ChartSeries, 0, len(spec.Series))
	for s := range spec.Series {
		col, err := excelize.ColumnNumberToName(s + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$2", sheet, col),
			Categories: fmt.Sprintf("'%s'!$A$3:$A$%d", sheet, lastRow),
			Values:     fmt.Sprintf("'%s'!$%s$3:$%s$%d", sheet, col, col, lastRow),
		})
	}
	anchor, err := excelize.CoordinatesToCellName(len(spec.Series)+3, 2)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   kind,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: spec.Title}},
		Legend: excelize.ChartLegend{Position: "right"},
	})
}

func sheetName(spec chart.Spec, i int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']', '\'':
			return '-'
		}
		return r
	}, strings.TrimSpace(spec.Title))
	if name == "" {
		name = fmt.Sprintf("Chart %d", i+1)
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	used[name] = true
	return name
}
