package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// Report is the content of a PDF export.
type Report struct {
	Title       string
	Employee    string
	GeneratedAt time.Time
	Charts      []chart.Spec
}

const (
	pageWidth  = 190.0
	labelWidth = 60.0
	rowHeight  = 6.0
)

// PDF renders report as an A4 document: a table per chart with a horizontal
// bar per value in the series color.
func PDF(report Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(report.Title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	if report.Employee != "" {
		pdf.Cell(0, 6, tr("Employee: "+report.Employee))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Generated: "+report.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	for _, spec := range report.Charts {
		writeChart(pdf, tr, spec)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeChart(pdf *gofpdf.Fpdf, tr func(string) string, spec chart.Spec) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr(spec.Title))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	if spec.Empty() {
		pdf.Cell(0, rowHeight, "No data")
		pdf.Ln(rowHeight * 2)
		return
	}

	_, maxVal := bounds(spec)
	barSpace := pageWidth - labelWidth - 25
	for s, series := range spec.Series {
		if len(spec.Series) > 1 {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.Cell(0, rowHeight, tr(series.Name))
			pdf.Ln(rowHeight)
			pdf.SetFont("Helvetica", "", 9)
		}
		for i, label := range spec.Labels {
			value, ok := spec.ValueAt(s, i)
			if !ok {
				break
			}
			pdf.CellFormat(labelWidth, rowHeight, tr(label), "", 0, "L", false, 0, "")
			x, y := pdf.GetXY()
			width := 0.0
			if maxVal > 0 && value > 0 {
				width = value / maxVal * barSpace
			}
			color := spec.SeriesColor(s)
			if len(spec.Series) == 1 {
				color = spec.LabelColor(i)
			}
			r, g, b, ok := chart.RGB(color)
			if !ok {
				r, g, b = 100, 116, 139
			}
			pdf.SetFillColor(r, g, b)
			if width > 0 {
				pdf.Rect(x, y+1, width, rowHeight-2, "F")
			}
			pdf.SetX(x + barSpace + 2)
			pdf.CellFormat(23, rowHeight, chart.FormatValue(value), "", 1, "R", false, 0, "")
		}
	}
	pdf.Ln(4)
}

func bounds(spec chart.Spec) (float64, float64) {
	minVal, maxVal := 0.0, 0.0
	for s := range spec.Series {
		for i := range spec.Labels {
			v, ok := spec.ValueAt(s, i)
			if !ok {
				break
			}
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	return minVal, maxVal
}
