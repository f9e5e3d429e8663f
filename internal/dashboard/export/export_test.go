package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

func sampleSpecs() []chart.Spec {
	pie := chart.BuildCategorical(chart.KindPie, "Employees", []chart.CategoryRow{{Label: "Sales", Value: 3}, {Label: "R&D", Value: 5}}, nil)
	pie.Title = "Employees by Department"
	line := chart.BuildTimeSeries(chart.KindLine, []chart.TimeSeries{
		{Name: "Join", Points: []chart.PeriodValue{{Period: "Jan", Value: 2}, {Period: "Feb", Value: 1}}},
		{Name: "Resign", Points: []chart.PeriodValue{{Period: "Jan", Value: 1}}},
	}, nil)
	line.Title = "Join / Resign Trends"
	empty := chart.BuildCategorical(chart.KindPolarArea, "Skill", nil, nil)
	empty.Title = "Skills"
	return []chart.Spec{pie, line, empty}
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, sampleSpecs()); err != nil {
		t.Fatalf("csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if records[0][1] != "Employees by Department" {
		t.Fatalf("unexpected title row %v", records[0])
	}
	if strings.Join(records[2], ",") != "Sales,3" {
		t.Fatalf("unexpected data row %v", records[2])
	}
	var resignRow []string
	for _, r := range records {
		if len(r) == 3 && r[0] == "Feb" {
			resignRow = r
		}
	}
	if resignRow == nil || resignRow[2] != "" {
		t.Fatalf("missing point should be blank, got %v", resignRow)
	}
}

func TestXLSXSheetsAndCharts(t *testing.T) {
	data, err := XLSX(sampleSpecs())
	if err != nil {
		t.Fatalf("xlsx error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Employees by Department", "Join - Resign Trends", "Skills"}
	if strings.Join(sheets, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	v, err := f.GetCellValue("Employees by Department", "B4")
	if err != nil || v != "5" {
		t.Fatalf("unexpected B4 %q (%v)", v, err)
	}
	note, _ := f.GetCellValue("Skills", "A3")
	if note != "No data" {
		t.Fatalf("expected placeholder note, got %q", note)
	}
}

func TestSheetNameUniqueAndBounded(t *testing.T) {
	used := map[string]bool{}
	long := chart.Spec{Title: strings.Repeat("x", 40)}
	a := sheetName(long, 0, used)
	b := sheetName(long, 1, used)
	if len(a) != maxSheetName || len(b) != maxSheetName || a == b {
		t.Fatalf("unexpected names %q %q", a, b)
	}
	if got := sheetName(chart.Spec{}, 4, used); got != "Chart 5" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestPDF(t *testing.T) {
	data, err := PDF(Report{
		Title:       "HR Dashboard",
		Employee:    "Ada",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		Charts:      sampleSpecs(),
	})
	if err != nil {
		t.Fatalf("pdf error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("unexpected pdf header %q", data[:8])
	}
}
