package svg

import (
	"strings"
	"testing"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

func categorical(kind chart.Kind) chart.Spec {
	return chart.BuildCategorical(kind, "Employees", []chart.CategoryRow{
		{Label: "Sales", Value: 3},
		{Label: "Admin", Value: 1},
		{Label: "R&D", Value: 4},
	}, chart.Categorical)
}

func TestRenderEveryKindProducesSVG(t *testing.T) {
	for _, kind := range []chart.Kind{chart.KindPie, chart.KindDoughnut, chart.KindBar, chart.KindPolarArea} {
		html, err := Render(420, 220, categorical(kind), Opts{Title: "Employees"})
		if err != nil {
			t.Fatalf("%s renderer error: %v", kind, err)
		}
		output := string(html)
		if !strings.HasPrefix(output, "<svg") || !strings.HasSuffix(output, "</svg>") {
			t.Fatalf("%s: expected svg document, got %s", kind, output)
		}
		if !strings.Contains(output, "aria-labelledby") {
			t.Fatalf("%s: expected accessibility attributes", kind)
		}
		if !strings.Contains(output, "R&amp;D") {
			t.Fatalf("%s: expected escaped label", kind)
		}
	}
}

func TestRenderEmptySpecIsPlaceholder(t *testing.T) {
	spec := chart.BuildCategorical(chart.KindPie, "Employees", nil, nil)
	html, err := Render(0, 0, spec, Opts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "No data") {
		t.Fatalf("expected placeholder, got %s", html)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	spec := categorical("radar")
	if _, err := Render(420, 220, spec, Opts{}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestLineMultiSeries(t *testing.T) {
	spec := chart.BuildTimeSeries(chart.KindLine, []chart.TimeSeries{
		{Name: "Join", Points: []chart.PeriodValue{{Period: "Jan", Value: 2}, {Period: "Feb", Value: 5}, {Period: "Mar", Value: 1}}},
		{Name: "Resign", Points: []chart.PeriodValue{{Period: "Jan", Value: 1}}},
	}, chart.Attrition)

	html, err := Line(400, 200, spec, Opts{Title: "Join/Resign", ShowDots: true})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if got := strings.Count(output, "<path"); got != 2 {
		t.Fatalf("expected one path per series, got %d", got)
	}
	if got := strings.Count(output, "<circle"); got != 4 {
		t.Fatalf("expected a marker per drawable point, got %d", got)
	}
	if !strings.Contains(output, "Resign") {
		t.Fatalf("expected legend label")
	}
}

func TestLineIgnoresValuesBeyondLabels(t *testing.T) {
	spec := chart.Spec{
		Kind:    chart.KindLine,
		Labels:  []string{"Jan"},
		Series:  []chart.Series{{Name: "a", Values: []float64{1, 2, 3}}},
		Palette: chart.LeaveTrend,
	}
	html, err := Line(400, 200, spec, Opts{ShowDots: true})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if got := strings.Count(string(html), "<circle"); got != 1 {
		t.Fatalf("expected single marker, got %d", got)
	}
}

func TestLineFillSingleSeries(t *testing.T) {
	spec := chart.BuildTimeSeries(chart.KindLine, []chart.TimeSeries{
		{Name: "Leaves", Points: []chart.PeriodValue{{Period: "Jan", Value: 2}, {Period: "Feb", Value: 4}}},
	}, chart.LeaveTrend)
	html, err := Line(400, 200, spec, Opts{Fill: true})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if !strings.Contains(string(html), "fill-opacity") {
		t.Fatalf("expected filled area")
	}
}

func TestBarsSingleSeriesUsesCategoryColors(t *testing.T) {
	html, err := Bars(420, 220, categorical(chart.KindBar), Opts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	for _, color := range chart.Categorical[:3] {
		if !strings.Contains(output, color) {
			t.Fatalf("expected category color %s", color)
		}
	}
}

func TestBarsNegativeValues(t *testing.T) {
	spec := chart.BuildCategorical(chart.KindBar, "Delta", []chart.CategoryRow{{Label: "a", Value: -3}, {Label: "b", Value: 2}}, nil)
	html, err := Bars(420, 220, spec, Opts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if strings.Contains(string(html), "height=\"-") {
		t.Fatalf("expected non-negative bar heights")
	}
}

func TestPieSingleSliceDrawsCircle(t *testing.T) {
	spec := chart.BuildCategorical(chart.KindPie, "Employees", []chart.CategoryRow{{Label: "Sales", Value: 5}}, nil)
	html, err := Pie(420, 220, spec, 0, Opts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "<circle") {
		t.Fatalf("expected full circle")
	}
}

func TestPieZeroTotalIsPlaceholder(t *testing.T) {
	spec := chart.BuildCategorical(chart.KindPie, "Employees", []chart.CategoryRow{{Label: "Sales", Value: 0}}, nil)
	html, err := Pie(420, 220, spec, 0, Opts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "No data") {
		t.Fatalf("expected placeholder")
	}
}

func TestPieRejectsBadHole(t *testing.T) {
	if _, err := Pie(420, 220, categorical(chart.KindDoughnut), 1, Opts{}); err == nil {
		t.Fatalf("expected hole ratio error")
	}
}

func TestTooltipOverride(t *testing.T) {
	spec := categorical(chart.KindPie)
	html, err := Render(420, 220, spec, Opts{Tooltip: chart.ShareTooltip(spec.Series[0].Values)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "Sales: 3 (37.50%)") {
		t.Fatalf("expected share tooltip, got %s", html)
	}
}

func TestViewportTooSmall(t *testing.T) {
	if _, err := Render(10, 10, categorical(chart.KindBar), Opts{}); err == nil {
		t.Fatalf("expected viewport error")
	}
}
