package chart

import "math"

// CategoryRow is one category/value data point.
type CategoryRow struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TimeSeries is one named series of period/value points.
type TimeSeries struct {
	Name   string        `json:"name"`
	Points []PeriodValue `json:"values"`
}

// PeriodValue is one point of a time series.
type PeriodValue struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// CrossTabRow holds per-dimension counts for one period.
type CrossTabRow struct {
	Period string             `json:"period"`
	Counts map[string]float64 `json:"counts"`
}

// CrossTab carries the two views derived from a cross-tabulated row set.
type CrossTab struct {
	// ByPeriod sums every dimension key per row.
	ByPeriod Spec
	// ByDimension sums every row per dimension key.
	ByDimension Spec
}

// BuildCategorical turns label/value rows into a single-series spec. Labels keep
// input order and each category takes palette[i % len(palette)].
func BuildCategorical(kind Kind, name string, rows []CategoryRow, palette Palette) Spec {
	palette = palette.Or(Categorical)
	spec := Spec{Kind: kind, Labels: []string{}, Series: []Series{}, Palette: palette}
	if len(rows) == 0 {
		return spec
	}
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	colors := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row.Label
		values[i] = finite(row.Value)
		colors[i] = palette.At(i)
	}
	spec.Labels = labels
	spec.Colors = colors
	spec.Series = []Series{{Name: name, Values: values, ColorIndex: 0}}
	return spec
}

// BuildTimeSeries aligns several series on the periods of the first one.
//
// Later series are aligned by index, not by period label: a series with a
// different period set or ordering is drawn against the first series' labels.
// Shorter series keep their shorter value slices.
func BuildTimeSeries(kind Kind, seriesList []TimeSeries, palette Palette) Spec {
	palette = palette.Or(Categorical)
	spec := Spec{Kind: kind, Labels: []string{}, Series: []Series{}, Palette: palette}
	if len(seriesList) == 0 {
		return spec
	}
	labels := make([]string, len(seriesList[0].Points))
	for i, point := range seriesList[0].Points {
		labels[i] = point.Period
	}
	spec.Labels = labels
	spec.Series = make([]Series, len(seriesList))
	for i, ts := range seriesList {
		values := make([]float64, len(ts.Points))
		for j, point := range ts.Points {
			values[j] = finite(point.Value)
		}
		spec.Series[i] = Series{Name: ts.Name, Values: values, ColorIndex: palette.Index(i)}
	}
	return spec
}

// BuildCrossTabulated derives per-period and per-dimension totals from rows of
// dimension counts. A key missing from a row counts as zero.
func BuildCrossTabulated(rows []CrossTabRow, dimensionKeys []string, periodPalette, dimensionPalette Palette) CrossTab {
	periods := make([]CategoryRow, len(rows))
	for i, row := range rows {
		total := 0.0
		for _, key := range dimensionKeys {
			total += finite(row.Counts[key])
		}
		periods[i] = CategoryRow{Label: row.Period, Value: total}
	}

	dimensions := make([]CategoryRow, len(dimensionKeys))
	for i, key := range dimensionKeys {
		total := 0.0
		for _, row := range rows {
			total += finite(row.Counts[key])
		}
		dimensions[i] = CategoryRow{Label: key, Value: total}
	}

	byPeriod := BuildCategorical(KindBar, "Total Leaves", periods, periodPalette.Or(LeaveTotals))
	// every bar shares the first color
	for i := range byPeriod.Colors {
		byPeriod.Colors[i] = byPeriod.Palette.At(0)
	}
	return CrossTab{
		ByPeriod:    byPeriod,
		ByDimension: BuildCategorical(KindDoughnut, "Leaves", dimensions, dimensionPalette.Or(LeaveShare)),
	}
}

// Sum adds up values, skipping non-finite entries.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += finite(v)
	}
	return total
}

// Percentage returns value as a share of sum(values) in percent, rounded to two
// decimals. A zero sum yields zero.
func Percentage(value float64, values []float64) float64 {
	total := Sum(values)
	if total == 0 {
		return 0
	}
	return math.Round(finite(value)/total*100*100) / 100
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
