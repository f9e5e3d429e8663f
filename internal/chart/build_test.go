package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoricalKeepsInputOrder(t *testing.T) {
	rows := []CategoryRow{{Label: "Sales", Value: 4}, {Label: "Admin", Value: 1}, {Label: "R&D", Value: 7}}

	spec := BuildCategorical(KindPie, "Employees", rows, nil)

	assert.Equal(t, []string{"Sales", "Admin", "R&D"}, spec.Labels)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{4, 1, 7}, spec.Series[0].Values)
	assert.Equal(t, len(spec.Labels), len(spec.Series[0].Values))
	assert.Equal(t, []string{"#70cac1", "#659d4e", "#208cc2"}, spec.Colors)
}

func TestBuildCategoricalLengthInvariant(t *testing.T) {
	for n := 1; n <= 30; n++ {
		rows := make([]CategoryRow, n)
		for i := range rows {
			rows[i] = CategoryRow{Label: string(rune('A' + i%26)), Value: float64(i)}
		}
		spec := BuildCategorical(KindBar, "n", rows, nil)
		require.Len(t, spec.Series, 1)
		assert.Len(t, spec.Series[0].Values, len(spec.Labels), "rows=%d", n)
		assert.Len(t, spec.Colors, len(spec.Labels), "rows=%d", n)
	}
}

func TestBuildCategoricalEmpty(t *testing.T) {
	spec := BuildCategorical(KindPie, "Employees", nil, nil)

	assert.NotNil(t, spec.Labels)
	assert.NotNil(t, spec.Series)
	assert.Empty(t, spec.Labels)
	assert.Empty(t, spec.Series)
	assert.True(t, spec.Empty())
}

func TestBuildCategoricalColorsWrapPalette(t *testing.T) {
	rows := []CategoryRow{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}}

	spec := BuildCategorical(KindDoughnut, "x", rows, Palette{"#111", "#222"})

	assert.Equal(t, []string{"#111", "#222", "#111", "#222", "#111"}, spec.Colors)
}

func TestBuildCategoricalColorsDeterministic(t *testing.T) {
	rows := []CategoryRow{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"e", 5}, {"f", 6}}

	first := BuildCategorical(KindPie, "x", rows, nil)
	for i := 0; i < 5; i++ {
		again := BuildCategorical(KindPie, "x", rows, nil)
		assert.Equal(t, first.Colors, again.Colors)
	}
}

func TestBuildCategoricalBlankPaletteFallsBack(t *testing.T) {
	spec := BuildCategorical(KindPie, "x", []CategoryRow{{"a", 1}}, Palette{" ", ""})

	assert.Equal(t, Categorical, spec.Palette)
	assert.Equal(t, "#70cac1", spec.Colors[0])
}

func TestBuildCategoricalSanitizesNonFinite(t *testing.T) {
	spec := BuildCategorical(KindBar, "x", []CategoryRow{{"a", math.NaN()}, {"b", math.Inf(1)}, {"c", 2}}, nil)

	assert.Equal(t, []float64{0, 0, 2}, spec.Series[0].Values)
}

func TestPercentageZeroSum(t *testing.T) {
	spec := BuildCategorical(KindPie, "x", []CategoryRow{{"A", 0}, {"B", 0}}, nil)

	for _, v := range spec.Series[0].Values {
		pct := Percentage(v, spec.Series[0].Values)
		assert.False(t, math.IsNaN(pct))
		assert.Equal(t, 0.0, pct)
	}
}

func TestPercentageRoundsToTwoDecimals(t *testing.T) {
	values := []float64{1, 2}

	assert.Equal(t, 33.33, Percentage(1, values))
	assert.Equal(t, 66.67, Percentage(2, values))
}

func TestBuildTimeSeriesAssignsColorIndex(t *testing.T) {
	series := make([]TimeSeries, 14)
	for i := range series {
		series[i] = TimeSeries{Name: "s", Points: []PeriodValue{{Period: "Jan", Value: float64(i)}}}
	}

	spec := BuildTimeSeries(KindLine, series, nil)

	require.Len(t, spec.Series, 14)
	for i, s := range spec.Series {
		assert.Equal(t, i%len(Categorical), s.ColorIndex)
	}
	assert.Equal(t, "#70cac1", spec.SeriesColor(12))
}

func TestBuildTimeSeriesUsesFirstSeriesPeriods(t *testing.T) {
	series := []TimeSeries{
		{Name: "Join", Points: []PeriodValue{{"Jan", 3}, {"Feb", 4}, {"Mar", 5}}},
		{Name: "Resign", Points: []PeriodValue{{"Mar", 1}, {"Feb", 2}, {"Jan", 0}}},
	}

	spec := BuildTimeSeries(KindLine, series, nil)

	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, spec.Labels)
	// Known limitation: values are aligned by index, so Resign's "Mar" value lands under "Jan".
	assert.Equal(t, []float64{1, 2, 0}, spec.Series[1].Values)
}

func TestBuildTimeSeriesUnequalLengths(t *testing.T) {
	series := []TimeSeries{
		{Name: "Join", Points: []PeriodValue{{"Jan", 3}, {"Feb", 4}, {"Mar", 5}, {"Apr", 6}}},
		{Name: "Resign", Points: []PeriodValue{{"Jan", 1}, {"Feb", 2}}},
	}

	var spec Spec
	require.NotPanics(t, func() { spec = BuildTimeSeries(KindLine, series, nil) })

	require.Len(t, spec.Labels, 4)
	for i := 0; i < 2; i++ {
		v, ok := spec.ValueAt(1, i)
		require.True(t, ok)
		assert.Equal(t, series[1].Points[i].Value, v)
	}
	for i := 2; i < 4; i++ {
		_, ok := spec.ValueAt(1, i)
		assert.False(t, ok, "index %d must be absent, not zero-padded", i)
	}
	assert.Len(t, spec.Series[1].Values, 2)
}

func TestBuildTimeSeriesEmpty(t *testing.T) {
	spec := BuildTimeSeries(KindLine, nil, nil)

	assert.Empty(t, spec.Labels)
	assert.Empty(t, spec.Series)
	assert.True(t, spec.Empty())
}

func TestBuildCrossTabulatedTotals(t *testing.T) {
	rows := []CrossTabRow{
		{Period: "Jan", Counts: map[string]float64{"A": 2}},
		{Period: "Feb", Counts: map[string]float64{"A": 0, "B": 3}},
	}

	tab := BuildCrossTabulated(rows, []string{"A", "B"}, nil, nil)

	assert.Equal(t, KindDoughnut, tab.ByDimension.Kind)
	assert.Equal(t, []string{"A", "B"}, tab.ByDimension.Labels)
	assert.Equal(t, []float64{2, 3}, tab.ByDimension.Series[0].Values)

	assert.Equal(t, KindBar, tab.ByPeriod.Kind)
	assert.Equal(t, []string{"Jan", "Feb"}, tab.ByPeriod.Labels)
	assert.Equal(t, []float64{2, 3}, tab.ByPeriod.Series[0].Values)
	assert.Equal(t, []string{"#ff618a", "#ff618a"}, tab.ByPeriod.Colors)
}

func TestBuildCrossTabulatedIgnoresUnknownKeys(t *testing.T) {
	rows := []CrossTabRow{{Period: "Jan", Counts: map[string]float64{"A": 1, "Z": 10}}, {Period: "Feb"}}

	tab := BuildCrossTabulated(rows, []string{"A"}, nil, nil)

	assert.Equal(t, []float64{1, 0}, tab.ByPeriod.Series[0].Values)
	assert.Equal(t, []float64{1}, tab.ByDimension.Series[0].Values)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("polarArea")
	require.NoError(t, err)
	assert.Equal(t, KindPolarArea, k)

	_, err = ParseKind("radar")
	assert.Error(t, err)
}
