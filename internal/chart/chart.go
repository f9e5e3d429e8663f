// Package chart normalizes aggregate query results into renderer-agnostic chart specs.
package chart

import (
	"fmt"
	"strings"
)

// Kind enumerates the chart types a rendering sink can draw.
type Kind string

// Supported chart kinds.
const (
	KindPie       Kind = "pie"
	KindBar       Kind = "bar"
	KindDoughnut  Kind = "doughnut"
	KindLine      Kind = "line"
	KindPolarArea Kind = "polarArea"
)

// Valid reports whether the kind is one of the supported chart kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPie, KindBar, KindDoughnut, KindLine, KindPolarArea:
		return true
	}
	return false
}

// ParseKind resolves a kind from its textual form.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.TrimSpace(raw))
	if !k.Valid() {
		return "", fmt.Errorf("chart: unknown kind %q", raw)
	}
	return k, nil
}

// Series is one dataset of a chart. Values are aligned positionally with Spec.Labels.
type Series struct {
	Name       string    `json:"name"`
	Values     []float64 `json:"values"`
	ColorIndex int       `json:"colorIndex"`
}

// Spec is the normalized description of a single chart.
//
// Colors holds one color per label for categorical charts (pie, doughnut,
// polarArea and single-series bars). It is empty for multi-series charts,
// which color each series through Series.ColorIndex.
type Spec struct {
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title,omitempty"`
	Labels  []string `json:"labels"`
	Series  []Series `json:"series"`
	Colors  []string `json:"colors,omitempty"`
	Palette Palette  `json:"palette"`
}

// Empty reports whether the spec carries no data to draw.
func (s Spec) Empty() bool {
	if len(s.Labels) == 0 || len(s.Series) == 0 {
		return true
	}
	for _, series := range s.Series {
		if len(series.Values) > 0 {
			return false
		}
	}
	return true
}

// SeriesColor returns the palette color assigned to the series at index i.
func (s Spec) SeriesColor(i int) string {
	if i < 0 || i >= len(s.Series) {
		return s.Palette.At(i)
	}
	return s.Palette.At(s.Series[i].ColorIndex)
}

// LabelColor returns the color for the category at index i.
func (s Spec) LabelColor(i int) string {
	if i >= 0 && i < len(s.Colors) {
		return s.Colors[i]
	}
	return s.Palette.At(i)
}

// ValueAt returns the value of series at label index i. The boolean is false
// when the series has no value at that index.
func (s Spec) ValueAt(series, i int) (float64, bool) {
	if series < 0 || series >= len(s.Series) {
		return 0, false
	}
	values := s.Series[series].Values
	if i < 0 || i >= len(values) {
		return 0, false
	}
	return values[i], true
}
