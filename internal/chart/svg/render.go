// Package svg renders chart specs into standalone SVG documents.
package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// Render draws spec with the renderer matching its kind. Specs without data
// produce a "No data" placeholder instead of an error.
func Render(width, height int, spec chart.Spec, opts Opts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if opts.Title == "" {
		opts.Title = spec.Title
	}
	if spec.Empty() {
		return Placeholder(width, height, opts), nil
	}
	switch spec.Kind {
	case chart.KindLine:
		return Line(width, height, spec, opts)
	case chart.KindBar:
		return Bars(width, height, spec, opts)
	case chart.KindPie:
		return Pie(width, height, spec, 0, opts)
	case chart.KindDoughnut:
		return Pie(width, height, spec, 0.55, opts)
	case chart.KindPolarArea:
		return PolarArea(width, height, spec, opts)
	default:
		return "", fmt.Errorf("svg: unsupported chart kind %q", spec.Kind)
	}
}

// Placeholder renders an empty frame with a "No data" caption.
func Placeholder(width, height int, opts Opts) template.HTML {
	var b strings.Builder
	titleID := makeID(opts.Title, "empty-title")
	openSVG(&b, width, height, titleID, "", fallback(opts.Title, "Chart"), "")
	b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>",
		float64(width)/2, float64(height)/2, fallback(opts.AxisColor, "#475569"), noDataText))
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func openSVG(b *strings.Builder, width, height int, titleID, descID, title, desc string) {
	labelled := titleID
	if descID != "" {
		labelled = titleID + " " + descID
	}
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s\">", width, height, labelled))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(title)))
	if descID != "" {
		b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(desc)))
	}
}

func tooltip(opts Opts, label string, value float64) string {
	fn := opts.Tooltip
	if fn == nil {
		fn = chart.LabelTooltip()
	}
	return template.HTMLEscapeString(fn(label, value))
}

// legend draws a vertical legend starting at x,y.
func legend(b *strings.Builder, x, y float64, labels []string, color func(int) string, textColor string) {
	for i, label := range labels {
		rowY := y + float64(i)*16
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"5\" fill=\"%s\"></circle>", x+5, rowY-4, color(i)))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", x+14, rowY, textColor, template.HTMLEscapeString(label)))
	}
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	if len(series) == 0 {
		return 0, 0
	}
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// specBounds returns the value range over every drawable point.
func specBounds(spec chart.Spec) (float64, float64) {
	values := make([]float64, 0, len(spec.Labels)*len(spec.Series))
	for s := range spec.Series {
		for i := range spec.Labels {
			if v, ok := spec.ValueAt(s, i); ok {
				values = append(values, v)
			}
		}
	}
	minVal, maxVal := bounds(values)
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
