package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// Bars renders a grouped bar chart with one bar per series in every label group.
// Single-series charts color each bar by category.
func Bars(width, height int, spec chart.Spec, opts Opts) (template.HTML, error) {
	if len(spec.Labels) == 0 || len(spec.Series) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	f, err := newFrame(width, height, spec, opts)
	if err != nil {
		return "", err
	}
	zeroY := f.y(0)
	groupWidth := f.chartWidth / float64(len(spec.Labels))
	barWidth := groupWidth * 0.8 / float64(len(spec.Series))

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	openSVG(&b, width, height, titleID, descID, fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Bar comparison"))
	f.grid(&b, opts.TickCount, zeroY, opts)

	single := len(spec.Series) == 1
	for i, label := range spec.Labels {
		baseX := f.padding + float64(i)*groupWidth + groupWidth*0.1
		for s, series := range spec.Series {
			value, ok := spec.ValueAt(s, i)
			if !ok {
				continue
			}
			color := spec.SeriesColor(s)
			if single {
				color = spec.LabelColor(i)
			}
			y, h := barPosition(value, f.scale, zeroY, f.padding, f.bottom())
			b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"><title>%s</title></rect>",
				baseX+float64(s)*barWidth, y, barWidth, h, color,
				template.HTMLEscapeString(series.Name), template.HTMLEscapeString(label), tooltip(opts, label, value)))
		}
		center := f.padding + float64(i)*groupWidth + groupWidth/2
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, f.bottom()+14, f.axisColor, template.HTMLEscapeString(label)))
	}

	legendX := f.padding + f.chartWidth/2
	for s, series := range spec.Series {
		if series.Name == "" {
			continue
		}
		color := spec.SeriesColor(s)
		if single {
			color = spec.LabelColor(0)
		}
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, 4.0, color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, 12.0, f.axisColor, template.HTMLEscapeString(series.Name)))
		legendX += 90
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
