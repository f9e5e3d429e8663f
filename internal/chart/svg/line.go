package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// frame holds the plotting area of a cartesian chart.
type frame struct {
	padding     float64
	chartWidth  float64
	chartHeight float64
	minVal      float64
	maxVal      float64
	scale       float64
	axisColor   string
	gridColor   string
}

func newFrame(width, height int, spec chart.Spec, opts Opts) (frame, error) {
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	f := frame{
		padding:     padding,
		chartWidth:  float64(width) - 2*padding,
		chartHeight: float64(height) - 2*padding,
		axisColor:   fallback(opts.AxisColor, "#475569"),
		gridColor:   fallback(opts.GridColor, "#cbd5f5"),
	}
	if f.chartWidth <= 0 || f.chartHeight <= 0 {
		return frame{}, fmt.Errorf("svg: viewport too small")
	}
	f.minVal, f.maxVal = specBounds(spec)
	f.scale = f.chartHeight / (f.maxVal - f.minVal)
	return f, nil
}

func (f frame) y(value float64) float64 {
	return f.padding + f.chartHeight - (value-f.minVal)*f.scale
}

func (f frame) bottom() float64 {
	return f.padding + f.chartHeight
}

// grid writes tick lines, tick labels, both axes and optional axis titles.
func (f frame) grid(b *strings.Builder, tickCount int, zeroY float64, opts Opts) {
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		value := f.minVal + (f.maxVal-f.minVal)*ratio
		y := f.padding + f.chartHeight - ratio*f.chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", f.padding, y, f.padding+f.chartWidth, y, f.gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", f.padding-6, y+4, f.axisColor, template.HTMLEscapeString(formatTick(value))))
	}

	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", f.axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.padding, f.padding, f.bottom()))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, zeroY, f.padding+f.chartWidth, zeroY))
	b.WriteString("</g>")

	if opts.XTitle != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", f.padding+f.chartWidth/2, f.bottom()+f.padding-2, f.axisColor, template.HTMLEscapeString(opts.XTitle)))
	}
	if opts.YTitle != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", f.padding, f.padding-6, f.axisColor, template.HTMLEscapeString(opts.YTitle)))
	}
}

// Line renders a multi-series line chart. Points beyond the label count are not drawn.
func Line(width, height int, spec chart.Spec, opts Opts) (template.HTML, error) {
	if len(spec.Labels) == 0 || len(spec.Series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	f, err := newFrame(width, height, spec, opts)
	if err != nil {
		return "", err
	}

	step := 0.0
	if len(spec.Labels) > 1 {
		step = f.chartWidth / float64(len(spec.Labels)-1)
	}
	xAt := func(i int) float64 {
		if len(spec.Labels) > 1 {
			return f.padding + float64(i)*step
		}
		return f.padding + f.chartWidth/2
	}

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	openSVG(&b, width, height, titleID, descID, fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend data"))
	f.grid(&b, opts.TickCount, f.y(0), opts)

	for s, series := range spec.Series {
		color := spec.SeriesColor(s)
		var path strings.Builder
		points := 0
		lastX := 0.0
		for i := range spec.Labels {
			value, ok := spec.ValueAt(s, i)
			if !ok {
				break
			}
			x, y := xAt(i), f.y(value)
			if points == 0 {
				path.WriteString(fmt.Sprintf("M%.2f %.2f", x, y))
			} else {
				path.WriteString(fmt.Sprintf(" L%.2f %.2f", x, y))
			}
			lastX = x
			points++
		}
		if points == 0 {
			continue
		}
		if opts.Fill && len(spec.Series) == 1 {
			area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), lastX, f.bottom(), xAt(0), f.bottom())
			b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.4\" stroke=\"none\" aria-hidden=\"true\"></path>", area, color))
		}
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", path.String(), color, template.HTMLEscapeString(series.Name)))

		for i := 0; i < points; i++ {
			value, _ := spec.ValueAt(s, i)
			radius := 0.0
			if opts.ShowDots {
				radius = 3
			}
			// invisible markers still carry the hover tooltip
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.0f\" fill=\"%s\"><title>%s</title></circle>", xAt(i), f.y(value), radius, color, tooltip(opts, spec.Labels[i], value)))
		}
	}

	for i, label := range spec.Labels {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(i), f.bottom()+14, f.axisColor, template.HTMLEscapeString(label)))
	}

	legendX := f.padding
	for s, series := range spec.Series {
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX+f.chartWidth/2, 4.0, spec.SeriesColor(s)))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+f.chartWidth/2+14, 12.0, f.axisColor, template.HTMLEscapeString(series.Name)))
		legendX += 90
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
