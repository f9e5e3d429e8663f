package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// radial describes the drawing circle for pie-like charts with a right legend.
type radial struct {
	cx, cy, radius float64
	legendX        float64
	textColor      string
}

func newRadial(width, height int, opts Opts) (radial, error) {
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	plotWidth := float64(width) - 2*padding - legendWidth
	plotHeight := float64(height) - 2*padding
	if plotWidth <= 0 || plotHeight <= 0 {
		return radial{}, fmt.Errorf("svg: viewport too small")
	}
	r := math.Min(plotWidth, plotHeight) / 2
	return radial{
		cx:        padding + plotWidth/2,
		cy:        padding + plotHeight/2,
		radius:    r,
		legendX:   padding + plotWidth + 12,
		textColor: fallback(opts.AxisColor, "#475569"),
	}, nil
}

func (r radial) point(radius, angle float64) (float64, float64) {
	return r.cx + radius*math.Cos(angle), r.cy + radius*math.Sin(angle)
}

// Pie renders the first series as a pie. A hole ratio between 0 and 1 cuts a
// doughnut out of the center.
func Pie(width, height int, spec chart.Spec, hole float64, opts Opts) (template.HTML, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if hole < 0 || hole >= 1 {
		return "", fmt.Errorf("svg: hole ratio %.2f out of range", hole)
	}
	geo, err := newRadial(width, height, opts)
	if err != nil {
		return "", err
	}

	values := drawable(spec, 0)
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return Placeholder(width, height, opts), nil
	}

	kind := "pie"
	if hole > 0 {
		kind = "doughnut"
	}
	titleID := makeID(opts.Title, kind+"-title")
	descID := makeID(opts.Title, kind+"-desc")

	var b strings.Builder
	openSVG(&b, width, height, titleID, descID, fallback(opts.Title, "Pie chart"), fallback(opts.Description, "Share by category"))

	inner := geo.radius * hole
	angle := -math.Pi / 2
	for i, value := range values {
		if value <= 0 {
			continue
		}
		sweep := value / total * 2 * math.Pi
		color := spec.LabelColor(i)
		title := tooltip(opts, spec.Labels[i], value)
		if sweep >= 2*math.Pi-1e-9 {
			b.WriteString(fullRing(geo, inner, color, title))
		} else {
			b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></path>", slicePath(geo, inner, geo.radius, angle, sweep), color, title))
		}
		angle += sweep
	}

	legend(&b, geo.legendX, geo.cy-float64(len(values)-1)*8, spec.Labels[:len(values)], spec.LabelColor, geo.textColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// drawable returns the values of series s that have a label.
func drawable(spec chart.Spec, s int) []float64 {
	values := make([]float64, 0, len(spec.Labels))
	for i := range spec.Labels {
		v, ok := spec.ValueAt(s, i)
		if !ok {
			break
		}
		values = append(values, v)
	}
	return values
}

func slicePath(geo radial, inner, outer, start, sweep float64) string {
	end := start + sweep
	large := 0
	if sweep > math.Pi {
		large = 1
	}
	ox1, oy1 := geo.point(outer, start)
	ox2, oy2 := geo.point(outer, end)
	if inner <= 0 {
		return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", geo.cx, geo.cy, ox1, oy1, outer, outer, large, ox2, oy2)
	}
	ix1, iy1 := geo.point(inner, end)
	ix2, iy2 := geo.point(inner, start)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		ox1, oy1, outer, outer, large, ox2, oy2, ix1, iy1, inner, inner, large, ix2, iy2)
}

// fullRing draws a single slice covering the whole circle, which an arc path cannot express.
func fullRing(geo radial, inner float64, color, title string) string {
	if inner <= 0 {
		return fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"><title>%s</title></circle>", geo.cx, geo.cy, geo.radius, color, title)
	}
	width := geo.radius - inner
	return fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s</title></circle>", geo.cx, geo.cy, inner+width/2, color, width, title)
}
