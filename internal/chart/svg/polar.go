package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

const polarRings = 4

// PolarArea renders the first series as equal-angle wedges whose radius is
// proportional to the value.
func PolarArea(width, height int, spec chart.Spec, opts Opts) (template.HTML, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	geo, err := newRadial(width, height, opts)
	if err != nil {
		return "", err
	}
	values := drawable(spec, 0)
	if len(values) == 0 {
		return Placeholder(width, height, opts), nil
	}
	_, maxVal := bounds(values)
	if maxVal <= 0 {
		return Placeholder(width, height, opts), nil
	}

	titleID := makeID(opts.Title, "polar-title")
	descID := makeID(opts.Title, "polar-desc")

	var b strings.Builder
	openSVG(&b, width, height, titleID, descID, fallback(opts.Title, "Polar area chart"), fallback(opts.Description, "Magnitude by category"))

	gridColor := fallback(opts.GridColor, "#cbd5f5")
	for i := 1; i <= polarRings; i++ {
		r := geo.radius * float64(i) / polarRings
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></circle>", geo.cx, geo.cy, r, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"9\" text-anchor=\"middle\">%s</text>", geo.cx, geo.cy-r+10, geo.textColor, template.HTMLEscapeString(formatTick(maxVal*float64(i)/polarRings))))
	}

	sweep := 2 * math.Pi / float64(len(values))
	angle := -math.Pi / 2
	for i, value := range values {
		if value > 0 {
			r := geo.radius * value / maxVal
			title := tooltip(opts, spec.Labels[i], value)
			color := spec.LabelColor(i)
			if len(values) == 1 {
				b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" fill-opacity=\"0.7\"><title>%s</title></circle>", geo.cx, geo.cy, r, color, title))
			} else {
				b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.7\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></path>", slicePath(geo, 0, r, angle, sweep), color, title))
			}
		}
		angle += sweep
	}

	legend(&b, geo.legendX, geo.cy-float64(len(values)-1)*8, spec.Labels[:len(values)], spec.LabelColor, geo.textColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
