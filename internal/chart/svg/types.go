package svg

import "github.com/odyssey-erp/hrdash/internal/chart"

// Opts customises the chart renderers.
type Opts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	// ShowDots draws point markers on line charts.
	ShowDots bool
	// Fill shades the area under single-series line charts.
	Fill bool
	// XTitle and YTitle label the cartesian axes.
	XTitle string
	YTitle string
	// Tooltip renders per-point hover text. Nil falls back to "label: value".
	Tooltip chart.TooltipFunc
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 6

	legendWidth = 150.0
	noDataText  = "No data"
)
