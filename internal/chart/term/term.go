// Package term renders chart specs as horizontal bar plots for terminals.
package term

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

const (
	minBarWidth         = 10
	maxLabelWidth       = 24
	terminalWidthBackup = 80
	barGlyph            = "█"
	noDataText          = "No data"
)

// Render writes spec to w. A width of zero or less fits the plot to the
// terminal attached to stdout.
func Render(w io.Writer, spec chart.Spec, width int) error {
	if width <= 0 {
		width = terminalWidth()
	}
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true)
	mutedStyle := r.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))

	var b strings.Builder
	if spec.Title != "" {
		b.WriteString(titleStyle.Render(spec.Title))
		b.WriteString("\n")
	}
	if spec.Empty() {
		b.WriteString(mutedStyle.Render(noDataText))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	labelWidth := 0
	for _, label := range spec.Labels {
		if n := utf8.RuneCountInString(label); n > labelWidth {
			labelWidth = n
		}
	}
	if labelWidth > maxLabelWidth {
		labelWidth = maxLabelWidth
	}

	_, maxVal := valueRange(spec)
	valueWidth := utf8.RuneCountInString(chart.FormatValue(maxVal))
	barWidth := width - labelWidth - valueWidth - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	single := len(spec.Series) == 1
	for s, series := range spec.Series {
		if !single && series.Name != "" {
			b.WriteString(r.NewStyle().Foreground(Color(spec.SeriesColor(s))).Render(series.Name))
			b.WriteString("\n")
		}
		for i, label := range spec.Labels {
			value, ok := spec.ValueAt(s, i)
			if !ok {
				break
			}
			color := spec.SeriesColor(s)
			if single {
				color = spec.LabelColor(i)
			}
			cells := 0
			if maxVal > 0 && value > 0 {
				cells = int(math.Round(value / maxVal * float64(barWidth)))
			}
			bar := r.NewStyle().Foreground(Color(color)).Render(strings.Repeat(barGlyph, cells))
			b.WriteString(fmt.Sprintf("%s │ %s %s\n", pad(label, labelWidth), bar, mutedStyle.Render(chart.FormatValue(value))))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Color converts a palette token into a lipgloss color. Hex tokens pass through;
// rgb()/rgba() tokens are converted to hex.
func Color(token string) lipgloss.Color {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "#") {
		return lipgloss.Color(token)
	}
	if r, g, b, ok := chart.RGB(token); ok {
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
	}
	return lipgloss.Color(token)
}

func valueRange(spec chart.Spec) (float64, float64) {
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for s := range spec.Series {
		for i := range spec.Labels {
			v, ok := spec.ValueAt(s, i)
			if !ok {
				break
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 0) {
		return 0, 0
	}
	return minVal, maxVal
}

func pad(label string, width int) string {
	n := utf8.RuneCountInString(label)
	if n > width {
		runes := []rune(label)
		return string(runes[:width-1]) + "…"
	}
	return label + strings.Repeat(" ", width-n)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
