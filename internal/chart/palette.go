package chart

import (
	"fmt"
	"strings"
)

// Palette is a fixed ordered list of color tokens cycled by index.
type Palette []string

const fallbackColor = "#64748b"

// Stock palettes used by the HR dashboard.
var (
	// Categorical is the twelve color palette shared by the department and trend charts.
	Categorical = Palette{
		"#70cac1", "#659d4e", "#208cc2", "#4d6cb1", "#584999", "#8e559e",
		"#cf3650", "#f65337", "#fe7139", "#ffa433", "#ffc25b", "#f8e54b",
	}
	// LeaveShare colors the leave-per-department doughnut.
	LeaveShare = Palette{"#ffbf00", "#70cac1", "#659d4e"}
	// LeaveTotals colors the leave-per-month bars.
	LeaveTotals = Palette{"#ff618a"}
	// Attrition colors the attrition rate line.
	Attrition = Palette{"#70cac1", "#659d4e", "#208cc2", "#4d6cb1"}
	// LeaveTrend colors the leaves-taken area line.
	LeaveTrend = Palette{"rgba(70, 140, 193, 1)"}
	// Skills colors the polar area skill chart.
	Skills = Palette{
		"#ff6384", "#4bc0c0", "#ffcd56", "#c9cbcf", "#36a2eb", "#659d4e", "#4d6cb1",
		"#584999", "#8e559e", "#cf3650", "#f65337", "#fe7139", "#ffa433", "#ffc25b", "#f8e54b",
	}
)

// At returns the color for index i, wrapping around the palette length.
func (p Palette) At(i int) string {
	if len(p) == 0 {
		return fallbackColor
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// Index maps i onto a palette slot.
func (p Palette) Index(i int) int {
	if len(p) == 0 {
		return 0
	}
	if i < 0 {
		i = -i
	}
	return i % len(p)
}

// Or returns p unless it is empty, in which case fallback is returned.
func (p Palette) Or(fallback Palette) Palette {
	cleaned := p.clean()
	if len(cleaned) == 0 {
		return fallback
	}
	return cleaned
}

func (p Palette) clean() Palette {
	out := make(Palette, 0, len(p))
	for _, c := range p {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// RGB decodes a #rrggbb, #rgb, rgb() or rgba() token. Components are clamped
// to 0..255 and alpha is ignored.
func RGB(token string) (r, g, b int, ok bool) {
	token = strings.TrimSpace(token)
	if hex, found := strings.CutPrefix(token, "#"); found {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return 0, 0, 0, false
		}
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return 0, 0, 0, false
		}
		return r, g, b, true
	}
	body := strings.TrimPrefix(strings.TrimPrefix(token, "rgba("), "rgb(")
	if body == token {
		return 0, 0, 0, false
	}
	if _, err := fmt.Sscanf(body, "%d, %d, %d", &r, &g, &b); err != nil {
		return 0, 0, 0, false
	}
	return clampByte(r), clampByte(g), clampByte(b), true
}

func clampByte(v int) int {
	return min(max(v, 0), 255)
}
