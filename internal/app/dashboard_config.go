package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
)

// DashboardFile is the TOML layout of DASHBOARD_CONFIG:
//
//	[surfaces.skillChart]
//	title = "Skill Progress"
//	palette = ["#3366cc", "rgb(220,57,18)"]
type DashboardFile struct {
	Surfaces map[string]SurfaceFile `toml:"surfaces"`
}

// SurfaceFile overrides one chart surface.
type SurfaceFile struct {
	Title   string   `toml:"title"`
	Palette []string `toml:"palette"`
}

// LoadDashboardOverrides reads chart overrides from path. An empty path yields
// no overrides.
func LoadDashboardOverrides(path string) (dashboard.Overrides, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dashboard config: %w", err)
	}
	return ParseDashboardOverrides(string(data))
}

// ParseDashboardOverrides decodes TOML chart overrides. Unknown keys, unknown
// surfaces and unparseable colors are rejected.
func ParseDashboardOverrides(data string) (dashboard.Overrides, error) {
	var file DashboardFile
	meta, err := toml.Decode(data, &file)
	if err != nil {
		return nil, fmt.Errorf("dashboard config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("dashboard config: unknown keys %s", strings.Join(keys, ", "))
	}

	known := make(map[string]bool, len(dashboard.SurfaceIDs))
	for _, id := range dashboard.SurfaceIDs {
		known[id] = true
	}
	out := make(dashboard.Overrides, len(file.Surfaces))
	for surface, cfg := range file.Surfaces {
		if !known[surface] {
			return nil, fmt.Errorf("dashboard config: unknown surface %q", surface)
		}
		for _, color := range cfg.Palette {
			if _, _, _, ok := chart.RGB(color); !ok {
				return nil, fmt.Errorf("dashboard config: surface %s: invalid color %q", surface, color)
			}
		}
		out[surface] = dashboard.Override{Title: cfg.Title, Palette: chart.Palette(cfg.Palette)}
	}
	return out, nil
}
