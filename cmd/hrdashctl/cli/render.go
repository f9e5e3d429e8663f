// Package cli holds the hrdashctl command helpers.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/internal/chart/term"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
)

// RenderResult carries a finished dashboard pass.
type RenderResult struct {
	Report dashboard.Report
	Specs  []chart.Spec
}

// Render runs every chart operation against source and collects the drawn
// specs in surface order.
func Render(ctx context.Context, logger *slog.Logger, source dashboard.Source, opts dashboard.Options) (RenderResult, error) {
	surfaces := dashboard.NewSurfaces()
	canvases := make([]*dashboard.Canvas, len(dashboard.SurfaceIDs))
	for i, id := range dashboard.SurfaceIDs {
		canvases[i] = &dashboard.Canvas{}
		surfaces.Attach(id, canvases[i])
	}
	ctrl := dashboard.NewController(logger, source, nil, surfaces, nil, nil, opts)
	if err := ctrl.Load(ctx); err != nil {
		return RenderResult{}, err
	}
	out := RenderResult{Report: ctrl.RenderAll(ctx)}
	for _, canvas := range canvases {
		if frame, ok := canvas.Frame(); ok {
			out.Specs = append(out.Specs, frame.Spec)
		}
	}
	return out, nil
}

// PrintTerminal writes every drawn chart followed by a status line per failed
// or missing chart.
func PrintTerminal(w io.Writer, result RenderResult, width int) error {
	for _, spec := range result.Specs {
		if err := term.Render(w, spec, width); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, c := range result.Report.Charts {
		if c.Status == dashboard.StatusOK || c.Status == dashboard.StatusEmpty {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s\n", c.Chart, c.Status, c.Error); err != nil {
			return err
		}
	}
	return nil
}
