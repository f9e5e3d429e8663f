package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/internal/chart/svg"
	"github.com/odyssey-erp/hrdash/internal/events"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/rpc"
)

// Status is the outcome of one chart operation.
type Status string

// Chart statuses.
const (
	StatusOK             Status = "ok"
	StatusEmpty          Status = "empty"
	StatusMissingSurface Status = "missing_surface"
	StatusFailed         Status = "failed"
)

// ChartReport describes how one chart operation finished.
type ChartReport struct {
	Chart    string       `json:"chart"`
	Surfaces []string     `json:"surfaces"`
	Status   Status       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Specs    []chart.Spec `json:"specs,omitempty"`
}

// Report collects the chart reports of one RenderAll pass in operation order.
type Report struct {
	Charts []ChartReport `json:"charts"`
}

// Find returns the report of the named chart.
func (r Report) Find(name string) (ChartReport, bool) {
	for _, c := range r.Charts {
		if c.Chart == name {
			return c, true
		}
	}
	return ChartReport{}, false
}

// Options configures a Controller.
type Options struct {
	// SettleDelay, when positive, delays rendering by a fixed duration instead
	// of waiting for surfaces to attach.
	SettleDelay time.Duration
	// SurfaceWait bounds how long RenderAll waits for surfaces to attach.
	SurfaceWait time.Duration
	Width       int
	Height      int
	Overrides   Overrides
}

// Controller runs the dashboard chart operations.
type Controller struct {
	logger     *slog.Logger
	source     Source
	state      *State
	surfaces   *Surfaces
	bus        events.Bus
	dispatcher ActionDispatcher
	validate   *validator.Validate
	opts       Options
	now        func() time.Time
}

// NewController wires a dashboard controller. bus and dispatcher may be nil.
func NewController(logger *slog.Logger, source Source, state *State, surfaces *Surfaces, bus events.Bus, dispatcher ActionDispatcher, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if state == nil {
		state = NewState()
	}
	if opts.Width <= 0 {
		opts.Width = svg.DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = svg.DefaultHeight
	}
	return &Controller{
		logger:     logger,
		source:     source,
		state:      state,
		surfaces:   surfaces,
		bus:        bus,
		dispatcher: dispatcher,
		validate:   validator.New(),
		opts:       opts,
		now:        time.Now,
	}
}

// WithNow overrides the controller clock for testing.
func (c *Controller) WithNow(fn func() time.Time) {
	if fn != nil {
		c.now = fn
	}
}

// State exposes the controller state.
func (c *Controller) State() *State {
	return c.state
}

// Load resolves the manager flag, the login employee and the upcoming items.
func (c *Controller) Load(ctx context.Context) error {
	var manager bool
	var employee *hrmetrics.EmployeeDetails
	var upcoming hrmetrics.Upcoming
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.source.IsManager(gctx)
		manager = v
		return err
	})
	g.Go(func() error {
		v, err := c.source.EmployeeDetails(gctx)
		employee = v
		return err
	})
	g.Go(func() error {
		v, err := c.source.Upcoming(gctx)
		upcoming = v
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("dashboard: load: %w", err)
	}
	c.state.set(manager, employee, upcoming)
	return nil
}

// Bind renders every chart once host has mounted. The report is delivered on
// the returned channel.
func (c *Controller) Bind(ctx context.Context, host *Host) <-chan Report {
	out := make(chan Report, 1)
	host.OnMounted(func() {
		go func() { out <- c.RenderAll(ctx) }()
	})
	return out
}

// RenderAll runs the six chart operations concurrently. A failing operation is
// logged and reported without affecting the others.
func (c *Controller) RenderAll(ctx context.Context) Report {
	c.settle(ctx)

	ops := c.operations()
	reports := make([]ChartReport, len(ops))
	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			reports[i] = c.run(ctx, op)
			return nil
		})
	}
	_ = g.Wait()
	return Report{Charts: reports}
}

func (c *Controller) settle(ctx context.Context) {
	if c.opts.SettleDelay > 0 {
		timer := time.NewTimer(c.opts.SettleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return
	}
	if c.opts.SurfaceWait <= 0 || c.surfaces == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, c.opts.SurfaceWait)
	defer cancel()
	if err := c.surfaces.WaitReady(wctx, SurfaceIDs...); err != nil {
		c.logger.Debug("dashboard surfaces not all attached", slog.Any("error", err))
	}
}

func (c *Controller) run(ctx context.Context, op operation) (report ChartReport) {
	report = ChartReport{Chart: op.name, Surfaces: op.surfaces}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("dashboard chart panicked", slog.String("chart", op.name), slog.Any("panic", r))
			report.Status = StatusFailed
			report.Error = fmt.Sprint(r)
		}
	}()

	targets, missing := c.resolve(op.surfaces)
	if len(missing) > 0 {
		c.logger.Warn("dashboard surface missing",
			slog.String("chart", op.name),
			slog.String("surface", strings.Join(missing, ",")))
		report.Status = StatusMissingSurface
		report.Error = fmt.Sprintf("%v: %s", ErrMissingSurface, strings.Join(missing, ","))
		return report
	}

	plots, err := op.build(ctx)
	if err != nil {
		return c.fail(report, err)
	}
	report.Status = StatusEmpty
	for i, p := range plots {
		report.Specs = append(report.Specs, p.spec)
		if !p.spec.Empty() {
			report.Status = StatusOK
		}
		html, err := svg.Render(c.opts.Width, c.opts.Height, p.spec, p.opts)
		if err != nil {
			return c.fail(report, fmt.Errorf("render %s: %w", p.surface, err))
		}
		if err := targets[i].Draw(ctx, Frame{Surface: p.surface, Spec: p.spec, SVG: html}); err != nil {
			return c.fail(report, fmt.Errorf("draw %s: %w", p.surface, err))
		}
	}
	return report
}

func (c *Controller) resolve(ids []string) ([]Surface, []string) {
	targets := make([]Surface, len(ids))
	var missing []string
	for i, id := range ids {
		var surface Surface
		ok := false
		if c.surfaces != nil {
			surface, ok = c.surfaces.Lookup(id)
		}
		if !ok || isNilSurface(surface) {
			missing = append(missing, id)
			continue
		}
		targets[i] = surface
	}
	return targets, missing
}

func (c *Controller) fail(report ChartReport, err error) ChartReport {
	attrs := []any{slog.String("chart", report.Chart), slog.Any("error", err)}
	var remote *rpc.RemoteError
	switch {
	case errors.Is(err, rpc.ErrTransport):
		c.logger.Error("dashboard chart transport failure", attrs...)
	case errors.As(err, &remote):
		c.logger.Error("dashboard chart remote error", append(attrs, slog.Int("code", remote.Code))...)
	default:
		c.logger.Error("dashboard chart failed", attrs...)
	}
	report.Status = StatusFailed
	report.Error = err.Error()
	return report
}
