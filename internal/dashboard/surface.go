package dashboard

import (
	"context"
	"errors"
	"html/template"
	"reflect"
	"sync"

	"github.com/odyssey-erp/hrdash/internal/chart"
)

// Surface ids the dashboard draws onto.
const (
	SurfaceEmployeePie   = "employeePieChart"
	SurfaceLeaveBar      = "leave_barChart"
	SurfaceLeaveDoughnut = "leave_doughnutChart"
	SurfaceJoinResign    = "lineChart"
	SurfaceAttrition     = "attritionRateChart"
	SurfaceLeaveTrend    = "leaveTrendChart"
	SurfaceSkill         = "skillChart"
)

// SurfaceIDs lists every surface in page order.
var SurfaceIDs = []string{
	SurfaceEmployeePie, SurfaceLeaveBar, SurfaceLeaveDoughnut, SurfaceJoinResign,
	SurfaceAttrition, SurfaceLeaveTrend, SurfaceSkill,
}

// ErrMissingSurface is reported when a chart has nowhere to draw.
var ErrMissingSurface = errors.New("dashboard: missing surface")

// Frame is a rendered chart handed to a surface.
type Frame struct {
	Surface string
	Spec    chart.Spec
	SVG     template.HTML
}

// Surface receives rendered frames.
type Surface interface {
	Draw(ctx context.Context, frame Frame) error
}

// Surfaces is the registry of attached drawing surfaces.
type Surfaces struct {
	mu       sync.Mutex
	attached map[string]Surface
	ready    map[string]chan struct{}
}

// NewSurfaces returns an empty registry.
func NewSurfaces() *Surfaces {
	return &Surfaces{attached: make(map[string]Surface), ready: make(map[string]chan struct{})}
}

// Attach binds surface to id and wakes WaitReady callers. A nil surface,
// including a typed nil such as (*Canvas)(nil), is ignored.
func (s *Surfaces) Attach(id string, surface Surface) {
	if isNilSurface(surface) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached[id] = surface
	ch := s.readyLocked(id)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Detach removes id from the registry. Callers already waiting on id stay
// parked until the next Attach.
func (s *Surfaces) Detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attached, id)
	if ch, ok := s.ready[id]; ok {
		select {
		case <-ch:
			delete(s.ready, id)
		default:
		}
	}
}

// Lookup returns the surface bound to id.
func (s *Surfaces) Lookup(id string) (Surface, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	surface, ok := s.attached[id]
	return surface, ok
}

// WaitReady blocks until every id is attached or ctx is done.
func (s *Surfaces) WaitReady(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		s.mu.Lock()
		ch := s.readyLocked(id)
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func isNilSurface(surface Surface) bool {
	if surface == nil {
		return true
	}
	v := reflect.ValueOf(surface)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (s *Surfaces) readyLocked(id string) chan struct{} {
	ch, ok := s.ready[id]
	if !ok {
		ch = make(chan struct{})
		s.ready[id] = ch
	}
	return ch
}

// Canvas is an in-memory surface keeping the last frame drawn on it.
type Canvas struct {
	mu    sync.Mutex
	frame Frame
	drawn bool
}

// Draw implements Surface. Drawing on a nil canvas reports ErrMissingSurface.
func (c *Canvas) Draw(_ context.Context, frame Frame) error {
	if c == nil {
		return ErrMissingSurface
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.drawn = true
	return nil
}

// Frame returns the last frame and whether one was drawn.
func (c *Canvas) Frame() (Frame, bool) {
	if c == nil {
		return Frame{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame, c.drawn
}
