package dashboard

import (
	"context"

	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/internal/chart/svg"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
)

// Source is the aggregate query surface the dashboard reads from.
type Source interface {
	DeptEmployee(ctx context.Context) ([]hrmetrics.DeptHeadcount, error)
	DepartmentLeave(ctx context.Context) (hrmetrics.DepartmentLeave, error)
	JoinResignTrends(ctx context.Context) ([]hrmetrics.TrendSeries, error)
	AttritionRate(ctx context.Context) ([]hrmetrics.AttritionPoint, error)
	LeaveTrend(ctx context.Context) ([]hrmetrics.LeaveTrendPoint, error)
	EmployeeSkill(ctx context.Context) ([]hrmetrics.SkillProgress, error)
	IsManager(ctx context.Context) (bool, error)
	EmployeeDetails(ctx context.Context) (*hrmetrics.EmployeeDetails, error)
	Upcoming(ctx context.Context) (hrmetrics.Upcoming, error)
	AttendanceManual(ctx context.Context, employeeID int64) (bool, error)
}

var _ Source = (*hrmetrics.Service)(nil)

// Chart operation names.
const (
	ChartDepartmentEmployee = "department_employee"
	ChartLeaveGraph         = "leave_graph"
	ChartJoinResignTrends   = "join_resign_trends"
	ChartMonthlyAttrition   = "monthly_attrition"
	ChartLeaveTrend         = "leave_trend"
	ChartEmployeeSkill      = "employee_skill"
)

// Override replaces the title or palette of the chart drawn on one surface.
type Override struct {
	Title   string
	Palette chart.Palette
}

// Overrides is keyed by surface id.
type Overrides map[string]Override

func (o Overrides) title(surface, fallback string) string {
	if v, ok := o[surface]; ok && v.Title != "" {
		return v.Title
	}
	return fallback
}

func (o Overrides) palette(surface string, fallback chart.Palette) chart.Palette {
	if v, ok := o[surface]; ok {
		return v.Palette.Or(fallback)
	}
	return fallback
}

type plot struct {
	surface string
	spec    chart.Spec
	opts    svg.Opts
}

type operation struct {
	name     string
	surfaces []string
	build    func(ctx context.Context) ([]plot, error)
}

func (c *Controller) operations() []operation {
	o := c.opts.Overrides
	return []operation{
		{
			name:     ChartDepartmentEmployee,
			surfaces: []string{SurfaceEmployeePie},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.DeptEmployee(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]chart.CategoryRow, len(data))
				for i, d := range data {
					rows[i] = chart.CategoryRow{Label: d.Label, Value: d.Value}
				}
				spec := chart.BuildCategorical(chart.KindPie, "Employees", rows, o.palette(SurfaceEmployeePie, chart.Categorical))
				spec.Title = o.title(SurfaceEmployeePie, "Employees by Department")
				opts := svg.Opts{}
				if len(spec.Series) > 0 {
					opts.Tooltip = chart.ShareTooltip(spec.Series[0].Values)
				}
				return []plot{{surface: SurfaceEmployeePie, spec: spec, opts: opts}}, nil
			},
		},
		{
			name:     ChartLeaveGraph,
			surfaces: []string{SurfaceLeaveBar, SurfaceLeaveDoughnut},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.DepartmentLeave(ctx)
				if err != nil {
					return nil, err
				}
				tab := BuildLeaveTab(data, o.palette(SurfaceLeaveBar, chart.LeaveTotals), o.palette(SurfaceLeaveDoughnut, chart.LeaveShare))
				tab.ByPeriod.Title = o.title(SurfaceLeaveBar, "Leaves per Month")
				tab.ByDimension.Title = o.title(SurfaceLeaveDoughnut, "Leaves per Department")
				return []plot{
					{surface: SurfaceLeaveBar, spec: tab.ByPeriod, opts: svg.Opts{Tooltip: chart.PrefixTooltip("Total")}},
					{surface: SurfaceLeaveDoughnut, spec: tab.ByDimension, opts: svg.Opts{Tooltip: chart.LabelTooltip()}},
				}, nil
			},
		},
		{
			name:     ChartJoinResignTrends,
			surfaces: []string{SurfaceJoinResign},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.JoinResignTrends(ctx)
				if err != nil {
					return nil, err
				}
				series := make([]chart.TimeSeries, len(data))
				for i, ts := range data {
					points := make([]chart.PeriodValue, len(ts.Values))
					for j, v := range ts.Values {
						points[j] = chart.PeriodValue{Period: v.Month, Value: v.Count}
					}
					series[i] = chart.TimeSeries{Name: ts.Name, Points: points}
				}
				spec := chart.BuildTimeSeries(chart.KindLine, series, o.palette(SurfaceJoinResign, chart.Categorical))
				spec.Title = o.title(SurfaceJoinResign, "Join / Resign Trends")
				return []plot{{surface: SurfaceJoinResign, spec: spec, opts: svg.Opts{XTitle: "Month", YTitle: "Count"}}}, nil
			},
		},
		{
			name:     ChartMonthlyAttrition,
			surfaces: []string{SurfaceAttrition},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.AttritionRate(ctx)
				if err != nil {
					return nil, err
				}
				points := make([]chart.PeriodValue, len(data))
				for i, p := range data {
					points[i] = chart.PeriodValue{Period: p.Month, Value: p.Rate}
				}
				spec := timeSeries(chart.KindLine, "Attrition Rate", points, o.palette(SurfaceAttrition, chart.Attrition))
				spec.Title = o.title(SurfaceAttrition, "Monthly Attrition Rate")
				return []plot{{surface: SurfaceAttrition, spec: spec, opts: svg.Opts{ShowDots: true}}}, nil
			},
		},
		{
			name:     ChartLeaveTrend,
			surfaces: []string{SurfaceLeaveTrend},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.LeaveTrend(ctx)
				if err != nil {
					return nil, err
				}
				points := make([]chart.PeriodValue, len(data))
				for i, p := range data {
					points[i] = chart.PeriodValue{Period: p.Month, Value: p.Leave}
				}
				spec := timeSeries(chart.KindLine, "Leaves Taken", points, o.palette(SurfaceLeaveTrend, chart.LeaveTrend))
				spec.Title = o.title(SurfaceLeaveTrend, "Leave Trend")
				return []plot{{surface: SurfaceLeaveTrend, spec: spec, opts: svg.Opts{
					ShowDots: true,
					Fill:     true,
					XTitle:   "Month",
					YTitle:   "Number of Leaves",
					Tooltip:  chart.PrefixTooltip("Leaves"),
				}}}, nil
			},
		},
		{
			name:     ChartEmployeeSkill,
			surfaces: []string{SurfaceSkill},
			build: func(ctx context.Context) ([]plot, error) {
				data, err := c.source.EmployeeSkill(ctx)
				if err != nil {
					return nil, err
				}
				rows := make([]chart.CategoryRow, len(data))
				for i, s := range data {
					rows[i] = chart.CategoryRow{Label: s.Skill, Value: s.Progress}
				}
				spec := chart.BuildCategorical(chart.KindPolarArea, "Skill", rows, o.palette(SurfaceSkill, chart.Skills))
				spec.Title = o.title(SurfaceSkill, "Skills")
				return []plot{{surface: SurfaceSkill, spec: spec, opts: svg.Opts{Tooltip: chart.PrefixTooltip("Skill")}}}, nil
			},
		},
	}
}

// BuildLeaveTab turns the department leave tuple into the per-month bar and
// per-department doughnut specs.
func BuildLeaveTab(data hrmetrics.DepartmentLeave, monthPalette, deptPalette chart.Palette) chart.CrossTab {
	rows := make([]chart.CrossTabRow, len(data.Rows))
	for i, r := range data.Rows {
		rows[i] = chart.CrossTabRow{Period: r.Month, Counts: r.Leave}
	}
	return chart.BuildCrossTabulated(rows, data.Departments, monthPalette, deptPalette)
}

func timeSeries(kind chart.Kind, name string, points []chart.PeriodValue, palette chart.Palette) chart.Spec {
	if len(points) == 0 {
		return chart.BuildTimeSeries(kind, nil, palette)
	}
	return chart.BuildTimeSeries(kind, []chart.TimeSeries{{Name: name, Points: points}}, palette)
}
