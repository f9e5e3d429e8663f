package store

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/rpc"
)

// Backend is the query surface bound to the hr.employee procedures.
type Backend interface {
	DeptEmployee(ctx context.Context) ([]hrmetrics.DeptHeadcount, error)
	DepartmentLeave(ctx context.Context) (hrmetrics.DepartmentLeave, error)
	JoinResignTrends(ctx context.Context) ([]hrmetrics.TrendSeries, error)
	AttritionRate(ctx context.Context) ([]hrmetrics.AttritionPoint, error)
	LeaveTrend(ctx context.Context, employeeID int64) ([]hrmetrics.LeaveTrendPoint, error)
	EmployeeSkill(ctx context.Context, employeeID int64) ([]hrmetrics.SkillProgress, error)
	IsManager(ctx context.Context, userID int64) (bool, error)
	EmployeeDetails(ctx context.Context, userID int64) ([]hrmetrics.EmployeeDetails, error)
	Upcoming(ctx context.Context) (hrmetrics.Upcoming, error)
	AttendanceManual(ctx context.Context, employeeID int64) (bool, error)
	EnsureEmployee(ctx context.Context, userID int64, name string) (hrmetrics.LinkedEmployee, error)
}

var _ Backend = (*Store)(nil)

var (
	errUnauthenticated = &rpc.RemoteError{Code: rpc.CodeUnauthorized, Message: "authentication required"}
	errNoEmployee      = &rpc.RemoteError{Code: rpc.CodeForbidden, Message: ErrNoEmployee.Error()}
)

// Register binds every hr.employee procedure on server to b. Procedures that
// depend on the caller read the identity placed on the context by the bearer
// middleware.
func Register(server *rpc.Server, b Backend) {
	plain := func(fn func(ctx context.Context) (any, error)) rpc.Procedure {
		return func(ctx context.Context, _ rpc.Call) (any, error) { return fn(ctx) }
	}
	server.Register(hrmetrics.Model, hrmetrics.MethodDeptEmployee, plain(func(ctx context.Context) (any, error) {
		return b.DeptEmployee(ctx)
	}))
	server.Register(hrmetrics.Model, hrmetrics.MethodDepartmentLeave, plain(func(ctx context.Context) (any, error) {
		return b.DepartmentLeave(ctx)
	}))
	server.Register(hrmetrics.Model, hrmetrics.MethodJoinResignTrends, plain(func(ctx context.Context) (any, error) {
		return b.JoinResignTrends(ctx)
	}))
	server.Register(hrmetrics.Model, hrmetrics.MethodAttritionRate, plain(func(ctx context.Context) (any, error) {
		return b.AttritionRate(ctx)
	}))
	server.Register(hrmetrics.Model, hrmetrics.MethodUpcoming, plain(func(ctx context.Context) (any, error) {
		return b.Upcoming(ctx)
	}))

	server.Register(hrmetrics.Model, hrmetrics.MethodLeaveTrend, func(ctx context.Context, _ rpc.Call) (any, error) {
		id, err := employee(ctx)
		if err != nil {
			return nil, err
		}
		return b.LeaveTrend(ctx, id.EmployeeID)
	})
	server.Register(hrmetrics.Model, hrmetrics.MethodEmployeeSkill, func(ctx context.Context, _ rpc.Call) (any, error) {
		id, err := employee(ctx)
		if err != nil {
			return nil, err
		}
		return b.EmployeeSkill(ctx, id.EmployeeID)
	})
	server.Register(hrmetrics.Model, hrmetrics.MethodCheckUserGroup, func(ctx context.Context, _ rpc.Call) (any, error) {
		id, ok := auth.FromContext(ctx)
		if !ok {
			return false, nil
		}
		return b.IsManager(ctx, id.UserID)
	})
	server.Register(hrmetrics.Model, hrmetrics.MethodEmployeeDetails, func(ctx context.Context, _ rpc.Call) (any, error) {
		id, ok := auth.FromContext(ctx)
		if !ok {
			return nil, errUnauthenticated
		}
		return b.EmployeeDetails(ctx, id.UserID)
	})
	server.Register(hrmetrics.Model, hrmetrics.MethodAttendanceManual, func(ctx context.Context, call rpc.Call) (any, error) {
		id, err := employee(ctx)
		if err != nil {
			return nil, err
		}
		var args [][]int64
		if err := call.BindArgs(&args); err != nil {
			return nil, err
		}
		if len(args) != 1 || len(args[0]) != 1 {
			return nil, &rpc.RemoteError{Code: rpc.CodeInvalidParams, Message: "attendance_manual expects [[employee_id]]"}
		}
		target := args[0][0]
		if target != id.EmployeeID && !id.Manager {
			return nil, &rpc.RemoteError{Code: rpc.CodeForbidden, Message: fmt.Sprintf("cannot toggle attendance of employee %d", target)}
		}
		return b.AttendanceManual(ctx, target)
	})
	server.Register(hrmetrics.Model, hrmetrics.MethodEnsureEmployee, func(ctx context.Context, _ rpc.Call) (any, error) {
		id, ok := auth.FromContext(ctx)
		if !ok || id.UserID <= 0 {
			return nil, errUnauthenticated
		}
		return b.EnsureEmployee(ctx, id.UserID, id.Name)
	})
}

func employee(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, errUnauthenticated
	}
	if id.EmployeeID == 0 {
		return auth.Identity{}, errNoEmployee
	}
	return id, nil
}
