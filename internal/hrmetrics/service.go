package hrmetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/rpc"
)

// Service coordinates aggregate query execution with the cache layer.
type Service struct {
	querier rpc.Querier
	cache   *Cache
}

// NewService wires a Querier with a Cache helper. A nil cache disables caching.
func NewService(querier rpc.Querier, cache *Cache) *Service {
	return &Service{querier: querier, cache: cache}
}

// DeptEmployee returns the headcount per department.
func (s *Service) DeptEmployee(ctx context.Context) ([]DeptHeadcount, error) {
	var rows []DeptHeadcount
	err := s.cached(ctx, MethodDeptEmployee, companyScope, &rows)
	return rows, err
}

// DepartmentLeave returns monthly leave counts per department.
func (s *Service) DepartmentLeave(ctx context.Context) (DepartmentLeave, error) {
	var out DepartmentLeave
	err := s.cached(ctx, MethodDepartmentLeave, companyScope, &out)
	return out, err
}

// JoinResignTrends returns the monthly join and resign series.
func (s *Service) JoinResignTrends(ctx context.Context) ([]TrendSeries, error) {
	var out []TrendSeries
	err := s.cached(ctx, MethodJoinResignTrends, companyScope, &out)
	return out, err
}

// AttritionRate returns the monthly attrition rate.
func (s *Service) AttritionRate(ctx context.Context) ([]AttritionPoint, error) {
	var out []AttritionPoint
	err := s.cached(ctx, MethodAttritionRate, companyScope, &out)
	return out, err
}

// LeaveTrend returns the monthly leaves of the login employee.
func (s *Service) LeaveTrend(ctx context.Context) ([]LeaveTrendPoint, error) {
	var out []LeaveTrendPoint
	err := s.cached(ctx, MethodLeaveTrend, employeeScope(ctx), &out)
	return out, err
}

// EmployeeSkill returns the skill progress of the login employee.
func (s *Service) EmployeeSkill(ctx context.Context) ([]SkillProgress, error) {
	var out []SkillProgress
	err := s.cached(ctx, MethodEmployeeSkill, employeeScope(ctx), &out)
	return out, err
}

// IsManager reports whether the caller belongs to the HR manager group.
func (s *Service) IsManager(ctx context.Context) (bool, error) {
	var manager bool
	if err := s.querier.Call(ctx, Model, MethodCheckUserGroup, nil, &manager); err != nil {
		return false, fmt.Errorf("hrmetrics: %s: %w", MethodCheckUserGroup, err)
	}
	return manager, nil
}

// EmployeeDetails returns the employee linked to the caller, or nil when the
// caller has no employee record.
func (s *Service) EmployeeDetails(ctx context.Context) (*EmployeeDetails, error) {
	var rows []EmployeeDetails
	if err := s.querier.Call(ctx, Model, MethodEmployeeDetails, nil, &rows); err != nil {
		return nil, fmt.Errorf("hrmetrics: %s: %w", MethodEmployeeDetails, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Upcoming returns birthdays, events and announcements.
func (s *Service) Upcoming(ctx context.Context) (Upcoming, error) {
	var out Upcoming
	if err := s.querier.Call(ctx, Model, MethodUpcoming, nil, &out); err != nil {
		return Upcoming{}, fmt.Errorf("hrmetrics: %s: %w", MethodUpcoming, err)
	}
	return out, nil
}

// AttendanceManual toggles the attendance of employeeID and reports success.
func (s *Service) AttendanceManual(ctx context.Context, employeeID int64) (bool, error) {
	var ok bool
	args := []any{[]int64{employeeID}}
	if err := s.querier.Call(ctx, Model, MethodAttendanceManual, args, &ok); err != nil {
		return false, fmt.Errorf("hrmetrics: %s: %w", MethodAttendanceManual, err)
	}
	return ok, nil
}

// EnsureEmployee links the caller to an employee record, creating it on first
// use.
func (s *Service) EnsureEmployee(ctx context.Context) (LinkedEmployee, error) {
	var out LinkedEmployee
	if err := s.querier.Call(ctx, Model, MethodEnsureEmployee, nil, &out); err != nil {
		return LinkedEmployee{}, fmt.Errorf("hrmetrics: %s: %w", MethodEnsureEmployee, err)
	}
	return out, nil
}

// Warm pre-populates the cache with the company wide aggregates.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.DeptEmployee(ctx); err != nil {
		return err
	}
	if _, err := s.DepartmentLeave(ctx); err != nil {
		return err
	}
	if _, err := s.JoinResignTrends(ctx); err != nil {
		return err
	}
	_, err := s.AttritionRate(ctx)
	return err
}

// Bump invalidates every cached aggregate.
func (s *Service) Bump(ctx context.Context) (int64, error) {
	return s.cache.Bump(ctx)
}

const companyScope = "company"

func employeeScope(ctx context.Context) string {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "employee:-"
	}
	return "employee:" + strconv.FormatInt(id.EmployeeID, 10)
}

func (s *Service) cached(ctx context.Context, method, scope string, dest any) error {
	loader := func(ctx context.Context) (any, error) {
		var raw json.RawMessage
		if err := s.querier.Call(ctx, Model, method, nil, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	if err := s.cache.Fetch(ctx, dest, loader, method, scope); err != nil {
		return fmt.Errorf("hrmetrics: %s: %w", method, err)
	}
	return nil
}
