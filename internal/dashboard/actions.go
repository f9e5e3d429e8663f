package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Quick action names.
const (
	ActionAddAttendance   = "add_attendance"
	ActionAddLeave        = "add_leave"
	ActionAddExpense      = "add_expense"
	ActionLeavesToApprove = "leaves_to_approve"
	ActionAllocToApprove  = "leave_allocations_to_approve"
	ActionJobApplications = "job_applications_to_approve"
	ActionLeavesToday     = "leaves_request_today"
	ActionLeavesMonth     = "leaves_request_month"
	ActionPayslips        = "hr_payslip"
	ActionContracts       = "hr_contract"
	ActionTimesheets      = "hr_timesheets"
	ActionBroadFactor     = "employee_broad_factor"
)

const (
	windowAction         = "ir.actions.act_window"
	targetNew            = "new"
	targetCurrent        = "current"
	domainDateTimeFormat = "2006-01-02 15:04:05"
	domainDateFormat     = time.DateOnly
)

// Action errors.
var (
	ErrUnknownAction = errors.New("dashboard: unknown action")
	ErrNotManager    = errors.New("dashboard: action requires the HR manager group")
	ErrNoEmployee    = errors.New("dashboard: no employee linked to the current user")
)

// Condition is one [field, operator, value] domain term.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// MarshalJSON encodes the triple form.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Operator, c.Value})
}

// Views lists view types, encoded as [[false, type], ...].
type Views []string

// MarshalJSON encodes the view pairs.
func (v Views) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(v))
	for i, kind := range v {
		pairs[i] = [2]any{false, kind}
	}
	return json.Marshal(pairs)
}

// Action is a window action descriptor handed to the host.
type Action struct {
	Name     string         `json:"name" validate:"required"`
	Type     string         `json:"type" validate:"required"`
	Entity   string         `json:"res_model" validate:"required"`
	ViewMode string         `json:"view_mode" validate:"required"`
	Views    Views          `json:"views" validate:"min=1"`
	Domain   []Condition    `json:"domain,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
	Target   string         `json:"target" validate:"oneof=new current"`
}

// ActionDispatcher forwards resolved actions to the host.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action Action) error
}

// DispatcherFunc adapts a function to ActionDispatcher.
type DispatcherFunc func(ctx context.Context, action Action) error

// Dispatch implements ActionDispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, action Action) error {
	return f(ctx, action)
}

type actionBuilder func(snap Snapshot, now time.Time) (Action, error)

var actionBuilders = map[string]actionBuilder{
	ActionAddAttendance: func(Snapshot, time.Time) (Action, error) {
		return formAction("Attendances", "hr.attendance"), nil
	},
	ActionAddLeave: func(Snapshot, time.Time) (Action, error) {
		return formAction("Leave Request", "hr.leave"), nil
	},
	ActionAddExpense: func(Snapshot, time.Time) (Action, error) {
		return formAction("Expense", "hr.expense"), nil
	},
	ActionLeavesToApprove: func(Snapshot, time.Time) (Action, error) {
		a := listAction("Leave Request", "hr.leave")
		a.Domain = []Condition{{"state", "in", []string{"confirm", "validate1"}}}
		return a, nil
	},
	ActionAllocToApprove: func(Snapshot, time.Time) (Action, error) {
		a := listAction("Leave Allocation Request", "hr.leave.allocation")
		a.Domain = []Condition{{"state", "in", []string{"confirm", "validate1"}}}
		return a, nil
	},
	ActionJobApplications: func(Snapshot, time.Time) (Action, error) {
		return Action{
			Name:     "Applications",
			Type:     windowAction,
			Entity:   "hr.applicant",
			ViewMode: "tree,kanban,form,pivot,graph,calendar",
			Views:    Views{"list", "kanban", "form", "pivot", "graph", "calendar"},
			Context:  map[string]any{},
			Target:   targetCurrent,
		}, nil
	},
	ActionLeavesToday: func(_ Snapshot, now time.Time) (Action, error) {
		a := listAction("Leaves Today", "hr.leave")
		stamp := now.Format(domainDateTimeFormat)
		a.Domain = []Condition{
			{"date_from", "<=", stamp},
			{"date_to", ">=", stamp},
			{"state", "=", "validate"},
		}
		return a, nil
	},
	ActionLeavesMonth: func(_ Snapshot, now time.Time) (Action, error) {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		a := listAction("This Month Leaves", "hr.leave")
		a.Domain = []Condition{
			{"date_from", ">", first.Format(domainDateFormat)},
			{"state", "=", "validate"},
			{"date_from", "<", last.Format(domainDateFormat)},
		}
		return a, nil
	},
	ActionPayslips: func(snap Snapshot, _ time.Time) (Action, error) {
		id, err := employeeID(snap)
		if err != nil {
			return Action{}, err
		}
		a := listAction("Employee Payslips", "hr.payslip")
		a.Domain = []Condition{{"employee_id", "=", id}}
		return a, nil
	},
	ActionContracts: func(snap Snapshot, _ time.Time) (Action, error) {
		if !snap.Manager {
			return Action{}, ErrNotManager
		}
		id, err := employeeID(snap)
		if err != nil {
			return Action{}, err
		}
		a := listAction("Contracts", "hr.contract")
		a.Context = map[string]any{"search_default_employee_id": id}
		return a, nil
	},
	ActionTimesheets: func(snap Snapshot, _ time.Time) (Action, error) {
		id, err := employeeID(snap)
		if err != nil {
			return Action{}, err
		}
		return Action{
			Name:     "Timesheets",
			Type:     windowAction,
			Entity:   "account.analytic.line",
			ViewMode: "tree,form",
			Views:    Views{"list", "form"},
			Context:  map[string]any{"search_default_month": true},
			Domain:   []Condition{{"employee_id", "=", id}},
			Target:   targetCurrent,
		}, nil
	},
	ActionBroadFactor: func(snap Snapshot, now time.Time) (Action, error) {
		id, err := employeeID(snap)
		if err != nil {
			return Action{}, err
		}
		a := listAction("Leave Request", "hr.leave")
		a.Domain = []Condition{
			{"state", "in", []string{"validate"}},
			{"employee_id", "=", id},
			{"date_to", "<=", now.Format(domainDateTimeFormat)},
		}
		a.Context = map[string]any{"order": "duration_display"}
		return a, nil
	},
}

// ActionNames lists the known quick actions in sorted order.
func ActionNames() []string {
	names := make([]string, 0, len(actionBuilders))
	for name := range actionBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAction builds the descriptor for name against snap at now.
func ResolveAction(name string, snap Snapshot, now time.Time) (Action, error) {
	build, ok := actionBuilders[name]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return build(snap, now)
}

// RunAction resolves name against the current state and dispatches it.
func (c *Controller) RunAction(ctx context.Context, name string) (Action, error) {
	action, err := ResolveAction(name, c.state.Snapshot(), c.now())
	if err != nil {
		return Action{}, err
	}
	if err := c.validate.Struct(action); err != nil {
		return Action{}, fmt.Errorf("dashboard: action %s: %w", name, err)
	}
	if c.dispatcher == nil {
		return action, nil
	}
	if err := c.dispatcher.Dispatch(ctx, action); err != nil {
		return Action{}, fmt.Errorf("dashboard: dispatch %s: %w", name, err)
	}
	return action, nil
}

func formAction(name, entity string) Action {
	return Action{Name: name, Type: windowAction, Entity: entity, ViewMode: "form", Views: Views{"form"}, Target: targetNew}
}

func listAction(name, entity string) Action {
	return Action{Name: name, Type: windowAction, Entity: entity, ViewMode: "tree,form,calendar", Views: Views{"list", "form"}, Target: targetCurrent}
}

func employeeID(snap Snapshot) (int64, error) {
	if snap.Employee == nil {
		return 0, ErrNoEmployee
	}
	return snap.Employee.ID, nil
}
