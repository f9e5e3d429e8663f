// Package hrmetrics queries HR aggregate metrics through an rpc.Querier and
// caches the company wide results in Redis.
package hrmetrics

import (
	"encoding/json"
	"fmt"
)

// Model is the remote entity serving every dashboard query.
const Model = "hr.employee"

// Remote method names.
const (
	MethodDeptEmployee     = "get_dept_employee"
	MethodDepartmentLeave  = "get_department_leave"
	MethodJoinResignTrends = "join_resign_trends"
	MethodAttritionRate    = "get_attrition_rate"
	MethodLeaveTrend       = "employee_leave_trend"
	MethodEmployeeSkill    = "get_employee_skill"
	MethodCheckUserGroup   = "check_user_group"
	MethodEmployeeDetails  = "get_user_employee_details"
	MethodUpcoming         = "get_upcoming"
	MethodAttendanceManual = "attendance_manual"
	MethodEnsureEmployee   = "ensure_user_employee"
)

// DeptHeadcount is the number of employees in one department.
type DeptHeadcount struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MonthlyLeave holds leave counts per department for one month.
type MonthlyLeave struct {
	Month string             `json:"l_month"`
	Leave map[string]float64 `json:"leave"`
}

// DepartmentLeave is the [rows, department keys] tuple returned by
// get_department_leave.
type DepartmentLeave struct {
	Rows        []MonthlyLeave
	Departments []string
}

// MarshalJSON encodes the tuple form.
func (d DepartmentLeave) MarshalJSON() ([]byte, error) {
	rows := d.Rows
	if rows == nil {
		rows = []MonthlyLeave{}
	}
	depts := d.Departments
	if depts == nil {
		depts = []string{}
	}
	return json.Marshal([]any{rows, depts})
}

// UnmarshalJSON decodes the tuple form. A null payload yields an empty value.
func (d *DepartmentLeave) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("department leave: %w", err)
	}
	if parts == nil {
		*d = DepartmentLeave{}
		return nil
	}
	if len(parts) != 2 {
		return fmt.Errorf("department leave: expected 2 elements, got %d", len(parts))
	}
	var out DepartmentLeave
	if err := json.Unmarshal(parts[0], &out.Rows); err != nil {
		return fmt.Errorf("department leave rows: %w", err)
	}
	if err := json.Unmarshal(parts[1], &out.Departments); err != nil {
		return fmt.Errorf("department leave keys: %w", err)
	}
	*d = out
	return nil
}

// MonthCount is one point of a join/resign series.
type MonthCount struct {
	Month string  `json:"l_month"`
	Count float64 `json:"count"`
}

// TrendSeries is a named monthly series.
type TrendSeries struct {
	Name   string       `json:"name"`
	Values []MonthCount `json:"values"`
}

// AttritionPoint is the attrition rate for one month.
type AttritionPoint struct {
	Month string  `json:"month"`
	Rate  float64 `json:"attrition_rate"`
}

// LeaveTrendPoint is the number of leaves taken by the login employee in one month.
type LeaveTrendPoint struct {
	Month string  `json:"l_month"`
	Leave float64 `json:"leave"`
}

// SkillProgress is the progress of one skill of the login employee.
type SkillProgress struct {
	Skill    string  `json:"skills"`
	Progress float64 `json:"progress"`
}

// Attendance states.
const (
	CheckedIn  = "checked_in"
	CheckedOut = "checked_out"
)

// LinkedEmployee is the employee record bound to a user. Created is true when
// the record was made for the call.
type LinkedEmployee struct {
	ID      int64 `json:"id"`
	Created bool  `json:"created"`
}

// EmployeeDetails describes the login employee.
type EmployeeDetails struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	JobTitle        string  `json:"job_title,omitempty"`
	Department      string  `json:"department,omitempty"`
	AttendanceState string  `json:"attendance_state"`
	LeavesToApprove int     `json:"leaves_to_approve"`
	AllocToApprove  int     `json:"leave_allocations_to_approve"`
	LeavesToday     int     `json:"leaves_today"`
	LeavesThisMonth int     `json:"leaves_this_month"`
	JobApplications int     `json:"job_applications"`
	PayslipCount    int     `json:"payslip_count"`
	TimesheetCount  int     `json:"timesheet_count"`
	ContractCount   int     `json:"contracts_count"`
	BroadFactor     float64 `json:"broad_factor"`
}

// Birthday is an upcoming employee birthday.
type Birthday struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Department string `json:"department,omitempty"`
}

// Event is an upcoming company event.
type Event struct {
	Name     string `json:"name"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Location string `json:"location,omitempty"`
}

// Announcement is a published HR announcement.
type Announcement struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Summary string `json:"summary,omitempty"`
}

// Upcoming groups the items shown beside the charts.
type Upcoming struct {
	Birthdays     []Birthday     `json:"birthday"`
	Events        []Event        `json:"event"`
	Announcements []Announcement `json:"announcement"`
}
