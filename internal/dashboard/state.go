// Package dashboard drives the HR dashboard: it loads the login employee
// context, renders the six charts onto attached surfaces and serves the quick
// actions and attendance toggle.
package dashboard

import (
	"sync"

	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
)

// State holds the per-dashboard context resolved before the first render.
type State struct {
	mu       sync.RWMutex
	manager  bool
	employee *hrmetrics.EmployeeDetails
	upcoming hrmetrics.Upcoming
}

// Snapshot is an immutable copy of State.
type Snapshot struct {
	Manager       bool                       `json:"is_manager"`
	Employee      *hrmetrics.EmployeeDetails `json:"login_employee,omitempty"`
	Birthdays     []hrmetrics.Birthday       `json:"employee_birthday"`
	Events        []hrmetrics.Event          `json:"upcoming_events"`
	Announcements []hrmetrics.Announcement   `json:"announcements"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		Manager:       s.manager,
		Birthdays:     append([]hrmetrics.Birthday{}, s.upcoming.Birthdays...),
		Events:        append([]hrmetrics.Event{}, s.upcoming.Events...),
		Announcements: append([]hrmetrics.Announcement{}, s.upcoming.Announcements...),
	}
	if s.employee != nil {
		emp := *s.employee
		out.Employee = &emp
	}
	return out
}

func (s *State) set(manager bool, employee *hrmetrics.EmployeeDetails, upcoming hrmetrics.Upcoming) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager = manager
	s.employee = employee
	s.upcoming = upcoming
}

// toggleAttendance flips the login employee between checked_in and
// checked_out. Any other state is left unchanged. It returns the employee id,
// the state before and after the flip, and false when there is no login
// employee.
func (s *State) toggleAttendance() (id int64, previous, next string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.employee == nil {
		return 0, "", "", false
	}
	previous = s.employee.AttendanceState
	switch previous {
	case hrmetrics.CheckedOut:
		s.employee.AttendanceState = hrmetrics.CheckedIn
	case hrmetrics.CheckedIn:
		s.employee.AttendanceState = hrmetrics.CheckedOut
	}
	return s.employee.ID, previous, s.employee.AttendanceState, true
}

func (s *State) setAttendance(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.employee != nil {
		s.employee.AttendanceState = state
	}
}
