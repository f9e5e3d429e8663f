package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/hrdash/internal/events"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
)

// SignInOut is the payload broadcast on events.TopicSignInOut. Mode is
// "checked_in" or false.
type SignInOut struct {
	Mode any `json:"mode"`
}

// AttendanceResult reports a toggle.
type AttendanceResult struct {
	State   string `json:"attendance_state"`
	Toggled bool   `json:"toggled"`
	Message string `json:"message,omitempty"`
}

// ToggleAttendance flips the login employee between checked_out and
// checked_in, records it remotely and broadcasts the new mode. The local state
// is restored when the remote call fails or reports no change.
func (c *Controller) ToggleAttendance(ctx context.Context) (AttendanceResult, error) {
	id, previous, next, ok := c.state.toggleAttendance()
	if !ok {
		return AttendanceResult{}, ErrNoEmployee
	}

	done, err := c.source.AttendanceManual(ctx, id)
	if err != nil {
		c.state.setAttendance(previous)
		return AttendanceResult{State: previous}, fmt.Errorf("dashboard: toggle attendance: %w", err)
	}
	if !done {
		c.state.setAttendance(previous)
		return AttendanceResult{State: previous}, nil
	}

	var payload SignInOut
	var message string
	switch next {
	case hrmetrics.CheckedIn:
		payload, message = SignInOut{Mode: hrmetrics.CheckedIn}, "Successfully Checked In"
	case hrmetrics.CheckedOut:
		payload, message = SignInOut{Mode: false}, "Successfully Checked Out"
	default:
		return AttendanceResult{State: next, Toggled: true}, nil
	}
	if c.bus != nil {
		if err := c.bus.Publish(ctx, events.TopicSignInOut, payload); err != nil {
			c.logger.Warn("attendance broadcast failed", slog.Int64("employee_id", id), slog.Any("error", err))
		}
	}
	return AttendanceResult{State: next, Toggled: true, Message: message}, nil
}
