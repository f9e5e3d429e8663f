package cli

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
)

// EmployeeLinker creates or finds the employee of the identity on ctx.
type EmployeeLinker interface {
	EnsureEmployee(ctx context.Context) (hrmetrics.LinkedEmployee, error)
}

// LinkEmployee fills id.EmployeeID from linker when the identity names a user
// without an employee. The employee is created on first use.
func LinkEmployee(ctx context.Context, linker EmployeeLinker, id auth.Identity) (auth.Identity, hrmetrics.LinkedEmployee, error) {
	if id.UserID <= 0 || id.EmployeeID != 0 {
		return id, hrmetrics.LinkedEmployee{ID: id.EmployeeID}, nil
	}
	linked, err := linker.EnsureEmployee(auth.WithIdentity(ctx, id))
	if err != nil {
		return id, hrmetrics.LinkedEmployee{}, fmt.Errorf("link employee of user %d: %w", id.UserID, err)
	}
	id.EmployeeID = linked.ID
	return id, linked, nil
}
