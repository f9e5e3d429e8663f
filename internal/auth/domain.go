package auth

import "context"

// Identity is the authenticated caller of the dashboard and RPC endpoints.
type Identity struct {
	UserID     int64
	EmployeeID int64
	Name       string
	Manager    bool
}

type ctxKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored on ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
