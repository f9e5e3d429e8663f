package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/hrdash/internal/platform/httpx"
)

// CookieName carries the token for browser sessions without an
// Authorization header.
const CookieName = "hrdash_token"

type tokenKey struct{}

// Middleware resolves bearer tokens into request identities.
type Middleware struct {
	logger  *slog.Logger
	service *Service
}

// NewMiddleware constructs the bearer middleware.
func NewMiddleware(logger *slog.Logger, service *Service) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{logger: logger, service: service}
}

// Require rejects requests without a valid bearer token.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		id, err := m.service.Parse(token)
		if err != nil {
			m.logger.Debug("reject bearer token", slog.Any("error", err))
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
			return
		}
		ctx := WithToken(WithIdentity(r.Context(), id), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithToken stores the raw token forwarded by outgoing RPC calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the raw bearer token of the current request so
// outgoing RPC calls can forward it.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
