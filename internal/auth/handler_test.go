package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/odyssey-erp/hrdash/internal/auth"
	_ "github.com/odyssey-erp/hrdash/internal/testing/guard"
)

func TestIssueAndParse(t *testing.T) {
	svc := auth.NewService("secret", time.Hour)
	token, err := svc.Issue(auth.Identity{UserID: 2, EmployeeID: 7, Name: "Ana", Manager: true})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != 2 || id.EmployeeID != 7 || !id.Manager || id.Name != "Ana" {
		t.Fatalf("identity mismatch: %+v", id)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := auth.NewService("one", time.Hour).Issue(auth.Identity{UserID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := auth.NewService("two", time.Hour).Parse(token); err != auth.ErrInvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	if _, err := auth.NewService("", time.Hour).Issue(auth.Identity{UserID: 1}); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestMiddlewareRequire(t *testing.T) {
	svc := auth.NewService("secret", time.Hour)
	mw := auth.NewMiddleware(nil, svc)

	var seen auth.Identity
	var forwarded string
	handler := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
		forwarded = auth.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", res.Code)
	}

	token, err := svc.Issue(auth.Identity{UserID: 3, EmployeeID: 9})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if seen.EmployeeID != 9 || forwarded != token {
		t.Fatalf("identity not propagated: %+v %q", seen, forwarded)
	}
}
