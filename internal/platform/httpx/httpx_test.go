package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: chart", ErrNotFound), http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("%w: no employee", ErrConflict), http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var problem ProblemDetail
		if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if problem.Status != tc.status || problem.Type != "about:blank" {
			t.Fatalf("unexpected problem %+v", problem)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("unexpected content type %q", ct)
		}
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dsn=postgres://secret"))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"cli"}`))
	var body struct {
		Reason string `json:"reason"`
	}
	if err := DecodeJSON(req, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reason != "cli" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reasn":"typo"}`))
	var body struct {
		Reason string `json:"reason"`
	}
	if err := DecodeJSON(req, &body); err == nil {
		t.Fatal("expected unknown field error")
	}
}
