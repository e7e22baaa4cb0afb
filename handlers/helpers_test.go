package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fogna/football-stats/repositories"
	"github.com/fogna/football-stats/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrImportEmpty, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: threshold", services.ErrValidationFailed), http.StatusBadRequest},
		{services.ErrOverwriteNeedsSeason, http.StatusBadRequest},
		{fmt.Errorf("%w: a.xls", services.ErrUnsupportedFile), http.StatusBadRequest},
		{services.ErrSeasonRequired, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", repositories.ErrUnknownField), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrArchiveUnavailable, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%v: expected JSON body, got %q", tt.err, ct)
		}
	}
}

func TestServerErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	serverErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestReadJSON(t *testing.T) {
	type input struct {
		Role string `json:"role"`
	}
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"role":"admin"}`, ""},
		{``, "body must not be empty"},
		{`{"role":1}`, "incorrect JSON type"},
		{`{"role":"admin","x":1}`, "unknown key"},
		{`{"role":"admin"}{}`, "single JSON value"},
		{`{"role":`, "badly-formed"},
	}
	for _, tt := range tests {
		var dst input
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		err := readJSON(httptest.NewRecorder(), req, &dst)
		if tt.wantErr == "" {
			if err != nil || dst.Role != "admin" {
				t.Errorf("%q: unexpected result %v %+v", tt.body, err, dst)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%q: expected error containing %q, got %v", tt.body, tt.wantErr, err)
		}
	}
}

func TestParseThreshold(t *testing.T) {
	if v, err := parseThreshold(""); err != nil || v != services.DefaultWinThreshold {
		t.Fatalf("default threshold: %v %v", v, err)
	}
	if v, err := parseThreshold(" 70.5 "); err != nil || v != 70.5 {
		t.Fatalf("explicit threshold: %v %v", v, err)
	}
	for _, raw := range []string{"high", "NaN", "nan", "Inf", "-Inf", "+infinity"} {
		if _, err := parseThreshold(raw); err == nil {
			t.Fatalf("expected error for threshold %q", raw)
		}
	}
}

func TestWebSocketOriginCheck(t *testing.T) {
	h := NewWebSocketHandler(nil, []string{"http://localhost:3000/"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://example.com", true}, // same host as the request
		{"http://evil.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.upgrader.CheckOrigin(req); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
