package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, "method=GET") {
		t.Fatalf("expected method in log, got %q", out)
	}
	if !strings.Contains(out, "path=/events") {
		t.Fatalf("expected path in log, got %q", out)
	}
	if !strings.Contains(out, "status=201") {
		t.Fatalf("expected status in log, got %q", out)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, "status=200") {
		t.Fatalf("expected default status 200 in log, got %q", out)
	}
	if !strings.Contains(out, "request_id=req-1") {
		t.Fatalf("expected propagated request id in log, got %q", out)
	}
	if got := rec.Header().Get(requestIDHeader); got != "req-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		caller         string
		limiter        *stubLimiter
		expectedStatus int
		expectedKeys   int
	}{
		{name: "allowed", method: http.MethodPost, caller: "alice", limiter: &stubLimiter{allow: true}, expectedStatus: http.StatusTeapot, expectedKeys: 1},
		{name: "limited", method: http.MethodPost, caller: "alice", limiter: &stubLimiter{}, expectedStatus: http.StatusTooManyRequests, expectedKeys: 1},
		{name: "limiter error fails open", method: http.MethodPost, caller: "alice", limiter: &stubLimiter{err: errors.New("down")}, expectedStatus: http.StatusTeapot, expectedKeys: 1},
		{name: "reads are not limited", method: http.MethodGet, caller: "alice", limiter: &stubLimiter{}, expectedStatus: http.StatusTeapot},
		{name: "anonymous passes through", method: http.MethodPost, limiter: &stubLimiter{}, expectedStatus: http.StatusTeapot},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
			logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

			req := httptest.NewRequest(tt.method, "/events/x/tickets", nil)
			if tt.caller != "" {
				req.Header.Set(callerIdentityHeader, tt.caller)
			}
			rec := httptest.NewRecorder()

			RateLimit(tt.limiter, logger, next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if len(tt.limiter.keys) != tt.expectedKeys {
				t.Fatalf("expected %d limiter calls, got %d", tt.expectedKeys, len(tt.limiter.keys))
			}
			if tt.expectedStatus == http.StatusTooManyRequests && !strings.Contains(rec.Body.String(), codeRateLimited) {
				t.Fatalf("expected %s code, got %q", codeRateLimited, rec.Body.String())
			}
		})
	}
}
