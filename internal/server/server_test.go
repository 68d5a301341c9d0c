package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/config"
	"github.com/pathnova/pathnova-api/internal/generator"
	"github.com/pathnova/pathnova-api/internal/repository/sqlite"
	"github.com/pathnova/pathnova-api/internal/session"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.JWTSecret = "server-test-secret-0123456789"
	cfg.AllowedOrigins = []string{"http://app.test"}
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)

	srv, err := New(cfg, Deps{
		DB:          db,
		Revocations: session.NewMemoryStore(),
		Generator:   generator.Static{},
		Tokens:      tokens,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(config.Defaults(), Deps{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"webhook", http.MethodPost, "/webhooks/typeform", `{"event_id":"e1","form_response":{"form_id":"f1","answers":[]}}`, http.StatusOK},
		{"webhook trailing slash", http.MethodPost, "/webhooks/typeform/", `{"event_id":"e2","form_response":{"form_id":"f1","answers":[]}}`, http.StatusOK},
		{"plan without identity", http.MethodPost, "/plan/generate", `{}`, http.StatusBadRequest},
		{"me without session", http.MethodGet, "/auth/me", "", http.StatusUnauthorized},
		{"logout without session", http.MethodPost, "/auth/logout", "", http.StatusOK},
		{"unconfigured provider", http.MethodGet, "/auth/google/start", "", http.StatusNotFound},
		{"debug routes off", http.MethodGet, "/debug/latest?email=a@x.com", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/plan/generate", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rr := serve(srv, req)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRoutes_DebugEnabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.DebugRoutes = true })

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/debug/latest?email=a@x.com", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"found":false,"reason":"user_not_found","email":"a@x.com"}`, rr.Body.String())
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/plan/generate", nil)
		req.Header.Set("Origin", "http://app.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")

		rr := serve(srv, req)
		assert.Equal(t, "http://app.test", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.test")

		rr := serve(srv, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
