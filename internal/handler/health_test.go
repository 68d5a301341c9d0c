package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathnova/pathnova-api/internal/handler"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Root(t *testing.T) {
	h := handler.NewHealthHandler(stubPinger{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := httptest.NewRecorder()
	h.HandleRoot(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"running"}`, rr.Body.String())
}

func TestHealthHandler_Health(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	down := stubPinger{err: errors.New("connection refused")}

	tests := []struct {
		name        string
		db          handler.Pinger
		revocations handler.Pinger
		wantStatus  int
		wantBody    string
	}{
		{"all up", stubPinger{}, stubPinger{}, http.StatusOK, `{"status":"ok"}`},
		{"no session store configured", stubPinger{}, nil, http.StatusOK, `{"status":"ok"}`},
		{"database down", down, stubPinger{}, http.StatusServiceUnavailable, `{"status":"unavailable","failed":"database"}`},
		{"session store down", stubPinger{}, down, http.StatusServiceUnavailable, `{"status":"unavailable","failed":"session_store"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.db, tt.revocations, logger)
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
