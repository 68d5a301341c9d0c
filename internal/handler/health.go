package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is satisfied by repository.Database and session.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the dependencies every request needs are
// reachable: the database, and the revocation store the auth guard reads.
type HealthHandler struct {
	db          Pinger
	revocations Pinger
	logger      *slog.Logger
}

// NewHealthHandler creates a HealthHandler. revocations may be nil.
func NewHealthHandler(db, revocations Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, revocations: revocations, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
	Failed string `json:"failed,omitempty"`
}

// HandleRoot answers GET /.
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "running"})
}

// HandleHealth answers GET /healthz. It responds 503 and names the first
// failing dependency while the database or the session store is
// unreachable, so a load balancer stops routing to an instance that would
// fail every authenticated request.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := []struct {
		name string
		p    Pinger
	}{
		{"database", h.db},
		{"session_store", h.revocations},
	}
	for _, c := range checks {
		if c.p == nil {
			continue
		}
		if err := c.p.Ping(ctx); err != nil {
			h.logger.Error("health check failed",
				slog.String("dependency", c.name),
				slog.String("error", err.Error()),
			)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: c.name})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
