package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/service"
)

type PlanHandler struct {
	plans  *service.PlanService
	logger *slog.Logger
}

func NewPlanHandler(plans *service.PlanService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, logger: logger}
}

type generatePlanRequest struct {
	Email      string `json:"email"`
	Regenerate bool   `json:"regenerate"`
}

type planResponse struct {
	UserID string          `json:"user_id"`
	Model  string          `json:"model"`
	Plan   json.RawMessage `json:"plan"`
}

// HandleGenerate returns the learning plan for a user, generating one when
// the cached plan is stale or regeneration is requested.
//
// HTTP: POST /plan/generate
// Body: {"email": "...", "regenerate": false}
// Auth: optional; without an email the signed-in user is used.
func (h *PlanHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	lookup := service.Lookup{Email: req.Email}
	if strings.TrimSpace(req.Email) == "" {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeError(w, h.logger, apperror.ValidationFailed("email", "email is required"))
			return
		}
		lookup = service.Lookup{UserID: user.ID}
	}

	res, err := h.plans.Generate(r.Context(), lookup, req.Regenerate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{UserID: res.UserID, Model: res.Model, Plan: res.Plan})
}
