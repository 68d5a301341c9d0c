package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/service"
)

// DebugHandler exposes what was last stored for an email. It is only
// mounted when debug routes are enabled.
type DebugHandler struct {
	builder *service.ContextBuilder
	logger  *slog.Logger
}

func NewDebugHandler(builder *service.ContextBuilder, logger *slog.Logger) *DebugHandler {
	return &DebugHandler{builder: builder, logger: logger}
}

type debugLatestResponse struct {
	Found    bool                 `json:"found"`
	Reason   string               `json:"reason,omitempty"`
	Email    string               `json:"email,omitempty"`
	User     *userResponse        `json:"user,omitempty"`
	Response *debugSubmissionView `json:"response,omitempty"`
}

type debugSubmissionView struct {
	SubmissionID string              `json:"submission_id"`
	ReceivedAt   time.Time           `json:"received_at"`
	Answers      json.RawMessage     `json:"answers"`
	Mapped       model.ProfileFields `json:"mapped"`
}

// HandleLatest returns the raw answers and mapped fields of the newest
// submission for ?email=.
//
// HTTP: GET /debug/latest?email=...
func (h *DebugHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	latest, err := h.builder.Latest(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := debugLatestResponse{Found: latest.Submission != nil, Reason: latest.Reason}
	if latest.User == nil {
		resp.Email = model.NormalizeEmail(email)
	} else {
		u := toUserResponse(latest.User)
		resp.User = &u
	}
	if s := latest.Submission; s != nil {
		resp.Response = &debugSubmissionView{
			SubmissionID: s.SubmissionID,
			ReceivedAt:   s.ReceivedAt,
			Answers:      s.Answers,
			Mapped:       s.Fields,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
