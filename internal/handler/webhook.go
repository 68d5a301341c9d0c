package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/service"
	"github.com/pathnova/pathnova-api/internal/typeform"
)

// ProviderTypeform is the only webhook source.
const ProviderTypeform = "typeform"

// maxWebhookBytes is generous for a form delivery that includes every answer.
const maxWebhookBytes = 2 << 20

// WebhookHandler receives form-submission deliveries.
type WebhookHandler struct {
	submissions *service.SubmissionService
	secret      []byte
	logger      *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. With an empty secret,
// signatures are not checked.
func NewWebhookHandler(submissions *service.SubmissionService, secret string, logger *slog.Logger) *WebhookHandler {
	h := &WebhookHandler{submissions: submissions, logger: logger}
	if secret != "" {
		h.secret = []byte(secret)
	}
	return h
}

type webhookResponse struct {
	OK           bool    `json:"ok"`
	Created      bool    `json:"created"`
	Updated      bool    `json:"updated"`
	SubmissionID string  `json:"submission_id"`
	UserID       *string `json:"user_id,omitempty"`
}

// HandleWebhook ingests one delivery.
//
// HTTP: POST /webhooks/{provider}
//
// Redelivery of the same submission id updates the stored row and answers
// with "updated": true, so the sender's retries are harmless.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(chi.URLParam(r, "provider"))
	if provider != ProviderTypeform {
		writeError(w, h.logger, apperror.NotFound("webhook provider", provider))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "request body too large or unreadable"))
		return
	}

	if h.secret != nil {
		if err := typeform.VerifySignature(h.secret, body, r.Header.Get(typeform.SignatureHeader)); err != nil {
			h.logger.Warn("webhook signature rejected",
				slog.String("provider", provider),
				slog.String("reason", err.Error()),
			)
			msg := "invalid signature"
			if errors.Is(err, typeform.ErrMissingSignature) {
				msg = "missing signature"
			}
			writeError(w, h.logger, apperror.Unauthenticated(msg))
			return
		}
	}

	payload, err := typeform.ParsePayload(body)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "payload is not valid JSON"))
		return
	}

	res, err := h.submissions.Ingest(r.Context(), payload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		OK:           true,
		Created:      res.Created,
		Updated:      res.Updated,
		SubmissionID: res.SubmissionID,
		UserID:       res.UserID,
	})
}
