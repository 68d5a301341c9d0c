package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/handler"
	"github.com/pathnova/pathnova-api/internal/typeform"
)

type webhookResult struct {
	OK           bool    `json:"ok"`
	Created      bool    `json:"created"`
	Updated      bool    `json:"updated"`
	SubmissionID string  `json:"submission_id"`
	UserID       *string `json:"user_id"`
}

func TestHandleWebhook_CreateThenRedeliver(t *testing.T) {
	env := newTestEnv(t)
	body := webhookBody("evt-1", textAnswer("name", "Ada"), emailAnswer("ada@example.com"))

	rr := env.post("/webhooks/typeform", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first webhookResult
	decode(t, rr, &first)
	assert.True(t, first.OK)
	assert.True(t, first.Created)
	assert.False(t, first.Updated)
	assert.Equal(t, "evt-1", first.SubmissionID)
	require.NotNil(t, first.UserID)

	rr = env.post("/webhooks/typeform", body)
	require.Equal(t, http.StatusOK, rr.Code)
	var second webhookResult
	decode(t, rr, &second)
	assert.False(t, second.Created)
	assert.True(t, second.Updated)
	assert.Equal(t, "evt-1", second.SubmissionID)
	require.NotNil(t, second.UserID)
	assert.Equal(t, *first.UserID, *second.UserID)
}

func TestHandleWebhook_Routing(t *testing.T) {
	env := newTestEnv(t)
	body := webhookBody("evt-2", emailAnswer("b@example.com"))

	t.Run("trailing slash", func(t *testing.T) {
		rr := env.post("/webhooks/typeform/", body)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("provider is case insensitive", func(t *testing.T) {
		rr := env.post("/webhooks/Typeform", body)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		rr := env.post("/webhooks/jotform", body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		var resp handler.ErrorResponse
		decode(t, rr, &resp)
		assert.Equal(t, "not_found", resp.Error)
	})
}

func TestHandleWebhook_RejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"event_id":`},
		{"array body", `[]`},
		{"missing event id and token", `{"form_response":{"form_id":"form-1","answers":[]}}`},
		{"missing form id", `{"event_id":"evt-3","form_response":{"answers":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.post("/webhooks/typeform", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var resp handler.ErrorResponse
			decode(t, rr, &resp)
			assert.Equal(t, "validation_error", resp.Error)
		})
	}
}

func TestHandleWebhook_Signature(t *testing.T) {
	secret := "typeform-signing-secret"
	env := newTestEnv(t, withWebhookSecret(secret))
	body := webhookBody("evt-signed", emailAnswer("c@example.com"))

	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/typeform", bytes.NewBufferString(body))
		if signature != "" {
			req.Header.Set(typeform.SignatureHeader, signature)
		}
		return env.do(req)
	}

	t.Run("missing", func(t *testing.T) {
		rr := send("")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var resp handler.ErrorResponse
		decode(t, rr, &resp)
		assert.Equal(t, "missing signature", resp.Message)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rr := send(typeform.Sign([]byte("some-other-secret"), []byte(body)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var resp handler.ErrorResponse
		decode(t, rr, &resp)
		assert.Equal(t, "invalid signature", resp.Message)
	})

	t.Run("valid", func(t *testing.T) {
		rr := send(typeform.Sign([]byte(secret), []byte(body)))
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})
}

func TestHandleWebhook_NonStringHiddenFields(t *testing.T) {
	env := newTestEnv(t)
	body := `{"event_id":"evt-hidden","form_response":{"form_id":"form-1",` +
		`"hidden":{"email":"Hidden@Example.com","utm_id":42,"ref":null},"answers":[]}}`

	rr := env.post("/webhooks/typeform", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res webhookResult
	decode(t, rr, &res)
	assert.True(t, res.Created)
	require.NotNil(t, res.UserID, "hidden email still identifies the submitter")
}
