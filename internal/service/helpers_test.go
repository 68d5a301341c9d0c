package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository/sqlite"
	"github.com/pathnova/pathnova-api/internal/typeform"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stepClock returns a clock that advances one second per call, so rows
// written by consecutive operations have distinct timestamps.
func stepClock() func() time.Time {
	t := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func ptr(s string) *string { return &s }

func textAnswer(ref, value string) string {
	return fmt.Sprintf(`{"type":"text","text":%q,"field":{"ref":%q}}`, value, ref)
}

func emailAnswer(value string) string {
	return fmt.Sprintf(`{"type":"email","email":%q,"field":{"ref":"email"}}`, value)
}

func choiceAnswer(ref, label string) string {
	return fmt.Sprintf(`{"type":"choice","choice":{"label":%q},"field":{"ref":%q}}`, label, ref)
}

func choicesAnswer(ref string, labels ...string) string {
	b, _ := json.Marshal(labels)
	return fmt.Sprintf(`{"type":"choices","choices":{"labels":%s},"field":{"ref":%q}}`, b, ref)
}

// delivery builds a parsed webhook payload for eventID carrying answers.
func delivery(t *testing.T, eventID string, answers ...string) *typeform.Payload {
	t.Helper()
	return deliveryWithHidden(t, eventID, nil, answers...)
}

func deliveryWithHidden(t *testing.T, eventID string, hidden map[string]string, answers ...string) *typeform.Payload {
	t.Helper()
	h, err := json.Marshal(hidden)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"event_id":%q,"form_response":{"form_id":"form-1","hidden":%s,"answers":[%s]}}`,
		eventID, h, strings.Join(answers, ","))
	p, err := typeform.ParsePayload([]byte(body))
	require.NoError(t, err)
	return p
}

// countingGenerator records how often it was asked for a plan.
type countingGenerator struct {
	calls   int
	payload string
	err     error
}

func (g *countingGenerator) Generate(_ context.Context, p *model.Profile) (json.RawMessage, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.payload != "" {
		return json.RawMessage(g.payload), nil
	}
	return json.RawMessage(fmt.Sprintf(`{"weeks":[],"call":%d}`, g.calls)), nil
}

func (g *countingGenerator) Model() string { return "test-model" }
