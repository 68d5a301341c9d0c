package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/handler"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository/sqlite"
	"github.com/pathnova/pathnova-api/internal/service"
	"github.com/pathnova/pathnova-api/internal/session"
)

const (
	testFrontend = "http://app.test"
	testSecret   = "handler-test-secret-0123456789"
)

// fakeProvider accepts one code and one ID token and maps both to the same
// identity.
type fakeProvider struct {
	identity model.ExternalIdentity
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (model.ExternalIdentity, error) {
	if code != "good-code" {
		return model.ExternalIdentity{}, apperror.Upstream("google token exchange", nil)
	}
	return p.identity, nil
}

func (p *fakeProvider) VerifyIDToken(_ context.Context, raw string) (model.ExternalIdentity, error) {
	if raw != "good-token" {
		return model.ExternalIdentity{}, apperror.Unauthenticated("invalid google id token")
	}
	return p.identity, nil
}

// countingGenerator returns a small plan and records how often it ran.
type countingGenerator struct {
	calls int
}

func (g *countingGenerator) Generate(_ context.Context, p *model.Profile) (json.RawMessage, error) {
	g.calls++
	return json.RawMessage(fmt.Sprintf(`{"weeks":[],"call":%d}`, g.calls)), nil
}

func (g *countingGenerator) Model() string { return "test-model" }

// testEnv mounts every handler on a router the way the server does, backed
// by an in-memory database.
type testEnv struct {
	db          *sqlite.DB
	tokens      *auth.TokenService
	revocations *session.MemoryStore
	generator   *countingGenerator
	router      chi.Router
}

type envOption func(*envConfig)

type envConfig struct {
	webhookSecret string
}

func withWebhookSecret(s string) envOption {
	return func(c *envConfig) { c.webhookSecret = s }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	revocations := session.NewMemoryStore()
	gen := &countingGenerator{}
	provider := &fakeProvider{identity: model.ExternalIdentity{
		Provider:      "google",
		Subject:       "google-sub-1",
		Email:         "Ada@Example.com",
		EmailVerified: true,
		Name:          "Ada",
	}}

	identity := service.NewIdentityResolver(logger)
	builder := service.NewContextBuilder(db)
	submissions := service.NewSubmissionService(db, identity, logger)
	plans := service.NewPlanService(db, builder, gen, logger)
	authService := service.NewAuthService(db, identity, tokens, revocations, logger, provider)
	guard := auth.NewGuard(tokens, revocations, db.Users(), handler.ErrorWriter(logger), logger)

	webhooks := handler.NewWebhookHandler(submissions, cfg.webhookSecret, logger)
	planHandler := handler.NewPlanHandler(plans, logger)
	authHandler := handler.NewAuthHandler(authService, auth.CookieConfig{}, testFrontend+"/", logger)
	debug := handler.NewDebugHandler(builder, logger)

	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", webhooks.HandleWebhook)
	r.Post("/webhooks/{provider}/", webhooks.HandleWebhook)
	r.With(guard.OptionalAuth).Post("/plan/generate", planHandler.HandleGenerate)
	r.Route("/auth", func(r chi.Router) {
		r.With(guard.RequireAuth).Get("/me", authHandler.HandleMe)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/{provider}", authHandler.HandleLogin)
		r.Get("/{provider}/start", authHandler.HandleStart)
		r.Get("/{provider}/callback", authHandler.HandleCallback)
	})
	r.Get("/debug/latest", debug.HandleLatest)

	return &testEnv{db: db, tokens: tokens, revocations: revocations, generator: gen, router: r}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) post(path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

// login signs in through the ID-token endpoint and returns the session
// cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := e.post("/auth/google", `{"id_token":"good-token"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	c := findCookie(rr, auth.SessionCookie)
	require.NotNil(t, c)
	return c
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(dst), rr.Body.String())
}

// webhookBody builds a form delivery for eventID from answer records.
func webhookBody(eventID string, answers ...string) string {
	return fmt.Sprintf(`{"event_id":%q,"event_type":"form_response","form_response":{"form_id":"form-1","answers":[%s]}}`,
		eventID, strings.Join(answers, ","))
}

func textAnswer(ref, value string) string {
	return fmt.Sprintf(`{"type":"text","text":%q,"field":{"ref":%q}}`, value, ref)
}

func emailAnswer(value string) string {
	return fmt.Sprintf(`{"type":"email","email":%q,"field":{"ref":"email"}}`, value)
}
