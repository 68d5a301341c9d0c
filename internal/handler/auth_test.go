package handler_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/handler"
)

type userResult struct {
	ID    string  `json:"id"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("id token", func(t *testing.T) {
		rr := env.post("/auth/google", `{"id_token":"good-token"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			OK   bool       `json:"ok"`
			User userResult `json:"user"`
		}
		decode(t, rr, &resp)
		assert.True(t, resp.OK)
		require.NotNil(t, resp.User.Email)
		assert.Equal(t, "ada@example.com", *resp.User.Email)

		c := findCookie(rr, auth.SessionCookie)
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Positive(t, c.MaxAge)

		claims, err := env.tokens.Validate(c.Value)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
	})

	t.Run("code", func(t *testing.T) {
		rr := env.post("/auth/google", `{"code":"good-code"}`)
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"rejected id token", "/auth/google", `{"id_token":"forged"}`, http.StatusUnauthorized},
		{"failed code exchange", "/auth/google", `{"code":"bad-code"}`, http.StatusBadGateway},
		{"no credential", "/auth/google", `{}`, http.StatusBadRequest},
		{"unknown provider", "/auth/github", `{"id_token":"good-token"}`, http.StatusNotFound},
		{"unknown provider without credential", "/auth/github", `{}`, http.StatusNotFound},
		{"unknown provider with malformed body", "/auth/github", `{"id_token":`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.post(tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.Nil(t, findCookie(rr, auth.SessionCookie))
		})
	}
}

func TestHandleMe(t *testing.T) {
	env := newTestEnv(t)

	t.Run("without a session", func(t *testing.T) {
		rr := env.get("/auth/me")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var resp handler.ErrorResponse
		decode(t, rr, &resp)
		assert.Equal(t, "unauthenticated", resp.Error)
		assert.Equal(t, "valid session required", resp.Message)
	})

	t.Run("tampered session", func(t *testing.T) {
		session := env.login(t)
		forged := &http.Cookie{Name: session.Name, Value: session.Value + "x"}
		rr := env.get("/auth/me", forged)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		var resp handler.ErrorResponse
		decode(t, rr, &resp)
		assert.Equal(t, "unauthenticated", resp.Error)
	})

	t.Run("signed in", func(t *testing.T) {
		session := env.login(t)
		claims, err := env.tokens.Validate(session.Value)
		require.NoError(t, err)

		rr := env.get("/auth/me", session)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var me struct {
			userResult
			SessionExpiresAt time.Time `json:"session_expires_at"`
		}
		decode(t, rr, &me)
		assert.Equal(t, claims.UserID, me.ID)
		require.NotNil(t, me.Name)
		assert.Equal(t, "Ada", *me.Name)
		assert.WithinDuration(t, claims.ExpiresAt, me.SessionExpiresAt, time.Second)
	})
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	rr := env.post("/auth/logout", "", session)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	cleared := findCookie(rr, auth.SessionCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The old token is rejected even though it has not expired.
	rr = env.get("/auth/me", session)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	t.Run("without a session", func(t *testing.T) {
		rr := env.post("/auth/logout", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestHandleStart(t *testing.T) {
	env := newTestEnv(t)

	rr := env.get("/auth/google/start")
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	state := findCookie(rr, auth.StateCookie)
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.Equal(t, "/auth", state.Path)
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example", loc.Host)
	assert.Equal(t, state.Value, loc.Query().Get("state"))

	t.Run("unknown provider", func(t *testing.T) {
		rr := env.get("/auth/github/start")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleCallback(t *testing.T) {
	stateCookie := &http.Cookie{Name: auth.StateCookie, Value: "state-123"}

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.get("/auth/google/callback?code=good-code&state=state-123", stateCookie)

		require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
		assert.Equal(t, testFrontend+"/plan", rr.Header().Get("Location"))

		session := findCookie(rr, auth.SessionCookie)
		require.NotNil(t, session)
		assert.NotEmpty(t, session.Value)

		cleared := findCookie(rr, auth.StateCookie)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("consent denied", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.get("/auth/google/callback?error=access_denied&state=state-123", stateCookie)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, testFrontend+"/?auth=denied", rr.Header().Get("Location"))
		assert.Nil(t, findCookie(rr, auth.SessionCookie))
	})

	t.Run("failed exchange", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.get("/auth/google/callback?code=bad-code&state=state-123", stateCookie)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, testFrontend+"/?auth=failed", rr.Header().Get("Location"))
		assert.Nil(t, findCookie(rr, auth.SessionCookie))
	})

	tests := []struct {
		name       string
		path       string
		cookie     *http.Cookie
		wantStatus int
		wantField  string
	}{
		{"missing state cookie", "/auth/google/callback?code=good-code&state=state-123", nil, http.StatusBadRequest, "state"},
		{"state mismatch", "/auth/google/callback?code=good-code&state=other", stateCookie, http.StatusBadRequest, "state"},
		{"missing code", "/auth/google/callback?state=state-123", stateCookie, http.StatusBadRequest, "code"},
		{"unknown provider", "/auth/github/callback?code=good-code&state=state-123", stateCookie, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rr := env.get(tt.path, cookies...)

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.False(t, strings.HasPrefix(rr.Header().Get("Location"), testFrontend))
			var resp handler.ErrorResponse
			decode(t, rr, &resp)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.Nil(t, findCookie(rr, auth.SessionCookie))
		})
	}
}
