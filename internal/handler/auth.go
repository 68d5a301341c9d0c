package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/service"
)

// AuthHandler manages provider sign-in and the session cookie.
//
//   - HandleLogin    → exchange an ID token or code sent by the frontend
//   - HandleStart    → redirect the browser to the provider's consent screen
//   - HandleCallback → receive the code, sign in, redirect to the frontend
//   - HandleMe       → the signed-in user
//   - HandleLogout   → revoke the session and clear the cookie
type AuthHandler struct {
	auth        *service.AuthService
	cookies     auth.CookieConfig
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, cookies auth.CookieConfig, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        authService,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

type loginRequest struct {
	IDToken string `json:"id_token"`
	Code    string `json:"code"`
}

type userResponse struct {
	ID    string  `json:"id"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

type loginResponse struct {
	OK   bool         `json:"ok"`
	User userResponse `json:"user"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// HandleLogin signs in with a credential the frontend obtained itself.
//
// HTTP: POST /auth/{provider}
// Body: {"id_token": "..."} or {"code": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	// An unknown provider is a 404 whatever the body holds.
	if _, err := h.auth.Provider(provider); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var (
		result *service.AuthResult
		err    error
	)
	switch {
	case req.IDToken != "":
		result, err = h.auth.LoginWithIDToken(r.Context(), provider, req.IDToken)
	case req.Code != "":
		result, err = h.auth.LoginWithCode(r.Context(), provider, req.Code)
	default:
		err = apperror.ValidationFailed("id_token", "id_token or code is required")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSession(w, result)
	writeJSON(w, http.StatusOK, loginResponse{OK: true, User: toUserResponse(result.User)})
}

// HandleStart redirects to the provider's consent screen.
//
// HTTP: GET /auth/{provider}/start
//
// A random state goes into a short-lived cookie and the consent URL; the
// callback only proceeds when the two match, which proves this server
// started the flow.
func (h *AuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	state := xid.New().String()
	h.cookies.SetState(w, state)
	http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the authorization-code flow.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// On success the session cookie is set and the browser goes to the plan
// page. A denied consent or failed sign-in sends it back to the frontend
// with an auth=denied or auth=failed marker.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, err := h.auth.Provider(provider); err != nil {
		writeError(w, h.logger, err)
		return
	}

	stateCookie, err := r.Cookie(auth.StateCookie)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	got := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(got), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	// Single use.
	h.cookies.ClearState(w)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: consent denied", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	result, err := h.auth.LoginWithCode(r.Context(), provider, code)
	if err != nil {
		h.logger.Warn("auth callback: sign-in failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.frontendURL+"/?auth=failed", http.StatusSeeOther)
		return
	}

	h.setSession(w, result)
	http.Redirect(w, r, h.frontendURL+"/plan", http.StatusSeeOther)
}

type meResponse struct {
	userResponse
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// HandleMe returns the signed-in user and when the session ends, so the
// frontend can prompt for sign-in before requests start failing.
//
// HTTP: GET /auth/me
// Auth: required (RequireAuth puts the user and claims in the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	claims, hasClaims := auth.ClaimsFromContext(r.Context())
	if !ok || !hasClaims {
		writeError(w, h.logger, apperror.Unauthenticated("valid session required"))
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		userResponse:     toUserResponse(user),
		SessionExpiresAt: claims.ExpiresAt.UTC(),
	})
}

// HandleLogout revokes the presented session and clears the cookie.
//
// HTTP: POST /auth/logout
//
// Session tokens are stateless, so clearing the cookie alone would leave a
// copied token usable until it expires. Its id is therefore added to the
// revocation list, which the auth guard consults on every request.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		token = c.Value
	}
	h.cookies.ClearSession(w)

	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, result *service.AuthResult) {
	h.cookies.SetSession(w, result.Token, time.Until(result.Claims.ExpiresAt))
}
