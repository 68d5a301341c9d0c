package auth

import (
	"net/http"
	"time"
)

const (
	SessionCookie = "session"
	StateCookie   = "oauth_state"
	stateMaxAge   = 10 * time.Minute
)

// CookieConfig controls attributes shared by every cookie we set.
type CookieConfig struct {
	Secure bool
}

// SetSession stores the session token with an expiry matching the token's.
func (c CookieConfig) SetSession(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	c.clear(w, SessionCookie, "/")
}

// SetState stores the OAuth state for the callback to compare against.
// Lax (not Strict) so the cookie survives the top-level redirect back from
// the provider.
func (c CookieConfig) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) ClearState(w http.ResponseWriter) {
	c.clear(w, StateCookie, "/auth")
}

func (c CookieConfig) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
