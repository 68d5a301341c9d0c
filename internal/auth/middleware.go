package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// Revocations reports whether a session has been logged out before expiry.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserLookup resolves the user a session names.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// ErrorWriter renders a rejected request. The HTTP layer supplies it so
// that guard failures have the same body as every other API error.
type ErrorWriter func(w http.ResponseWriter, err error)

// Guard authenticates requests from the session cookie.
type Guard struct {
	tokens      *TokenService
	revocations Revocations
	users       UserLookup
	writeError  ErrorWriter
	logger      *slog.Logger
}

func NewGuard(tokens *TokenService, revocations Revocations, users UserLookup, writeError ErrorWriter, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, revocations: revocations, users: users, writeError: writeError, logger: logger}
}

// Authenticate resolves the request's session to a user. Every failure
// (no cookie, bad signature, expired, revoked, user gone) is reported as
// apperror.ErrUnauthenticated, except storage errors which pass through.
func (g *Guard) Authenticate(r *http.Request) (*model.User, Claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, Claims{}, apperror.Unauthenticated("not authenticated")
	}

	claims, err := g.tokens.Validate(cookie.Value)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, Claims{}, apperror.Unauthenticated("session expired")
		}
		return nil, Claims{}, apperror.Unauthenticated("invalid session")
	}

	revoked, err := g.revocations.IsRevoked(r.Context(), claims.TokenID)
	if err != nil {
		return nil, Claims{}, fmt.Errorf("auth: checking revocation: %w", err)
	}
	if revoked {
		return nil, Claims{}, apperror.Unauthenticated("session ended")
	}

	user, err := g.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, Claims{}, apperror.Unauthenticated("user not found")
		}
		return nil, Claims{}, err
	}
	return user, claims, nil
}

// RequireAuth rejects requests without a valid session with 401. The
// specific reason (expired, revoked, ...) is logged at Debug but not
// returned, so a client cannot tell which tokens were once valid.
// Storage failures are passed through and become 500.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := g.Authenticate(r)
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthenticated) {
				g.logger.Debug("session rejected", slog.String("reason", err.Error()))
				err = apperror.Unauthenticated("valid session required")
			}
			g.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, claims)))
	})
}

// OptionalAuth attaches the user when a valid session is present and lets
// every request through.
func (g *Guard) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, claims, err := g.Authenticate(r); err == nil {
			r = r.WithContext(withSession(r.Context(), user, claims))
		}
		next.ServeHTTP(w, r)
	})
}

func withSession(ctx context.Context, user *model.User, claims Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, claimsKey, claims)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// ClaimsFromContext returns the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}
