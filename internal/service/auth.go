package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

// IdentityProvider is an external sign-in provider. auth.GoogleProvider is
// the only one today.
type IdentityProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (model.ExternalIdentity, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (model.ExternalIdentity, error)
}

// Revoker remembers logged-out session ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthService turns verified external identities into sessions.
//
//	AuthHandler (HTTP) → AuthService → IdentityResolver (in one transaction)
//	                                 ↘ TokenService (session JWT)
//
// It does not set cookies or read requests; that stays in the handler.
type AuthService struct {
	db        repository.Database
	identity  *IdentityResolver
	tokens    *auth.TokenService
	revoker   Revoker
	providers map[string]IdentityProvider
	logger    *slog.Logger
}

func NewAuthService(
	db repository.Database,
	identity *IdentityResolver,
	tokens *auth.TokenService,
	revoker Revoker,
	logger *slog.Logger,
	providers ...IdentityProvider,
) *AuthService {
	byName := make(map[string]IdentityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthService{
		db:        db,
		identity:  identity,
		tokens:    tokens,
		revoker:   revoker,
		providers: byName,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued session so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User    *model.User
	Token   string
	Claims  auth.Claims
	Created bool
}

// Provider returns the named provider, or not found when it isn't
// configured.
func (s *AuthService) Provider(name string) (IdentityProvider, error) {
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, apperror.NotFound("auth provider", name)
	}
	return p, nil
}

// LoginWithIDToken signs in with an ID token the browser obtained from the
// provider directly.
func (s *AuthService) LoginWithIDToken(ctx context.Context, provider, rawIDToken string) (*AuthResult, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, apperror.ValidationFailed("id_token", "id_token is required")
	}
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	id, err := p.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, id)
}

// LoginWithCode completes the authorization-code flow.
func (s *AuthService) LoginWithCode(ctx context.Context, provider, code string) (*AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	id, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, id)
}

func (s *AuthService) login(ctx context.Context, id model.ExternalIdentity) (*AuthResult, error) {
	var res Resolution
	attempt := func() error {
		return s.db.WithTx(ctx, func(tx repository.Store) error {
			var err error
			res, err = s.identity.ResolveOAuth(ctx, tx, id)
			return err
		})
	}
	err := attempt()
	if errors.Is(err, apperror.ErrConflict) {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(res.User.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %s: %w", res.User.ID, err)
	}

	s.logger.Info("user signed in",
		slog.String("userID", res.User.ID),
		slog.String("provider", id.Provider),
		slog.Bool("created", res.Created),
	)
	return &AuthResult{User: res.User, Token: token, Claims: claims, Created: res.Created}, nil
}

// Logout revokes the presented session until it would have expired. A
// token that does not verify needs no revoking, so it is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	s.logger.Info("user signed out", slog.String("userID", claims.UserID))
	return nil
}
