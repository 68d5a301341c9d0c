package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

// IdentityResolver finds or creates users by email and by external
// provider identity. It never commits: every method runs against the Store
// it is handed, normally a transaction owned by the caller.
type IdentityResolver struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewIdentityResolver(logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{logger: logger, now: time.Now}
}

// Resolution is the outcome of resolving an identity. User is nil only when
// there was nothing to resolve by.
type Resolution struct {
	User    *model.User
	Created bool
	// Updated reports that the stored display name was replaced.
	Updated bool
}

// ResolveOrCreate looks a user up by normalized email, creating one when
// none exists. A non-empty name that differs from the stored one replaces
// it. An empty email resolves to no user.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, st repository.Store, email, name string) (Resolution, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return Resolution{}, nil
	}
	name = strings.TrimSpace(name)

	user, err := st.Users().GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		user = &model.User{Email: &email, CreatedAt: r.now().UTC()}
		if name != "" {
			user.Name = &name
		}
		if err := st.Users().Create(ctx, user); err != nil {
			return Resolution{}, fmt.Errorf("service/identity: creating user: %w", err)
		}
		r.logger.Info("user created", slog.String("userID", user.ID))
		return Resolution{User: user, Created: true}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("service/identity: looking up user by email: %w", err)
	}

	if name != "" && (user.Name == nil || *user.Name != name) {
		if err := st.Users().UpdateName(ctx, user.ID, name); err != nil {
			return Resolution{}, fmt.Errorf("service/identity: updating name of user %s: %w", user.ID, err)
		}
		user.Name = &name
		return Resolution{User: user, Updated: true}, nil
	}
	return Resolution{User: user}, nil
}

// ResolveOAuth maps a verified external identity to a user.
//
// An existing (provider, subject) link wins and has its last login
// refreshed. A link whose user has disappeared is dropped and resolution
// continues by email, which is also how an account first created by a form
// submission gets merged with a later sign-in. An email only merges when the
// provider vouches for it; an identity without any email gets a fresh user.
func (r *IdentityResolver) ResolveOAuth(ctx context.Context, st repository.Store, id model.ExternalIdentity) (Resolution, error) {
	if id.Provider == "" || strings.TrimSpace(id.Subject) == "" {
		return Resolution{}, apperror.ValidationFailed("sub", "identity has no subject")
	}
	now := r.now().UTC()

	link, err := st.AuthProviders().Get(ctx, id.Provider, id.Subject)
	switch {
	case err == nil:
		user, err := st.Users().GetByID(ctx, link.UserID)
		if err == nil {
			if err := st.AuthProviders().TouchLastLogin(ctx, id.Provider, id.Subject, now); err != nil {
				return Resolution{}, fmt.Errorf("service/identity: refreshing last login: %w", err)
			}
			return Resolution{User: user}, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return Resolution{}, fmt.Errorf("service/identity: loading linked user: %w", err)
		}
		r.logger.Warn("dropping provider link to missing user",
			slog.String("provider", id.Provider),
			slog.String("userID", link.UserID),
		)
		if err := st.AuthProviders().Delete(ctx, id.Provider, id.Subject); err != nil {
			return Resolution{}, fmt.Errorf("service/identity: deleting dangling link: %w", err)
		}
	case !errors.Is(err, apperror.ErrNotFound):
		return Resolution{}, fmt.Errorf("service/identity: looking up provider link: %w", err)
	}

	email := model.NormalizeEmail(id.Email)
	var res Resolution
	if email != "" {
		if !id.EmailVerified {
			return Resolution{}, apperror.Unauthenticated("email address is not verified by the provider")
		}
		if res, err = r.ResolveOrCreate(ctx, st, email, id.Name); err != nil {
			return Resolution{}, err
		}
	} else {
		user := &model.User{CreatedAt: now}
		if name := strings.TrimSpace(id.Name); name != "" {
			user.Name = &name
		}
		if err := st.Users().Create(ctx, user); err != nil {
			return Resolution{}, fmt.Errorf("service/identity: creating user: %w", err)
		}
		r.logger.Info("user created", slog.String("userID", user.ID), slog.String("provider", id.Provider))
		res = Resolution{User: user, Created: true}
	}

	newLink := &model.AuthProvider{
		Provider:    id.Provider,
		Subject:     id.Subject,
		UserID:      res.User.ID,
		LastLoginAt: now,
		CreatedAt:   now,
	}
	if email != "" {
		newLink.EmailAtLink = &email
	}
	if err := st.AuthProviders().Create(ctx, newLink); err != nil {
		return Resolution{}, fmt.Errorf("service/identity: linking %s identity: %w", id.Provider, err)
	}
	r.logger.Info("provider identity linked",
		slog.String("provider", id.Provider),
		slog.String("userID", res.User.ID),
	)
	return res, nil
}
