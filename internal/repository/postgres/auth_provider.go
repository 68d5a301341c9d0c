package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.AuthProviderRepository = authProviderRepo{}

type authProviderRepo struct {
	q querier
}

func (r authProviderRepo) Get(ctx context.Context, provider, subject string) (*model.AuthProvider, error) {
	var link model.AuthProvider
	err := r.q.QueryRow(ctx,
		`SELECT provider, subject, user_id::text, email_at_link, last_login_at, created_at
		 FROM auth_providers WHERE provider = $1 AND subject = $2`,
		provider, subject,
	).Scan(&link.Provider, &link.Subject, &link.UserID, &link.EmailAtLink, &link.LastLoginAt, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("auth provider link", provider+":"+subject)
		}
		return nil, fmt.Errorf("postgres: getting auth provider %s: %w", provider, err)
	}
	link.LastLoginAt = link.LastLoginAt.UTC()
	link.CreatedAt = link.CreatedAt.UTC()
	return &link, nil
}

func (r authProviderRepo) Create(ctx context.Context, link *model.AuthProvider) error {
	uid, ok := parseID(link.UserID)
	if !ok {
		return fmt.Errorf("postgres: invalid user id %q", link.UserID)
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO auth_providers (provider, subject, user_id, email_at_link, last_login_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		link.Provider, link.Subject, uid, link.EmailAtLink, link.LastLoginAt, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("auth provider link", link.Provider+":"+link.Subject)
		}
		return fmt.Errorf("postgres: inserting auth provider %s: %w", link.Provider, err)
	}
	return nil
}

func (r authProviderRepo) TouchLastLogin(ctx context.Context, provider, subject string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE auth_providers SET last_login_at = $1 WHERE provider = $2 AND subject = $3`,
		at, provider, subject,
	)
	if err != nil {
		return fmt.Errorf("postgres: touching auth provider %s: %w", provider, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("auth provider link", provider+":"+subject)
	}
	return nil
}

func (r authProviderRepo) Delete(ctx context.Context, provider, subject string) error {
	if _, err := r.q.Exec(ctx,
		`DELETE FROM auth_providers WHERE provider = $1 AND subject = $2`, provider, subject,
	); err != nil {
		return fmt.Errorf("postgres: deleting auth provider %s: %w", provider, err)
	}
	return nil
}
