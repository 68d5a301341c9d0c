package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.AuthProviderRepository = authProviderRepo{}

type authProviderRepo struct {
	q querier
}

func (r authProviderRepo) Get(ctx context.Context, provider, subject string) (*model.AuthProvider, error) {
	var (
		link        model.AuthProvider
		emailAtLink sql.NullString
		lastLogin   string
		createdAt   string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT provider, subject, user_id, email_at_link, last_login_at, created_at
		 FROM auth_providers WHERE provider = ? AND subject = ?`,
		provider, subject,
	).Scan(&link.Provider, &link.Subject, &link.UserID, &emailAtLink, &lastLogin, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("auth provider link", provider+":"+subject)
		}
		return nil, fmt.Errorf("sqlite: getting auth provider %s: %w", provider, err)
	}

	link.EmailAtLink = fromNull(emailAtLink)
	if link.LastLoginAt, err = parseTime(lastLogin); err != nil {
		return nil, err
	}
	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r authProviderRepo) Create(ctx context.Context, link *model.AuthProvider) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO auth_providers (provider, subject, user_id, email_at_link, last_login_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		link.Provider, link.Subject, link.UserID, nullable(link.EmailAtLink),
		formatTime(link.LastLoginAt), formatTime(link.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("auth provider link", link.Provider+":"+link.Subject)
		}
		return fmt.Errorf("sqlite: inserting auth provider %s: %w", link.Provider, err)
	}
	return nil
}

func (r authProviderRepo) TouchLastLogin(ctx context.Context, provider, subject string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE auth_providers SET last_login_at = ? WHERE provider = ? AND subject = ?`,
		formatTime(at), provider, subject,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching auth provider %s: %w", provider, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("auth provider link", provider+":"+subject)
	}
	return nil
}

func (r authProviderRepo) Delete(ctx context.Context, provider, subject string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM auth_providers WHERE provider = ? AND subject = ?`, provider, subject)
	if err != nil {
		return fmt.Errorf("sqlite: deleting auth provider %s: %w", provider, err)
	}
	return nil
}
