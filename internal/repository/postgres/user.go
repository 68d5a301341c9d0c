package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.UserRepository = userRepo{}

type userRepo struct {
	q querier
}

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	id, ok := parseID(user.ID)
	if !ok {
		return fmt.Errorf("postgres: invalid user id %q", user.ID)
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, $4)`,
		id, user.Email, user.Name, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.DisplayEmail())
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return r.getOne(ctx, `WHERE id = $1`, uid, id)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email, email)
}

func (r userRepo) getOne(ctx context.Context, where string, arg any, key string) (*model.User, error) {
	var u model.User
	err := r.q.QueryRow(ctx,
		`SELECT id::text, email, name, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("postgres: getting user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r userRepo) UpdateName(ctx context.Context, id, name string) error {
	uid, ok := parseID(id)
	if !ok {
		return apperror.NotFound("user", id)
	}
	tag, err := r.q.Exec(ctx, `UPDATE users SET name = $1 WHERE id = $2`, name, uid)
	if err != nil {
		return fmt.Errorf("postgres: updating user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
