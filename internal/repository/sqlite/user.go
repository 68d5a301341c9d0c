package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.UserRepository = userRepo{}

type userRepo struct {
	q querier
}

// Create inserts user, assigning an ID when it has none. A duplicate email
// is reported as a conflict.
func (r userRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, nullable(user.Email), nullable(user.Name), formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.DisplayEmail())
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r userRepo) getOne(ctx context.Context, column, value string) (*model.User, error) {
	var (
		u         model.User
		email     sql.NullString
		name      sql.NullString
		createdAt string
	)

	// column is one of two constants above, never user input.
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE `+column+` = ?`,
		value,
	).Scan(&u.ID, &email, &name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	u.Email = fromNull(email)
	u.Name = fromNull(name)
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r userRepo) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
