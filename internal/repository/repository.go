// Package repository declares the storage contracts the services depend on.
// Two backends implement them: sqlite (development, tests) and postgres.
//
// Not-found lookups return apperror.NotFound and unique-key violations
// return apperror.Conflict, whichever backend is in use.
package repository

import (
	"context"
	"time"

	"github.com/pathnova/pathnova-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail expects an already normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateName(ctx context.Context, id, name string) error
}

type AuthProviderRepository interface {
	Get(ctx context.Context, provider, subject string) (*model.AuthProvider, error)
	Create(ctx context.Context, link *model.AuthProvider) error
	TouchLastLogin(ctx context.Context, provider, subject string, at time.Time) error
	Delete(ctx context.Context, provider, subject string) error
}

type SubmissionRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID string) (*model.Submission, error)
	Create(ctx context.Context, sub *model.Submission) error
	// Update rewrites the mapped fields, user link and updated_at of an
	// existing row. The raw answers are left as first received.
	Update(ctx context.Context, sub *model.Submission) error
	// LatestForUser returns the most recently received submission, breaking
	// ties by insertion order.
	LatestForUser(ctx context.Context, userID string) (*model.Submission, error)
	// LatestForEmail finds the most recent submission whose mapped email
	// matches, whether or not it has been linked to a user yet.
	LatestForEmail(ctx context.Context, email string) (*model.Submission, error)
}

type PlanRepository interface {
	// Latest returns the newest plan stored for (userID, fingerprint).
	Latest(ctx context.Context, userID, fingerprint string) (*model.LearningPlan, error)
	Create(ctx context.Context, plan *model.LearningPlan) error
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Users() UserRepository
	AuthProviders() AuthProviderRepository
	Submissions() SubmissionRepository
	Plans() PlanRepository
}

// Database is a Store bound to the connection pool that can also open
// transactions.
type Database interface {
	Store
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise, so a request either persists
	// all of its changes or none of them.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
