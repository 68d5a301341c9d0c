package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

// These tests need a disposable database:
//
//	PATHNOVA_TEST_POSTGRES_URL=postgres://localhost/pathnova_test go test ./internal/repository/postgres/
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("PATHNOVA_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PATHNOVA_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url, Options{MaxConns: 4})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.pool.Exec(ctx, `TRUNCATE learning_plans, submissions, auth_providers, users CASCADE`)
		db.Close()
	})
	return db
}

func ptr(s string) *string { return &s }

func TestParseID(t *testing.T) {
	if _, ok := parseID("not-a-uuid"); ok {
		t.Error("parseID accepted a non-uuid")
	}
	id := uuid.NewString()
	if got, ok := parseID(id); !ok || got.String() != id {
		t.Errorf("parseID(%s) = %v, %v", id, got, ok)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := ApplyMigrations(context.Background(), db.pool); err != nil {
		t.Fatalf("second ApplyMigrations() error = %v", err)
	}
}

func TestRoundTripThroughTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	email := "pg-" + uuid.NewString()[:8] + "@example.com"

	var userID string
	err := db.WithTx(ctx, func(tx repository.Store) error {
		u := &model.User{Email: ptr(email), Name: ptr("Ada"), CreatedAt: now}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		userID = u.ID
		return tx.Submissions().Create(ctx, &model.Submission{
			SubmissionID: "pg-" + u.ID,
			FormID:       "form",
			UserID:       &u.ID,
			Fields:       model.ProfileFields{Skills: []string{"go"}, TargetRole: ptr("sre")},
			Answers:      []byte(`[{"type":"text"}]`),
			ReceivedAt:   now,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	sub, err := db.Submissions().LatestForUser(ctx, userID)
	if err != nil {
		t.Fatalf("LatestForUser() error = %v", err)
	}
	if sub.Fields.Skills[0] != "go" || *sub.Fields.TargetRole != "sre" || sub.Fields.TechStack != nil {
		t.Errorf("Fields = %+v", sub.Fields)
	}
	if !sub.ReceivedAt.Equal(now) {
		t.Errorf("ReceivedAt = %v, want %v", sub.ReceivedAt, now)
	}

	if err := db.Users().Create(ctx, &model.User{Email: ptr(email), CreatedAt: now}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	plan := &model.LearningPlan{UserID: userID, Fingerprint: "fp", Model: "m", Plan: []byte(`{"weeks":[]}`), CreatedAt: now}
	if err := db.Plans().Create(ctx, plan); err != nil {
		t.Fatalf("Plans().Create() error = %v", err)
	}
	got, err := db.Plans().Latest(ctx, userID, "fp")
	if err != nil {
		t.Fatalf("Plans().Latest() error = %v", err)
	}
	if got.ID != plan.ID {
		t.Errorf("Latest() = %s, want %s", got.ID, plan.ID)
	}
}

func TestLookupsWithMalformedIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Users().GetByID(ctx, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := db.Submissions().LatestForUser(ctx, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("LatestForUser() error = %v, want ErrNotFound", err)
	}
}
