package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

// Lookup names a user by exactly one of id or email. The plan endpoint
// accepts an email from the body or falls back to the signed-in user's id;
// accepting both at once would let the two disagree silently.
type Lookup struct {
	UserID string
	Email  string
}

// ContextBuilder assembles the profile plan generation works from: the
// user's own name and email (the account is authoritative for identity)
// over the mapped answers of their most recent submission. Older
// submissions are ignored, not merged, since each delivery already carries
// the full questionnaire.
type ContextBuilder struct {
	store repository.Store
}

func NewContextBuilder(store repository.Store) *ContextBuilder {
	return &ContextBuilder{store: store}
}

// Build resolves the user and projects their latest submission into a
// Profile. Giving both or neither of UserID and Email is a validation
// error; an unknown user or a user without submissions is not found.
func (b *ContextBuilder) Build(ctx context.Context, l Lookup) (*model.Profile, error) {
	user, err := b.resolveUser(ctx, l)
	if err != nil {
		return nil, err
	}

	sub, err := b.store.Submissions().LatestForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("submission for user", user.ID)
		}
		return nil, fmt.Errorf("service/profile: loading latest submission: %w", err)
	}

	p := &model.Profile{UserID: user.ID, ProfileFields: sub.Fields}
	p.Name = user.Name
	p.Email = user.Email
	return p, nil
}

func (b *ContextBuilder) resolveUser(ctx context.Context, l Lookup) (*model.User, error) {
	id := strings.TrimSpace(l.UserID)
	email := model.NormalizeEmail(l.Email)
	if (id == "") == (email == "") {
		return nil, apperror.ValidationFailed("email", "provide exactly one of user id or email")
	}

	var (
		user *model.User
		err  error
	)
	if id != "" {
		user, err = b.store.Users().GetByID(ctx, id)
	} else {
		user, err = b.store.Users().GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/profile: loading user: %w", err)
	}
	return user, nil
}

// LatestSubmission is the diagnostic view of what was last stored for an
// email. Reason says why nothing was found, or why the submission shown is
// not linked to User.
type LatestSubmission struct {
	User       *model.User
	Submission *model.Submission
	Reason     string
}

const (
	ReasonUserNotFound  = "user_not_found"
	ReasonNoSubmissions = "no_responses_for_user"
	// ReasonUnlinked marks a submission that carries the email but is linked
	// to another user (or none), e.g. after a redelivery changed the answer.
	ReasonUnlinked = "response_not_linked_to_user"
)

// Latest returns the newest submission linked to the user with email. When
// the user has none, the newest submission whose mapped email matches is
// returned instead, marked ReasonUnlinked.
func (b *ContextBuilder) Latest(ctx context.Context, email string) (*LatestSubmission, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user, err := b.store.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return b.latestByEmail(ctx, email, nil, ReasonUserNotFound)
	case err != nil:
		return nil, fmt.Errorf("service/profile: loading user: %w", err)
	}

	sub, err := b.store.Submissions().LatestForUser(ctx, user.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return b.latestByEmail(ctx, email, user, ReasonNoSubmissions)
	}
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading latest submission: %w", err)
	}
	return &LatestSubmission{User: user, Submission: sub}, nil
}

// latestByEmail is the fallback when nothing is linked to the user. missing
// is the reason reported when no submission carries the email either.
func (b *ContextBuilder) latestByEmail(ctx context.Context, email string, user *model.User, missing string) (*LatestSubmission, error) {
	sub, err := b.store.Submissions().LatestForEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return &LatestSubmission{User: user, Reason: missing}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading submission by email: %w", err)
	}
	return &LatestSubmission{User: user, Submission: sub, Reason: ReasonUnlinked}, nil
}
