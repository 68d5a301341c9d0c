package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/mapper"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
	"github.com/pathnova/pathnova-api/internal/typeform"
)

// SubmissionService ingests form deliveries. Deliveries are at-least-once,
// so ingesting the same submission id again updates the stored row instead
// of adding one.
type SubmissionService struct {
	db       repository.Database
	identity *IdentityResolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewSubmissionService(db repository.Database, identity *IdentityResolver, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{db: db, identity: identity, logger: logger, now: time.Now}
}

// IngestResult describes what one delivery changed.
type IngestResult struct {
	SubmissionID string
	UserID       *string
	Created      bool
	Updated      bool
	UserCreated  bool
}

// Ingest maps a delivery, resolves the submitter by email and upserts the
// submission, all in one transaction.
//
// Two first deliveries of the same submission (or two new submissions from
// the same new email) can race. The loser hits a unique key, its
// transaction rolls back, and the unit is run once more, which then takes
// the update path.
func (s *SubmissionService) Ingest(ctx context.Context, p *typeform.Payload) (*IngestResult, error) {
	submissionID := p.SubmissionID()
	if submissionID == "" {
		return nil, apperror.ValidationFailed("event_id", "delivery has neither an event id nor a response token")
	}
	formID := strings.TrimSpace(p.FormResponse.FormID)
	if formID == "" {
		return nil, apperror.ValidationFailed("form_id", "delivery has no form id")
	}

	mapped := mapper.Map(p.Answers())
	if len(mapped.Unmapped) > 0 {
		s.logger.Debug("ignoring unmapped answers",
			slog.String("submissionID", submissionID),
			slog.Any("refs", mapped.Unmapped),
		)
	}
	fields := mapped.Fields
	applyIdentityFallbacks(&fields, p)

	var result *IngestResult
	attempt := func() error {
		return s.db.WithTx(ctx, func(tx repository.Store) error {
			r, err := s.upsert(ctx, tx, submissionID, formID, fields, p.RawAnswers())
			result = r
			return err
		})
	}

	err := attempt()
	if errors.Is(err, apperror.ErrConflict) {
		s.logger.Info("concurrent delivery detected, retrying", slog.String("submissionID", submissionID))
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission ingested",
		slog.String("submissionID", submissionID),
		slog.Bool("created", result.Created),
		slog.Bool("userCreated", result.UserCreated),
	)
	return result, nil
}

// applyIdentityFallbacks fills email and name from hidden fields when no
// answer carried them, and stores the email normalized.
func applyIdentityFallbacks(f *model.ProfileFields, p *typeform.Payload) {
	if f.Email == nil || strings.TrimSpace(*f.Email) == "" {
		f.Email = nil
		if hidden := p.Hidden("email"); hidden != "" {
			f.Email = &hidden
		}
	}
	if f.Email != nil {
		email := model.NormalizeEmail(*f.Email)
		f.Email = &email
	}

	if f.Name == nil || strings.TrimSpace(*f.Name) == "" {
		f.Name = nil
		if hidden := p.Hidden("name"); hidden != "" {
			f.Name = &hidden
		}
	}
}

func (s *SubmissionService) upsert(
	ctx context.Context,
	tx repository.Store,
	submissionID, formID string,
	fields model.ProfileFields,
	answers json.RawMessage,
) (*IngestResult, error) {
	var email, name string
	if fields.Email != nil {
		email = *fields.Email
	}
	if fields.Name != nil {
		name = *fields.Name
	}

	who, err := s.identity.ResolveOrCreate(ctx, tx, email, name)
	if err != nil {
		return nil, err
	}
	var userID *string
	if who.User != nil {
		userID = &who.User.ID
	}

	now := s.now().UTC()
	existing, err := tx.Submissions().GetBySubmissionID(ctx, submissionID)
	if errors.Is(err, apperror.ErrNotFound) {
		sub := &model.Submission{
			SubmissionID: submissionID,
			FormID:       formID,
			UserID:       userID,
			Fields:       fields,
			Answers:      answers,
			ReceivedAt:   now,
			UpdatedAt:    now,
		}
		if err := tx.Submissions().Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("service/ingest: creating submission: %w", err)
		}
		return &IngestResult{SubmissionID: submissionID, UserID: userID, Created: true, UserCreated: who.Created}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/ingest: loading submission: %w", err)
	}

	if existing.UserID == nil && userID != nil {
		existing.UserID = userID
	}
	existing.Fields.Merge(fields)
	existing.FormID = formID
	existing.UpdatedAt = now
	if err := tx.Submissions().Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("service/ingest: updating submission: %w", err)
	}
	return &IngestResult{SubmissionID: submissionID, UserID: existing.UserID, Updated: true, UserCreated: who.Created}, nil
}
