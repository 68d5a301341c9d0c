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

var _ repository.SubmissionRepository = submissionRepo{}

type submissionRepo struct {
	q querier
}

const selectSubmission = `SELECT id::text, submission_id, form_id, user_id::text,
	name, email, career_level, career_goal, industry, tech_stack, target_role,
	skills, career_challenges, coaching_style, target_timeline, study_time,
	pressure_response, answers::text, received_at, updated_at
	FROM submissions `

func (r submissionRepo) GetBySubmissionID(ctx context.Context, submissionID string) (*model.Submission, error) {
	return scanSubmission(r.q.QueryRow(ctx, selectSubmission+`WHERE submission_id = $1`, submissionID), submissionID)
}

func (r submissionRepo) LatestForUser(ctx context.Context, userID string) (*model.Submission, error) {
	uid, ok := parseID(userID)
	if !ok {
		return nil, apperror.NotFound("submission", "")
	}
	return scanSubmission(r.q.QueryRow(ctx,
		selectSubmission+`WHERE user_id = $1 ORDER BY received_at DESC, seq DESC LIMIT 1`, uid), "")
}

func (r submissionRepo) LatestForEmail(ctx context.Context, email string) (*model.Submission, error) {
	return scanSubmission(r.q.QueryRow(ctx,
		selectSubmission+`WHERE email = $1 ORDER BY received_at DESC, seq DESC LIMIT 1`, email), "")
}

func (r submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	id, ok := parseID(sub.ID)
	if !ok {
		return fmt.Errorf("postgres: invalid submission id %q", sub.ID)
	}
	userID, err := parseOptionalID(sub.UserID)
	if err != nil {
		return err
	}
	answers := string(sub.Answers)
	if answers == "" {
		answers = "[]"
	}

	f := &sub.Fields
	_, err = r.q.Exec(ctx,
		`INSERT INTO submissions (id, submission_id, form_id, user_id,
			name, email, career_level, career_goal, industry, tech_stack, target_role,
			skills, career_challenges, coaching_style, target_timeline, study_time,
			pressure_response, answers, received_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		id, sub.SubmissionID, sub.FormID, userID,
		f.Name, f.Email, f.CareerLevel, f.CareerGoal, f.Industry, f.TechStack, f.TargetRole,
		f.Skills, f.CareerChallenges, f.CoachingStyle, f.TargetTimeline, f.StudyTime,
		f.PressureResponse, answers, sub.ReceivedAt, sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("submission", sub.SubmissionID)
		}
		return fmt.Errorf("postgres: inserting submission %s: %w", sub.SubmissionID, err)
	}
	return nil
}

func (r submissionRepo) Update(ctx context.Context, sub *model.Submission) error {
	userID, err := parseOptionalID(sub.UserID)
	if err != nil {
		return err
	}

	f := &sub.Fields
	tag, err := r.q.Exec(ctx,
		`UPDATE submissions SET
			form_id = $1, user_id = $2,
			name = $3, email = $4, career_level = $5, career_goal = $6, industry = $7,
			tech_stack = $8, target_role = $9, skills = $10, career_challenges = $11,
			coaching_style = $12, target_timeline = $13, study_time = $14, pressure_response = $15,
			updated_at = $16
		 WHERE submission_id = $17`,
		sub.FormID, userID,
		f.Name, f.Email, f.CareerLevel, f.CareerGoal, f.Industry,
		f.TechStack, f.TargetRole, f.Skills, f.CareerChallenges,
		f.CoachingStyle, f.TargetTimeline, f.StudyTime, f.PressureResponse,
		sub.UpdatedAt, sub.SubmissionID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating submission %s: %w", sub.SubmissionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("submission", sub.SubmissionID)
	}
	return nil
}

func scanSubmission(row pgx.Row, key string) (*model.Submission, error) {
	var (
		s       model.Submission
		answers string
		f       = &s.Fields
	)
	err := row.Scan(&s.ID, &s.SubmissionID, &s.FormID, &s.UserID,
		&f.Name, &f.Email, &f.CareerLevel, &f.CareerGoal, &f.Industry, &f.TechStack, &f.TargetRole,
		&f.Skills, &f.CareerChallenges, &f.CoachingStyle, &f.TargetTimeline, &f.StudyTime,
		&f.PressureResponse, &answers, &s.ReceivedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("submission", key)
		}
		return nil, fmt.Errorf("postgres: scanning submission: %w", err)
	}
	s.Answers = []byte(answers)
	s.ReceivedAt = s.ReceivedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
