package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.SubmissionRepository = submissionRepo{}

type submissionRepo struct {
	q querier
}

const submissionColumns = `id, submission_id, form_id, user_id,
	name, email, career_level, career_goal, industry, tech_stack, target_role,
	skills, career_challenges, coaching_style, target_timeline, study_time,
	pressure_response, answers, received_at, updated_at`

func (r submissionRepo) GetBySubmissionID(ctx context.Context, submissionID string) (*model.Submission, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE submission_id = ?`, submissionID)
	return scanSubmission(row, submissionID)
}

func (r submissionRepo) LatestForUser(ctx context.Context, userID string) (*model.Submission, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE user_id = ?
		 ORDER BY received_at DESC, rowid DESC
		 LIMIT 1`, userID)
	return scanSubmission(row, "")
}

func (r submissionRepo) LatestForEmail(ctx context.Context, email string) (*model.Submission, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE email = ?
		 ORDER BY received_at DESC, rowid DESC
		 LIMIT 1`, email)
	return scanSubmission(row, "")
}

func (r submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	lists, err := encodeLists(&sub.Fields)
	if err != nil {
		return err
	}
	answers := sub.Answers
	if len(answers) == 0 {
		answers = json.RawMessage("[]")
	}

	f := &sub.Fields
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.SubmissionID, sub.FormID, nullable(sub.UserID),
		nullable(f.Name), nullable(f.Email), nullable(f.CareerLevel), nullable(f.CareerGoal),
		nullable(f.Industry), lists[0], nullable(f.TargetRole),
		lists[1], lists[2], nullable(f.CoachingStyle), nullable(f.TargetTimeline), nullable(f.StudyTime),
		nullable(f.PressureResponse), string(answers), formatTime(sub.ReceivedAt), formatTime(sub.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("submission", sub.SubmissionID)
		}
		return fmt.Errorf("sqlite: inserting submission %s: %w", sub.SubmissionID, err)
	}
	return nil
}

func (r submissionRepo) Update(ctx context.Context, sub *model.Submission) error {
	lists, err := encodeLists(&sub.Fields)
	if err != nil {
		return err
	}

	f := &sub.Fields
	res, err := r.q.ExecContext(ctx,
		`UPDATE submissions SET
			form_id = ?, user_id = ?,
			name = ?, email = ?, career_level = ?, career_goal = ?, industry = ?,
			tech_stack = ?, target_role = ?, skills = ?, career_challenges = ?,
			coaching_style = ?, target_timeline = ?, study_time = ?, pressure_response = ?,
			updated_at = ?
		 WHERE submission_id = ?`,
		sub.FormID, nullable(sub.UserID),
		nullable(f.Name), nullable(f.Email), nullable(f.CareerLevel), nullable(f.CareerGoal), nullable(f.Industry),
		lists[0], nullable(f.TargetRole), lists[1], lists[2],
		nullable(f.CoachingStyle), nullable(f.TargetTimeline), nullable(f.StudyTime), nullable(f.PressureResponse),
		formatTime(sub.UpdatedAt),
		sub.SubmissionID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating submission %s: %w", sub.SubmissionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("submission", sub.SubmissionID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner, key string) (*model.Submission, error) {
	var (
		s                                    model.Submission
		userID                               sql.NullString
		name, email, level, goal, industry   sql.NullString
		techStack, role, skills, challenges  sql.NullString
		style, timeline, studyTime, pressure sql.NullString
		answers, receivedAt, updatedAt       string
	)

	err := row.Scan(&s.ID, &s.SubmissionID, &s.FormID, &userID,
		&name, &email, &level, &goal, &industry, &techStack, &role,
		&skills, &challenges, &style, &timeline, &studyTime,
		&pressure, &answers, &receivedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("submission", key)
		}
		return nil, fmt.Errorf("sqlite: scanning submission: %w", err)
	}

	s.UserID = fromNull(userID)
	s.Answers = json.RawMessage(answers)
	s.Fields = model.ProfileFields{
		Name:             fromNull(name),
		Email:            fromNull(email),
		CareerLevel:      fromNull(level),
		CareerGoal:       fromNull(goal),
		Industry:         fromNull(industry),
		TargetRole:       fromNull(role),
		CoachingStyle:    fromNull(style),
		TargetTimeline:   fromNull(timeline),
		StudyTime:        fromNull(studyTime),
		PressureResponse: fromNull(pressure),
	}
	for _, l := range []struct {
		src sql.NullString
		dst *[]string
	}{
		{techStack, &s.Fields.TechStack},
		{skills, &s.Fields.Skills},
		{challenges, &s.Fields.CareerChallenges},
	} {
		if !l.src.Valid {
			continue
		}
		if err := json.Unmarshal([]byte(l.src.String), l.dst); err != nil {
			return nil, fmt.Errorf("sqlite: decoding list column: %w", err)
		}
	}

	if s.ReceivedAt, err = parseTime(receivedAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// encodeLists returns tech_stack, skills and career_challenges as JSON text,
// or nil for absent lists.
func encodeLists(f *model.ProfileFields) ([3]any, error) {
	var out [3]any
	for i, l := range [][]string{f.TechStack, f.Skills, f.CareerChallenges} {
		if l == nil {
			continue
		}
		b, err := json.Marshal(l)
		if err != nil {
			return out, fmt.Errorf("sqlite: encoding list column: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}
