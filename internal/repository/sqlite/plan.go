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

var _ repository.PlanRepository = planRepo{}

type planRepo struct {
	q querier
}

func (r planRepo) Latest(ctx context.Context, userID, fingerprint string) (*model.LearningPlan, error) {
	var (
		p         model.LearningPlan
		plan      string
		createdAt string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, fingerprint, model, plan, created_at
		 FROM learning_plans
		 WHERE user_id = ? AND fingerprint = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		userID, fingerprint,
	).Scan(&p.ID, &p.UserID, &p.Fingerprint, &p.Model, &plan, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("learning plan", "")
		}
		return nil, fmt.Errorf("sqlite: getting plan for user %s: %w", userID, err)
	}

	p.Plan = json.RawMessage(plan)
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r planRepo) Create(ctx context.Context, p *model.LearningPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO learning_plans (id, user_id, fingerprint, model, plan, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Fingerprint, p.Model, string(p.Plan), formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting plan for user %s: %w", p.UserID, err)
	}
	return nil
}
