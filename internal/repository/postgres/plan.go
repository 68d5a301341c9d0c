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

var _ repository.PlanRepository = planRepo{}

type planRepo struct {
	q querier
}

func (r planRepo) Latest(ctx context.Context, userID, fingerprint string) (*model.LearningPlan, error) {
	uid, ok := parseID(userID)
	if !ok {
		return nil, apperror.NotFound("learning plan", "")
	}

	var (
		p    model.LearningPlan
		plan string
	)
	err := r.q.QueryRow(ctx,
		`SELECT id::text, user_id::text, fingerprint, model, plan::text, created_at
		 FROM learning_plans
		 WHERE user_id = $1 AND fingerprint = $2
		 ORDER BY created_at DESC, seq DESC
		 LIMIT 1`,
		uid, fingerprint,
	).Scan(&p.ID, &p.UserID, &p.Fingerprint, &p.Model, &plan, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("learning plan", "")
		}
		return nil, fmt.Errorf("postgres: getting plan for user %s: %w", userID, err)
	}
	p.Plan = []byte(plan)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r planRepo) Create(ctx context.Context, p *model.LearningPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	id, ok := parseID(p.ID)
	if !ok {
		return fmt.Errorf("postgres: invalid plan id %q", p.ID)
	}
	uid, ok := parseID(p.UserID)
	if !ok {
		return fmt.Errorf("postgres: invalid user id %q", p.UserID)
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO learning_plans (id, user_id, fingerprint, model, plan, created_at)
		 VALUES ($1, $2, $3, $4, $5::json, $6)`,
		id, uid, p.Fingerprint, p.Model, string(p.Plan), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting plan for user %s: %w", p.UserID, err)
	}
	return nil
}
