package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/fingerprint"
	"github.com/pathnova/pathnova-api/internal/generator"
	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/repository"
)

// PlanService serves learning plans from the cache when the profile they
// were generated from has not changed, and generates new ones otherwise.
//
// The cache key is the profile fingerprint, not a timestamp: a redelivered
// but unchanged submission keeps its plan, while any edited answer produces
// a new fingerprint and therefore a new generation. Plans are append-only,
// so regenerating keeps the older plans for the same fingerprint.
type PlanService struct {
	store     repository.Store
	builder   *ContextBuilder
	generator generator.Generator
	logger    *slog.Logger
	now       func() time.Time
}

func NewPlanService(store repository.Store, builder *ContextBuilder, gen generator.Generator, logger *slog.Logger) *PlanService {
	return &PlanService{store: store, builder: builder, generator: gen, logger: logger, now: time.Now}
}

// PlanResult is a plan together with where it came from.
type PlanResult struct {
	PlanID      string
	UserID      string
	Model       string
	Plan        json.RawMessage
	Fingerprint string
	Cached      bool
}

// Generate builds the profile for l and delegates to GetOrGenerate.
func (s *PlanService) Generate(ctx context.Context, l Lookup, regenerate bool) (*PlanResult, error) {
	profile, err := s.builder.Build(ctx, l)
	if err != nil {
		return nil, err
	}
	return s.GetOrGenerate(ctx, profile, regenerate)
}

// GetOrGenerate returns the newest stored plan for the profile's
// fingerprint unless regenerate is set or none exists, in which case the
// generator is called and its output stored as a new plan. Generator
// failures are neither retried nor stored.
func (s *PlanService) GetOrGenerate(ctx context.Context, profile *model.Profile, regenerate bool) (*PlanResult, error) {
	fp, err := fingerprint.Profile(profile)
	if err != nil {
		return nil, fmt.Errorf("service/plan: fingerprinting profile: %w", err)
	}
	log := s.logger.With(slog.String("userID", profile.UserID), slog.String("fingerprint", fp))

	if !regenerate {
		existing, err := s.store.Plans().Latest(ctx, profile.UserID, fp)
		if err == nil {
			log.Info("plan cache hit", slog.String("planID", existing.ID))
			return &PlanResult{
				PlanID:      existing.ID,
				UserID:      existing.UserID,
				Model:       existing.Model,
				Plan:        existing.Plan,
				Fingerprint: fp,
				Cached:      true,
			}, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/plan: looking up cached plan: %w", err)
		}
	}

	log.Info("generating plan", slog.Bool("regenerate", regenerate), slog.String("model", s.generator.Model()))
	started := s.now()
	raw, err := s.generator.Generate(ctx, profile)
	if err != nil {
		log.Error("plan generation failed", slog.String("error", err.Error()))
		return nil, err
	}
	if !isJSONObject(raw) {
		log.Error("generator returned a non-object plan")
		return nil, apperror.GenerationFailed("generator output is not a JSON object", nil)
	}

	plan := &model.LearningPlan{
		UserID:      profile.UserID,
		Fingerprint: fp,
		Model:       s.generator.Model(),
		Plan:        raw,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Plans().Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("service/plan: storing plan: %w", err)
	}
	log.Info("plan generated",
		slog.String("planID", plan.ID),
		slog.Duration("took", s.now().Sub(started)),
	)

	return &PlanResult{
		PlanID:      plan.ID,
		UserID:      plan.UserID,
		Model:       plan.Model,
		Plan:        plan.Plan,
		Fingerprint: fp,
	}, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
