// Package generator produces learning plans from a normalized profile.
//
// Two implementations exist: OpenAI, which calls the chat completions API,
// and Static, which returns a fixed payload so that tests and local runs
// never leave the process.
package generator

import (
	"context"
	"encoding/json"

	"github.com/pathnova/pathnova-api/internal/model"
)

// Generator turns a profile into a plan document. Implementations return
// apperror.Upstream for transport failures and apperror.GenerationFailed
// when the service answered with something unusable.
type Generator interface {
	Generate(ctx context.Context, profile *model.Profile) (json.RawMessage, error)
	// Model identifies what produced the plan; it is stored with each plan.
	Model() string
}
