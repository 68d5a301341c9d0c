package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pathnova/pathnova-api/internal/model"
)

// StaticModel is recorded on plans produced by Static.
const StaticModel = "offline-fixture"

// Static returns the same plan skeleton for every profile, naming only the
// target role. It never performs I/O.
type Static struct{}

var _ Generator = Static{}

func (Static) Model() string { return StaticModel }

type staticPlan struct {
	Summary   string           `json:"summary"`
	Weeks     []staticWeek     `json:"weeks"`
	Metrics   []string         `json:"metrics"`
	Resources []staticResource `json:"resources"`
}

type staticWeek struct {
	Title      string      `json:"title"`
	Milestones []string    `json:"milestones"`
	Hours      int         `json:"hours"`
	Days       []staticDay `json:"days"`
}

type staticDay struct {
	Day   string   `json:"day"`
	Tasks []string `json:"tasks"`
}

type staticResource struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (Static) Generate(_ context.Context, profile *model.Profile) (json.RawMessage, error) {
	role := "Unknown Role"
	if profile.TargetRole != nil && *profile.TargetRole != "" {
		role = *profile.TargetRole
	}

	plan := staticPlan{
		Summary: fmt.Sprintf("Fake plan for %s", role),
		Weeks: []staticWeek{{
			Title:      "Week 1",
			Milestones: []string{"Set up env", "Pick resources"},
			Hours:      8,
			Days: []staticDay{
				{Day: "Mon", Tasks: []string{"Task A"}},
				{Day: "Tue", Tasks: []string{"Task B"}},
			},
		}},
		Metrics:   []string{"Problems/wk", "PRs", "Mocks"},
		Resources: []staticResource{{Name: "Placeholder", Type: "doc", URL: "https://example.com"}},
	}
	return json.Marshal(plan)
}
