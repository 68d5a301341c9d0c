package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathnova/pathnova-api/internal/typeform"
)

func decode(t *testing.T, records ...string) []typeform.Answer {
	t.Helper()
	out := make([]typeform.Answer, 0, len(records))
	for _, r := range records {
		out = append(out, typeform.DecodeAnswer(json.RawMessage(r)))
	}
	return out
}

func TestMapExtractsEachKind(t *testing.T) {
	res := Map(decode(t,
		`{"type":"text","text":"  Ada  ","field":{"ref":"name"}}`,
		`{"type":"email","email":"ada@example.com","field":{"ref":"email"}}`,
		`{"type":"choice","choice":{"label":"Senior"},"field":{"ref":"career_level"}}`,
		`{"type":"choices","choices":{"labels":["Go","Postgres"]},"field":{"ref":"tech_stack"}}`,
		`{"type":"text","text":"Go, SQL , ,Docker","field":{"ref":"skills"}}`,
		`{"type":"number","number":16,"field":{"ref":"target_timeline"}}`,
		`{"type":"choice","choice":{"label":"2 hrs/day"},"field":{"ref":"study_time"}}`,
	))

	f := res.Fields
	require.NotNil(t, f.Name)
	assert.Equal(t, "Ada", *f.Name)
	assert.Equal(t, "ada@example.com", *f.Email)
	assert.Equal(t, "Senior", *f.CareerLevel)
	assert.Equal(t, []string{"Go", "Postgres"}, f.TechStack)
	assert.Equal(t, []string{"Go", "SQL", "Docker"}, f.Skills)
	assert.Equal(t, "16", *f.TargetTimeline)
	assert.Equal(t, "2 hrs/day", *f.StudyTime)
	assert.Empty(t, res.Unmapped)
}

func TestMapLeavesUnansweredColumnsAbsent(t *testing.T) {
	res := Map(decode(t, `{"type":"text","text":"Ada","field":{"ref":"name"}}`))

	f := res.Fields
	assert.Nil(t, f.CareerGoal)
	assert.Nil(t, f.Skills)
	assert.Nil(t, f.CareerChallenges)
	assert.Nil(t, f.PressureResponse)
}

func TestMapReportsUnknownRefs(t *testing.T) {
	res := Map(decode(t,
		`{"type":"text","text":"x","field":{"ref":"favourite_colour"}}`,
		`{"type":"text","text":"y","field":{}}`,
		`{"type":"boolean","boolean":true,"field":{"ref":"newsletter"}}`,
	))
	assert.Equal(t, []string{"favourite_colour", "newsletter"}, res.Unmapped)
}

func TestMapMalformedRecordsYieldNull(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"list column with number", `{"type":"number","number":3,"field":{"ref":"career_challenges"}}`},
		{"list column with blank text", `{"type":"text","text":"   ","field":{"ref":"career_challenges"}}`},
		{"text column with unknown type", `{"type":"file_url","file_url":"x","field":{"ref":"career_challenges"}}`},
		{"type without payload", `{"type":"choices","field":{"ref":"career_challenges"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Map(decode(t, tt.record))
			assert.Nil(t, res.Fields.CareerChallenges)
		})
	}

	res := Map(decode(t, `{"type":"choices","choices":{"labels":["a"]},"field":{"ref":"coaching_style"}}`))
	assert.Nil(t, res.Fields.CoachingStyle, "multi-select into a text column")
}

func TestColumnsCoverEveryProfileKey(t *testing.T) {
	refs := make(map[string]bool)
	for _, c := range Columns {
		refs[c.Ref] = true
	}
	assert.Len(t, refs, 13)
	for _, key := range []string{"name", "email", "tech_stack", "pressure_response"} {
		assert.True(t, refs[key], key)
	}
}
