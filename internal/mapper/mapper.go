// Package mapper turns decoded form answers into typed profile columns.
//
// The set of columns is closed: Columns is the only place a reference name
// can be bound to a column, and references not listed there are reported
// back to the caller instead of being guessed at.
package mapper

import (
	"strings"

	"github.com/pathnova/pathnova-api/internal/model"
	"github.com/pathnova/pathnova-api/internal/typeform"
)

type Kind int

const (
	// KindText holds one string.
	KindText Kind = iota
	// KindList holds a list of strings; delimited text is split.
	KindList
)

// Column binds a form reference name to a field of model.ProfileFields.
type Column struct {
	Ref  string
	Kind Kind
	text func(*model.ProfileFields) **string
	list func(*model.ProfileFields) *[]string
}

func textColumn(ref string, f func(*model.ProfileFields) **string) Column {
	return Column{Ref: ref, Kind: KindText, text: f}
}

func listColumn(ref string, f func(*model.ProfileFields) *[]string) Column {
	return Column{Ref: ref, Kind: KindList, list: f}
}

// Columns is the reference-name table, in profile order.
var Columns = []Column{
	textColumn("name", func(p *model.ProfileFields) **string { return &p.Name }),
	textColumn("email", func(p *model.ProfileFields) **string { return &p.Email }),
	textColumn("career_level", func(p *model.ProfileFields) **string { return &p.CareerLevel }),
	textColumn("career_goal", func(p *model.ProfileFields) **string { return &p.CareerGoal }),
	textColumn("industry", func(p *model.ProfileFields) **string { return &p.Industry }),
	listColumn("tech_stack", func(p *model.ProfileFields) *[]string { return &p.TechStack }),
	textColumn("target_role", func(p *model.ProfileFields) **string { return &p.TargetRole }),
	listColumn("skills", func(p *model.ProfileFields) *[]string { return &p.Skills }),
	listColumn("career_challenges", func(p *model.ProfileFields) *[]string { return &p.CareerChallenges }),
	textColumn("coaching_style", func(p *model.ProfileFields) **string { return &p.CoachingStyle }),
	textColumn("target_timeline", func(p *model.ProfileFields) **string { return &p.TargetTimeline }),
	textColumn("study_time", func(p *model.ProfileFields) **string { return &p.StudyTime }),
	textColumn("pressure_response", func(p *model.ProfileFields) **string { return &p.PressureResponse }),
}

var byRef = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Ref] = c
	}
	return m
}()

// Result is the outcome of mapping one delivery.
type Result struct {
	Fields model.ProfileFields
	// Unmapped lists references that are not in the column table, in the
	// order they appeared. Records without a reference are not listed.
	Unmapped []string
}

// Map extracts profile columns from answers. Every column starts absent; the
// last answer for a column wins, and an answer that yields no usable value
// leaves the column absent. Mapping never fails.
func Map(answers []typeform.Answer) Result {
	var res Result
	for _, a := range answers {
		if a.Ref == "" {
			continue
		}
		col, ok := byRef[a.Ref]
		if !ok {
			res.Unmapped = append(res.Unmapped, a.Ref)
			continue
		}

		switch col.Kind {
		case KindText:
			*col.text(&res.Fields) = asText(a.Value)
		case KindList:
			*col.list(&res.Fields) = asList(a.Value)
		}
	}
	return res
}

func asText(v typeform.Value) *string {
	var s string
	switch v := v.(type) {
	case typeform.TextValue:
		s = string(v)
	case typeform.ChoiceValue:
		s = string(v)
	case typeform.NumberValue:
		s = typeform.FormatNumber(v)
	case typeform.BooleanValue:
		if v {
			s = "true"
		} else {
			s = "false"
		}
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func asList(v typeform.Value) []string {
	switch v := v.(type) {
	case typeform.ChoicesValue:
		return []string(v)
	case typeform.TextValue:
		return splitList(string(v))
	case typeform.ChoiceValue:
		return splitList(string(v))
	}
	return nil
}

// splitList splits comma-delimited text, dropping empty items. Blank input
// yields nil.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
