package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pathnova/pathnova-api/internal/model"
)

// SystemPrompt sets the assistant persona for every generation.
const SystemPrompt = `You are an expert career coach and mentor who builds personalized, actionable career roadmaps for people in tech and non-tech industries.

Your goals:
- Produce clear, structured and realistic plans.
- Tailor advice to the user's career stage, goals, skills, learning style and available time.
- Stay supportive while remaining practical.
- Include specific resources, milestone timelines and project ideas.
- Balance theory with hands-on practice.
- Keep every plan achievable within the user's stated timeline.`

const (
	defaultWeeks       = 12
	defaultWeeklyHours = 10
	notProvided        = "not provided"
)

var (
	firstInt = regexp.MustCompile(`\d+`)
	// studyRate matches "<n> [hours] [per|/|a|each] day|week", e.g.
	// "2 hrs/day", "1 hour a day", "5 hours per week", "3 hours weekly".
	studyRate = regexp.MustCompile(`(\d+)\s*(?:h|hrs?|hours?)?\s*(?:/|per|an?|each|every)?\s*(day|daily|week|weekly)\b`)
)

// TimelineWeeks derives the number of plan weeks from the free-text timeline
// answer ("12 weeks", "3 months", "1 year"). Unparsable or absent answers
// give the default of 12.
func TimelineWeeks(timeline *string) int {
	if timeline == nil {
		return defaultWeeks
	}
	s := strings.ToLower(*timeline)
	n, ok := leadingNumber(s)
	if !ok || n <= 0 {
		return defaultWeeks
	}
	switch {
	case strings.Contains(s, "year"):
		return n * 52
	case strings.Contains(s, "month"):
		return n * 4
	default:
		return n
	}
}

// WeeklyHours derives the weekly study budget from the study time answer:
// "2 hrs/day" is 14 hours, "5 hours per week" is 5, anything else is 10.
// The unit has to follow the number, so "1 hour on weekdays" or a bare
// "3" fall back to the default.
func WeeklyHours(studyTime *string) int {
	if studyTime == nil {
		return defaultWeeklyHours
	}
	m := studyRate.FindStringSubmatch(strings.ToLower(*studyTime))
	if m == nil {
		return defaultWeeklyHours
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultWeeklyHours
	}
	if m[2] == "day" || m[2] == "daily" {
		return n * 7
	}
	return n
}

func leadingNumber(s string) (int, bool) {
	m := firstInt.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

func text(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return notProvided
	}
	return *s
}

func list(l []string) string {
	if len(l) == 0 {
		return notProvided
	}
	return strings.Join(l, ", ")
}

// BuildPrompt renders the user message for a profile. Every profile
// attribute except the email address appears in it; the address identifies
// the user to us but says nothing about the plan, so it is not sent to the
// model provider. The week count and hour budget are stated as hard
// constraints.
func BuildPrompt(p *model.Profile) string {
	weeks := TimelineWeeks(p.TargetTimeline)
	hours := WeeklyHours(p.StudyTime)

	var b strings.Builder
	b.WriteString("Create a personalized, actionable career roadmap for the person described below.\n\n")

	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", text(p.Name))
	fmt.Fprintf(&b, "- Career level: %s\n", text(p.CareerLevel))
	fmt.Fprintf(&b, "- Career goal: %s\n", text(p.CareerGoal))
	fmt.Fprintf(&b, "- Industry of interest: %s\n", text(p.Industry))
	fmt.Fprintf(&b, "- Tech stack (only relevant for software roles): %s\n", list(p.TechStack))
	fmt.Fprintf(&b, "- Target role: %s\n", text(p.TargetRole))
	fmt.Fprintf(&b, "- Current skills: %s\n", list(p.Skills))
	fmt.Fprintf(&b, "- Career challenges: %s\n", list(p.CareerChallenges))
	fmt.Fprintf(&b, "- Preferred coaching style: %s\n", text(p.CoachingStyle))
	fmt.Fprintf(&b, "- Target timeline: %s\n", text(p.TargetTimeline))
	fmt.Fprintf(&b, "- Available study time: %s\n", text(p.StudyTime))
	fmt.Fprintf(&b, "- Response under pressure: %s\n\n", text(p.PressureResponse))

	b.WriteString("Task:\n")
	b.WriteString("1. Build a step-by-step roadmap tailored to this profile.\n")
	b.WriteString("2. Suggest specific learning resources, tools and habits that fit the coaching style and study time.\n")
	b.WriteString("3. Give short-term and long-term milestones.\n")
	b.WriteString("4. Recommend one portfolio project relevant to the goal.\n")
	b.WriteString("5. If the field is unfamiliar, apply general career development principles.\n\n")

	b.WriteString("HARD CONSTRAINTS (all must hold):\n")
	fmt.Fprintf(&b, "- Exactly %d weeks. Do not add or drop weeks.\n", weeks)
	fmt.Fprintf(&b, "- Each week's hours must be at most %d.\n", hours)
	b.WriteString("- Output STRICT JSON only: a single object with a top-level key \"weeks\".\n")
	b.WriteString("- Each week has \"title\", \"milestones\", \"hours\" and \"days\" (each day has \"day\" and \"tasks\").\n")
	b.WriteString("- Also include \"summary\", \"metrics\" and \"resources\" (each resource has \"name\", \"type\" and \"url\").\n")
	b.WriteString("- No commentary and no Markdown.\n\n")

	b.WriteString("Self-check before responding:\n")
	fmt.Fprintf(&b, "- len(weeks) == %d\n", weeks)
	fmt.Fprintf(&b, "- every week.hours <= %d\n", hours)
	b.WriteString("- no empty arrays; strings are concise\n")
	b.WriteString("- the response parses as one JSON object\n")

	return b.String()
}
