package model

import (
	"encoding/json"
	"time"
)

// ProfileFields is the typed snapshot the field mapper extracts from one form
// submission. A nil field means the delivery did not carry that answer.
type ProfileFields struct {
	Name             *string  `json:"name"`
	Email            *string  `json:"email"`
	CareerLevel      *string  `json:"career_level"`
	CareerGoal       *string  `json:"career_goal"`
	Industry         *string  `json:"industry"`
	TechStack        []string `json:"tech_stack"`
	TargetRole       *string  `json:"target_role"`
	Skills           []string `json:"skills"`
	CareerChallenges []string `json:"career_challenges"`
	CoachingStyle    *string  `json:"coaching_style"`
	TargetTimeline   *string  `json:"target_timeline"`
	StudyTime        *string  `json:"study_time"`
	PressureResponse *string  `json:"pressure_response"`
}

// Merge copies every field that is present in update onto f. Absent fields
// in update never clear what f already holds. It reports whether anything
// was copied.
func (f *ProfileFields) Merge(update ProfileFields) bool {
	changed := false
	mergeString := func(dst **string, src *string) {
		if src != nil {
			*dst = src
			changed = true
		}
	}
	mergeList := func(dst *[]string, src []string) {
		if src != nil {
			*dst = src
			changed = true
		}
	}

	mergeString(&f.Name, update.Name)
	mergeString(&f.Email, update.Email)
	mergeString(&f.CareerLevel, update.CareerLevel)
	mergeString(&f.CareerGoal, update.CareerGoal)
	mergeString(&f.Industry, update.Industry)
	mergeList(&f.TechStack, update.TechStack)
	mergeString(&f.TargetRole, update.TargetRole)
	mergeList(&f.Skills, update.Skills)
	mergeList(&f.CareerChallenges, update.CareerChallenges)
	mergeString(&f.CoachingStyle, update.CoachingStyle)
	mergeString(&f.TargetTimeline, update.TargetTimeline)
	mergeString(&f.StudyTime, update.StudyTime)
	mergeString(&f.PressureResponse, update.PressureResponse)
	return changed
}

// Submission is one external form submission, unique by SubmissionID.
// UserID stays nil until the submitter's identity is known.
type Submission struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submissionId"`
	FormID       string          `json:"formId"`
	UserID       *string         `json:"userId"`
	Fields       ProfileFields   `json:"fields"`
	Answers      json.RawMessage `json:"answers"`
	ReceivedAt   time.Time       `json:"receivedAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// LearningPlan is a generated plan, cached under (UserID, Fingerprint).
// Rows are never updated; regeneration inserts a new one.
type LearningPlan struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Fingerprint string          `json:"fingerprint"`
	Model       string          `json:"model"`
	Plan        json.RawMessage `json:"plan"`
	CreatedAt   time.Time       `json:"createdAt"`
}
