package model

// Profile is the normalized view of a user that plan generation consumes.
// Name and Email come from the user record; everything else from the user's
// latest submission.
type Profile struct {
	UserID string
	ProfileFields
}

// ProfileKeys lists every key Fields produces, in a fixed order.
var ProfileKeys = []string{
	"name",
	"email",
	"career_level",
	"career_goal",
	"industry",
	"tech_stack",
	"target_role",
	"skills",
	"career_challenges",
	"coaching_style",
	"target_timeline",
	"study_time",
	"pressure_response",
}

// Fields returns the profile as a flat mapping with every key present and
// nil standing in for missing values. This is the input to fingerprinting,
// so adding a key changes every fingerprint.
func (p *Profile) Fields() map[string]any {
	str := func(s *string) any {
		if s == nil {
			return nil
		}
		return *s
	}
	list := func(l []string) any {
		if l == nil {
			return nil
		}
		out := make([]any, len(l))
		for i, v := range l {
			out[i] = v
		}
		return out
	}

	return map[string]any{
		"name":              str(p.Name),
		"email":             str(p.Email),
		"career_level":      str(p.CareerLevel),
		"career_goal":       str(p.CareerGoal),
		"industry":          str(p.Industry),
		"tech_stack":        list(p.TechStack),
		"target_role":       str(p.TargetRole),
		"skills":            list(p.Skills),
		"career_challenges": list(p.CareerChallenges),
		"coaching_style":    str(p.CoachingStyle),
		"target_timeline":   str(p.TargetTimeline),
		"study_time":        str(p.StudyTime),
		"pressure_response": str(p.PressureResponse),
	}
}
