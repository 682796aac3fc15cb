package types

import "github.com/google/uuid"

// ExperienceLevel represents a coarse seniority band.
type ExperienceLevel int

// Experience levels in ascending order. The numeric distance between two levels
// feeds the experience-alignment scoring factor.
const (
	LevelIntern ExperienceLevel = iota
	LevelJunior
	LevelMid
	LevelSenior
	LevelStaff
)

// String returns the lowercase label for the level.
func (l ExperienceLevel) String() string {
	switch l {
	case LevelIntern:
		return "intern"
	case LevelJunior:
		return "junior"
	case LevelMid:
		return "mid"
	case LevelSenior:
		return "senior"
	case LevelStaff:
		return "staff"
	default:
		return "unknown"
	}
}

// ParseExperienceLevel maps a label to its level. Unknown labels map to LevelMid,
// the neutral middle of the band.
func ParseExperienceLevel(s string) ExperienceLevel {
	switch s {
	case "intern", "internship":
		return LevelIntern
	case "junior", "entry":
		return LevelJunior
	case "mid", "middle", "intermediate":
		return LevelMid
	case "senior":
		return LevelSenior
	case "staff", "principal", "lead":
		return LevelStaff
	default:
		return LevelMid
	}
}

// UserProfile is the read-only view of a user this core scores against.
// It is owned by an external collaborator; this core never mutates it.
type UserProfile struct {
	UserID             uuid.UUID       `json:"user_id"`
	Skills             []string        `json:"skills"`
	PreferredLocations []string        `json:"preferred_locations"`
	AcceptsRemote      bool            `json:"accepts_remote"`
	Experience         ExperienceLevel `json:"experience"`
	SalaryExpectation  int             `json:"salary_expectation,omitempty"`
}
