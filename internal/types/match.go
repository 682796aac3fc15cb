package types

import (
	"time"

	"github.com/google/uuid"
)

// Factor names used in MatchResult breakdowns.
const (
	FactorSkills     = "skills"
	FactorLocation   = "location"
	FactorExperience = "experience"
	FactorSalary     = "salary"
)

// WeightSet assigns a relative weight to each scoring factor. A zero weight
// removes the factor from the weighted sum entirely.
type WeightSet struct {
	Skills     float64 `json:"skills"`
	Location   float64 `json:"location"`
	Experience float64 `json:"experience"`
	Salary     float64 `json:"salary"`
}

// DefaultWeights returns the baseline weight set used outside experiments.
func DefaultWeights() WeightSet {
	return WeightSet{
		Skills:     0.45,
		Location:   0.25,
		Experience: 0.20,
		Salary:     0.10,
	}
}

// Total returns the sum of all weights.
func (w WeightSet) Total() float64 {
	return w.Skills + w.Location + w.Experience + w.Salary
}

// FactorScore holds one factor's contribution to a match, with a human-readable
// rationale retained for explainability.
type FactorScore struct {
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Rationale string  `json:"rationale"`
}

// MatchResult is the scored, explainable outcome of comparing one user to one
// posting. Results are created whole and replaced whole; never partially updated.
type MatchResult struct {
	UserID     uuid.UUID              `json:"user_id"`
	PostingID  uuid.UUID              `json:"posting_id"`
	Score      float64                `json:"score"`
	Breakdown  map[string]FactorScore `json:"breakdown"`
	VariantID  int                    `json:"variant_id"`
	ComputedAt time.Time              `json:"computed_at"`
}
