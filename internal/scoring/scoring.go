package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobscout/internal/fingerprint"
	"github.com/jonathan/jobscout/internal/types"
)

const (
	maxScore = 100.0
	minScore = 0.0

	// partialLocationScore is the credit for a region-level token overlap
	// short of an exact match.
	partialLocationScore = 50.0

	// levelPenalty is subtracted per level of experience distance.
	levelPenalty = 25.0
)

// Score compares one user to one posting under the given weights and returns
// an explainable MatchResult. Identical inputs always produce identical factor
// scores and overall score; only ComputedAt varies between calls.
func Score(user *types.UserProfile, posting *types.CanonicalPosting, weights types.WeightSet) (types.MatchResult, error) {
	if user == nil || user.UserID == uuid.Nil {
		return types.MatchResult{}, &InputError{Message: "cannot score: missing user profile"}
	}
	if posting == nil {
		return types.MatchResult{}, &InputError{Message: "cannot score: missing posting"}
	}
	if weights.Total() <= 0 {
		return types.MatchResult{}, &InputError{Message: "cannot score: weight set sums to zero"}
	}

	breakdown := map[string]types.FactorScore{}
	record := func(name string, weight, score float64, rationale string) {
		if weight <= 0 {
			return
		}
		breakdown[name] = types.FactorScore{Score: score, Weight: weight, Rationale: rationale}
	}

	skillScore, skillWhy := scoreSkills(user.Skills, posting.Tags)
	record(types.FactorSkills, weights.Skills, skillScore, skillWhy)

	locScore, locWhy := scoreLocation(user, posting)
	record(types.FactorLocation, weights.Location, locScore, locWhy)

	expScore, expWhy := scoreExperience(user.Experience, posting.Title)
	record(types.FactorExperience, weights.Experience, expScore, expWhy)

	salScore, salWhy := scoreSalary(user.SalaryExpectation, posting.Salary)
	record(types.FactorSalary, weights.Salary, salScore, salWhy)

	var weighted, total float64
	for _, f := range breakdown {
		weighted += f.Score * f.Weight
		total += f.Weight
	}
	overall := clamp(weighted / total)

	return types.MatchResult{
		UserID:     user.UserID,
		PostingID:  posting.ID,
		Score:      overall,
		Breakdown:  breakdown,
		ComputedAt: time.Now().UTC(),
	}, nil
}

// scoreSkills measures how much of the user's skill set the posting covers.
func scoreSkills(skills, tags []string) (float64, string) {
	if len(skills) == 0 {
		return minScore, "no skills listed in profile"
	}

	tagSet := map[string]struct{}{}
	for _, tag := range tags {
		tagSet[fingerprint.Normalize(tag)] = struct{}{}
	}

	matched := 0
	for _, skill := range skills {
		if _, ok := tagSet[fingerprint.Normalize(skill)]; ok {
			matched++
		}
	}

	score := maxScore * float64(matched) / float64(len(skills))
	return score, fmt.Sprintf("%d of %d skills matched", matched, len(skills))
}

func scoreLocation(user *types.UserProfile, posting *types.CanonicalPosting) (float64, string) {
	if posting.Remote && user.AcceptsRemote {
		return maxScore, "remote posting and user accepts remote"
	}

	postingLoc := fingerprint.Normalize(posting.Location)
	if postingLoc == "" {
		return minScore, "posting location unspecified"
	}

	for _, preferred := range user.PreferredLocations {
		if fingerprint.Normalize(preferred) == postingLoc {
			return maxScore, fmt.Sprintf("exact match on preferred location %q", preferred)
		}
	}

	// Region-level overlap: any shared token between the posting location and
	// a preferred location ("Berlin" in "Berlin Metro Area").
	postingTokens := map[string]struct{}{}
	for _, tok := range strings.Fields(postingLoc) {
		postingTokens[tok] = struct{}{}
	}
	for _, preferred := range user.PreferredLocations {
		for _, tok := range strings.Fields(fingerprint.Normalize(preferred)) {
			if _, ok := postingTokens[tok]; ok {
				return partialLocationScore, fmt.Sprintf("region overlap with preferred location %q", preferred)
			}
		}
	}

	return minScore, "no preferred location matches"
}

func scoreExperience(userLevel types.ExperienceLevel, title string) (float64, string) {
	postingLevel, stated := inferLevel(title)
	if !stated {
		return maxScore, "posting does not state a level"
	}

	distance := int(userLevel) - int(postingLevel)
	if distance < 0 {
		distance = -distance
	}
	score := maxScore - levelPenalty*float64(distance)
	if score < minScore {
		score = minScore
	}
	if distance == 0 {
		return score, fmt.Sprintf("exact level match (%s)", postingLevel)
	}
	return score, fmt.Sprintf("%d level(s) from posting's %s", distance, postingLevel)
}

// titleLevelMarkers maps title tokens to the level they announce.
var titleLevelMarkers = map[string]types.ExperienceLevel{
	"intern":     types.LevelIntern,
	"internship": types.LevelIntern,
	"junior":     types.LevelJunior,
	"jr":         types.LevelJunior,
	"graduate":   types.LevelJunior,
	"entry":      types.LevelJunior,
	"senior":     types.LevelSenior,
	"sr":         types.LevelSenior,
	"staff":      types.LevelStaff,
	"principal":  types.LevelStaff,
	"lead":       types.LevelStaff,
}

// inferLevel detects an experience level from title wording. Markers match on
// whole tokens so "Tech Lead" is recognized but "Leadership Coach" is not.
// Most postings do not state a level; those score neutrally.
func inferLevel(title string) (types.ExperienceLevel, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return r == ' ' || r == '.' || r == ',' || r == '-' || r == '/' || r == '(' || r == ')'
	})
	for _, tok := range tokens {
		if level, ok := titleLevelMarkers[tok]; ok {
			return level, true
		}
	}
	return types.LevelMid, false
}

func scoreSalary(expectation int, salary types.SalaryRange) (float64, string) {
	if expectation <= 0 {
		return maxScore, "no salary expectation set"
	}
	if salary.IsZero() {
		return maxScore, "posting does not advertise a salary"
	}

	upper := salary.Max
	if upper == 0 {
		upper = salary.Min
	}
	if expectation <= upper {
		return maxScore, "expectation within advertised range"
	}

	// Penalty proportional to how far the range falls short of the expectation.
	gap := float64(expectation-upper) / float64(expectation)
	score := maxScore * (1 - gap)
	if score < minScore {
		score = minScore
	}
	return score, fmt.Sprintf("advertised maximum %d below expectation %d", upper, expectation)
}

func clamp(v float64) float64 {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
