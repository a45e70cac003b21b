// Package classifier fuses independent risk signals and content keywords into
// a single threat classification.
package classifier

import (
	"math"
	"strings"

	"github.com/xkilldash9x/guardian/api/schemas"
)

const (
	maxScore = 10.0

	criticalBoost = 3.0
	highBoost     = 1.5

	criticalThreshold = 9.0
	highThreshold     = 7.0
	mediumThreshold   = 5.0
)

// criticalKeywords covers explicit violence, doxxing and hacking vocabulary.
var criticalKeywords = []string{"death", "kill", "bomb", "attack", "doxx", "leak", "hack", "threat"}

// highKeywords covers fraud and impersonation vocabulary.
var highKeywords = []string{"fake", "fraud", "scam", "imposter", "lie", "false"}

// Classify fuses the signal set with keyword hits in content. The base score
// is the maximum of the normalised channels, so a single alarming channel is
// never diluted by the others. It is a pure function.
func Classify(signals schemas.SignalSet, content string) schemas.ThreatClassification {
	base := 0.0
	for _, s := range signals.All() {
		base = math.Max(base, s.Normalize())
	}

	score := clamp(base + KeywordBoost(content))
	return schemas.ThreatClassification{Level: LevelFor(score), Score: score}
}

// ClassifyScores is Classify for raw collaborator scores: contradiction and
// impersonation on 0-10, drift on 0-100.
func ClassifyScores(contradiction, drift, impersonation float64, content string) schemas.ThreatClassification {
	return Classify(schemas.SignalSet{
		Contradiction: schemas.ContradictionSignal(contradiction),
		Drift:         schemas.DriftSignal(drift),
		Impersonation: schemas.ImpersonationSignal(impersonation),
	}, content)
}

// KeywordBoost returns the additive boost for content. Critical terms take
// priority and the two boosts never stack.
func KeywordBoost(content string) float64 {
	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, criticalKeywords):
		return criticalBoost
	case containsAny(lower, highKeywords):
		return highBoost
	default:
		return 0
	}
}

// LevelFor bands a score; each band includes its lower edge.
func LevelFor(score float64) schemas.ThreatLevel {
	switch {
	case score >= criticalThreshold:
		return schemas.ThreatCritical
	case score >= highThreshold:
		return schemas.ThreatHigh
	case score >= mediumThreshold:
		return schemas.ThreatMedium
	default:
		return schemas.ThreatLow
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
