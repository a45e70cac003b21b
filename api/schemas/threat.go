package schemas

import "strings"

// -- Threat Schemas --

// ThreatLevel is the banded outcome of classification. Values are lowercase to
// match the persisted evidence format and the alert templates.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// rank orders levels so they can be compared against a minimum.
func (l ThreatLevel) rank() int {
	switch l {
	case ThreatMedium:
		return 1
	case ThreatHigh:
		return 2
	case ThreatCritical:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is the same as or more severe than min.
func (l ThreatLevel) AtLeast(min ThreatLevel) bool {
	return l.rank() >= min.rank()
}

// Valid reports whether l is one of the four defined levels.
func (l ThreatLevel) Valid() bool {
	switch l {
	case ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical:
		return true
	}
	return false
}

// ParseThreatLevel converts a case-insensitive name into a ThreatLevel.
func ParseThreatLevel(s string) (ThreatLevel, bool) {
	l := ThreatLevel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// ThreatClassification is always recomputed from signals and never mutated.
type ThreatClassification struct {
	Level ThreatLevel `json:"level"`
	Score float64     `json:"score"`
}

// AnalysisResult is the inbound bundle of precomputed collaborator signals for
// a single content item.
type AnalysisResult struct {
	ContradictionScore float64 `json:"contradiction_score"`
	DriftScore         float64 `json:"drift_score"`
	Justification      string  `json:"justification,omitempty"`
}

// ThreatRequest is the input to the crisis pipeline.
type ThreatRequest struct {
	Analysis      AnalysisResult       `json:"analysis"`
	Content       string               `json:"content"`
	SubjectHandle string               `json:"subject_handle"`
	Platform      string               `json:"platform,omitempty"`
	SourceURL     string               `json:"source_url,omitempty"`
	Impersonation *ImpersonationReport `json:"impersonation,omitempty"`
}

// ThreatResponse is the consolidated result of one pipeline run. It is only
// ever returned complete.
type ThreatResponse struct {
	AlertID                    string      `json:"alert_id"`
	ThreatLevel                ThreatLevel `json:"threat_level"`
	ThreatScore                float64     `json:"threat_score"`
	EvidenceID                 string      `json:"evidence_id"`
	EvidenceCaptured           bool        `json:"evidence_captured"`
	DispatchedOnPrimaryChannel bool        `json:"dispatched_on_primary_channel"`
	ChainHash                  string      `json:"chain_hash"`
}
