package schemas

import "time"

// -- Impersonation Schemas --

// AccountInfo describes a social-media account or channel under inspection.
// Nil pointer fields mean the value could not be retrieved from the platform.
type AccountInfo struct {
	Platform       string `json:"platform"`
	Username       string `json:"username"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	PostText       string `json:"post_text,omitempty"`
	AccountAgeDays *int   `json:"account_age_days,omitempty"`
	// Karma covers karma, followers or subscribers depending on the platform.
	Karma            *int `json:"karma,omitempty"`
	ProfileAvailable bool `json:"profile_available"`
}

// AccountAnalysis is the additive heuristic result for one account.
type AccountAnalysis struct {
	Username        string    `json:"username"`
	Platform        string    `json:"platform"`
	RiskScore       float64   `json:"risk_score"`
	SuspiciousFlags []string  `json:"suspicious_flags"`
	AnalyzedAt      time.Time `json:"analysis_timestamp"`
}

// SimilarityCheck compares a candidate handle against protected handles.
type SimilarityCheck struct {
	IsSuspiciousSimilarity bool               `json:"is_suspicious_similarity"`
	MaxSimilarity          float64            `json:"max_similarity"`
	ClosestMatch           string             `json:"closest_match,omitempty"`
	AllSimilarities        map[string]float64 `json:"all_similarities"`
}

// ImpersonationReport is built once per account inspection and not modified
// afterwards.
type ImpersonationReport struct {
	RiskScore          float64         `json:"risk_score"`
	ThreatLevel        ThreatLevel     `json:"threat_level"`
	SuspiciousFlags    []string        `json:"suspicious_flags"`
	SimilarityAnalysis SimilarityCheck `json:"similarity_analysis"`
	AccountDetails     AccountAnalysis `json:"account_details"`
	Recommendation     string          `json:"recommendation"`
}

// Signal exposes the report as an input to the threat classifier.
func (r ImpersonationReport) Signal() Signal {
	return ImpersonationSignal(r.RiskScore)
}
