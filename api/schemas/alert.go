package schemas

import "time"

// -- Alert Schemas --

// DispatchStatus is the outcome of a single channel invocation.
type DispatchStatus string

const (
	DispatchSent    DispatchStatus = "sent"
	DispatchSkipped DispatchStatus = "skipped"
	DispatchFailed  DispatchStatus = "failed"
)

// ThreatSnapshot is the read-only view of a decision handed to alert channels.
type ThreatSnapshot struct {
	SubjectHandle  string               `json:"subject_handle"`
	Content        string               `json:"content"`
	Platform       string               `json:"platform"`
	SourceURL      string               `json:"url,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
	Classification ThreatClassification `json:"classification"`
	AnalysisReason string               `json:"analysis_reason"`
	EvidenceID     string               `json:"evidence_id"`
	ChainHash      string               `json:"chain_hash"`
	Impersonation  *ImpersonationReport `json:"fake_account_analysis,omitempty"`
}

// ChannelResult records what happened on one notification channel.
type ChannelResult struct {
	Channel string         `json:"channel"`
	Status  DispatchStatus `json:"status"`
	Detail  string         `json:"detail,omitempty"`
}

// ActiveAlert is inserted once per processed item and never updated.
type ActiveAlert struct {
	EvidenceID string          `json:"evidence_id"`
	ThreatData ThreatSnapshot  `json:"threat_data"`
	Results    []ChannelResult `json:"alert_results"`
	CreatedAt  time.Time       `json:"created_at"`
}
