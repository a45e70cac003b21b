package schemas

import "time"

// -- Evidence Schemas --

// EvidenceMetadata is everything recorded alongside the raw content.
type EvidenceMetadata struct {
	SubjectHandle  string               `json:"subject_handle"`
	Platform       string               `json:"platform"`
	OriginalURL    string               `json:"original_url,omitempty"`
	ArchivedURL    *string              `json:"archived_url"`
	Signals        []Signal             `json:"signals"`
	Analysis       AnalysisResult       `json:"analysis_result"`
	Classification ThreatClassification `json:"classification"`
	Impersonation  *ImpersonationReport `json:"fake_account_analysis,omitempty"`
}

// EvidenceRecord is the persisted, never-mutated snapshot of a processed item.
// Its JSON shape is the on-disk compatibility contract.
type EvidenceRecord struct {
	ID            string           `json:"id"`
	Timestamp     string           `json:"timestamp"`
	Content       string           `json:"content"`
	Metadata      EvidenceMetadata `json:"metadata"`
	IntegrityHash string           `json:"integrity_hash"`
	ChainHash     string           `json:"chain_hash"`
}

// EvidenceHandle is what Capture hands back to the caller.
type EvidenceHandle struct {
	ID            string    `json:"evidence_id"`
	IntegrityHash string    `json:"integrity_hash"`
	ChainHash     string    `json:"chain_hash"`
	CaptureTime   time.Time `json:"capture_time"`
}
