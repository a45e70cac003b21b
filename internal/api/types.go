// File: internal/api/types.go
package api

import (
	"context"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/scoring"
)

// Response is the envelope every /v1 endpoint answers with.
type Response struct {
	Status string      `json:"status"` // "success", "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// AnalyzeRequest carries raw content for server-side signal collection.
type AnalyzeRequest struct {
	SubjectHandle string                       `json:"subject_handle"`
	Content       string                       `json:"content"`
	Platform      string                       `json:"platform,omitempty"`
	SourceURL     string                       `json:"source_url,omitempty"`
	MediaURLs     []string                     `json:"media_urls,omitempty"`
	Impersonation *schemas.ImpersonationReport `json:"impersonation,omitempty"`
}

// AnalyzeResponse pairs the pipeline result with the collected signals.
type AnalyzeResponse struct {
	schemas.ThreatResponse
	Analysis schemas.AnalysisResult  `json:"analysis"`
	Media    []schemas.MediaAnalysis `json:"media,omitempty"`
}

// ThreatProcessor runs the crisis pipeline (satisfied by orchestrator.Orchestrator).
type ThreatProcessor interface {
	ProcessThreat(ctx context.Context, req schemas.ThreatRequest) (schemas.ThreatResponse, error)
	GetAlertStatus(ctx context.Context, alertID string) (schemas.ActiveAlert, error)
}

// EvidenceReader looks up stored evidence (satisfied by evidence.Vault).
type EvidenceReader interface {
	Get(ctx context.Context, id string) (schemas.EvidenceRecord, error)
}

// SignalCollector gathers scorer signals for raw content (satisfied by scoring.Collector).
type SignalCollector interface {
	Collect(ctx context.Context, subjectID, text string, mediaURLs []string) (scoring.Collection, error)
}

// AccountInspector builds impersonation reports (satisfied by impersonation.Detector).
type AccountInspector interface {
	Inspect(info schemas.AccountInfo) schemas.ImpersonationReport
}

// Deps bundles the services the handlers call. Collector may be nil.
type Deps struct {
	Processor ThreatProcessor
	Evidence  EvidenceReader
	Collector SignalCollector
	Inspector AccountInspector
}
