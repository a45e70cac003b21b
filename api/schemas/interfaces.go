package schemas

import "context"

// -- Collaborator Contracts --

// ContradictionResult is a 0-10 dissonance score with its justification.
type ContradictionResult struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// DriftResult is a 0-100 writing-style drift percentage.
type DriftResult struct {
	DriftScore float64 `json:"drift_score"`
}

// MediaAnalysis is the text extracted from an image or video.
type MediaAnalysis struct {
	OCRText        string `json:"ocr_text,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	PerceptualHash string `json:"perceptual_hash,omitempty"`
}

// ContradictionScorer compares text against the subject's known statements.
// Explicit rejections are returned as *InputError.
type ContradictionScorer interface {
	ScoreContradiction(ctx context.Context, subjectID, text string) (ContradictionResult, error)
}

// DriftScorer measures writing-style deviation from the subject's style.
type DriftScorer interface {
	ScoreDrift(ctx context.Context, subjectID, text string) (DriftResult, error)
}

// MediaAnalyzer extracts OCR text and transcripts from a media URL.
type MediaAnalyzer interface {
	AnalyzeMedia(ctx context.Context, mediaURL string) (MediaAnalysis, error)
}

// Archiver submits a URL to an external archival service and returns the
// archived location. Callers treat any error as "not archived".
type Archiver interface {
	Archive(ctx context.Context, url string) (string, error)
}

// EvidenceStore is the durable keyed put/get used by the vault. Put must not
// overwrite: a second write for an existing ID returns ErrEvidenceExists.
type EvidenceStore interface {
	Put(ctx context.Context, record EvidenceRecord) error
	Get(ctx context.Context, id string) (EvidenceRecord, error)
}

// AlertRegistry holds active alerts keyed by evidence ID, first write wins.
type AlertRegistry interface {
	Register(ctx context.Context, alert ActiveAlert) error
	Lookup(ctx context.Context, evidenceID string) (ActiveAlert, error)
}
