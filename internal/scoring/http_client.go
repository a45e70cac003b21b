package scoring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

// -- Analysis Service Wire Types --

type analyzeRequest struct {
	TwitterHandle string `json:"twitter_handle"`
	TextToCheck   string `json:"text_to_check"`
}

type mediaRequest struct {
	MediaURL string `json:"media_url"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// HTTPClient calls a remote analysis service for contradiction and drift
// scores, and optionally a media service for OCR and transcripts.
type HTTPClient struct {
	analysisURL string
	mediaURL    string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewHTTPClient builds the client from the scoring section.
func NewHTTPClient(cfg config.ScoringConfig, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.AnalysisURL == "" {
		return nil, fmt.Errorf("scoring.analysis_url is required for the http provider")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		analysisURL: strings.TrimRight(cfg.AnalysisURL, "/"),
		mediaURL:    strings.TrimRight(cfg.MediaURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.Named("scoring.http"),
	}, nil
}

// ScoreContradiction implements schemas.ContradictionScorer.
func (c *HTTPClient) ScoreContradiction(ctx context.Context, subjectID, text string) (schemas.ContradictionResult, error) {
	var out schemas.ContradictionResult
	err := c.post(ctx, "contradiction scorer", c.analysisURL+"/analyze/dissonance", analyzeRequest{TwitterHandle: subjectID, TextToCheck: text}, &out)
	if err != nil {
		return schemas.ContradictionResult{}, err
	}
	out.Score = clampTo(out.Score, 10)
	return out, nil
}

// ScoreDrift implements schemas.DriftScorer.
func (c *HTTPClient) ScoreDrift(ctx context.Context, subjectID, text string) (schemas.DriftResult, error) {
	var out schemas.DriftResult
	err := c.post(ctx, "drift scorer", c.analysisURL+"/analyze/drift", analyzeRequest{TwitterHandle: subjectID, TextToCheck: text}, &out)
	if err != nil {
		return schemas.DriftResult{}, err
	}
	out.DriftScore = clampTo(out.DriftScore, 100)
	return out, nil
}

// MediaEnabled reports whether a media service endpoint is configured.
func (c *HTTPClient) MediaEnabled() bool { return c.mediaURL != "" }

// AnalyzeMedia implements schemas.MediaAnalyzer.
func (c *HTTPClient) AnalyzeMedia(ctx context.Context, mediaURL string) (schemas.MediaAnalysis, error) {
	if !c.MediaEnabled() {
		return schemas.MediaAnalysis{}, fmt.Errorf("media analyzer is not configured")
	}
	var out schemas.MediaAnalysis
	if err := c.post(ctx, "media analyzer", c.mediaURL+"/analyze/media", mediaRequest{MediaURL: mediaURL}, &out); err != nil {
		return schemas.MediaAnalysis{}, err
	}
	return out, nil
}

// post performs one JSON round trip. 4xx answers carrying a detail are
// collaborator rejections; everything else is a transport failure.
func (c *HTTPClient) post(ctx context.Context, source, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", source, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", source, err)
	}

	c.logger.Debug("Collaborator call complete.",
		zap.String("source", source),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return schemas.NewInputError(source, errorDetail(raw, resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", source, resp.StatusCode, errorDetail(raw, resp.Status))
	}

	// Some services answer 200 with an inline error field.
	var inline errorResponse
	if json.Unmarshal(raw, &inline) == nil && inline.Error != "" {
		return schemas.NewInputError(source, inline.Error)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", source, err)
	}
	return nil
}

func errorDetail(raw []byte, fallback string) string {
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return fallback
}

func clampTo(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
