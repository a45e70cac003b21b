package orchestrator

import (
	"fmt"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/publicsuffix"

	"github.com/xkilldash9x/guardian/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Legacy payloads name the contradiction score "dissonance_score" and the
// impersonation risk "fake_account_risk_score". Only this file knows that.

type inboundAnalysis struct {
	ContradictionScore *float64 `json:"contradiction_score"`
	DissonanceScore    *float64 `json:"dissonance_score"`
	DriftScore         float64  `json:"drift_score"`
	Justification      string   `json:"justification"`
}

type inboundReport struct {
	schemas.ImpersonationReport
	FakeAccountRiskScore *float64 `json:"fake_account_risk_score"`
}

type inboundRequest struct {
	Analysis            *inboundAnalysis `json:"analysis"`
	AnalysisResult      *inboundAnalysis `json:"analysis_result"`
	Content             string           `json:"content"`
	SubjectHandle       string           `json:"subject_handle"`
	VIPHandle           string           `json:"vip_handle"`
	Platform            string           `json:"platform"`
	SourceURL           string           `json:"source_url"`
	URL                 string           `json:"url"`
	Impersonation       *inboundReport   `json:"impersonation"`
	FakeAccountAnalysis *inboundReport   `json:"fake_account_analysis"`
}

// DecodeThreatRequest parses an inbound payload, accepting both current and
// legacy field names. Malformed payloads are input errors.
func DecodeThreatRequest(data []byte) (schemas.ThreatRequest, error) {
	var in inboundRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return schemas.ThreatRequest{}, schemas.NewInputError("request", fmt.Sprintf("malformed payload: %v", err))
	}

	req := schemas.ThreatRequest{
		Content:       in.Content,
		SubjectHandle: firstNonEmpty(in.SubjectHandle, in.VIPHandle),
		Platform:      in.Platform,
		SourceURL:     firstNonEmpty(in.SourceURL, in.URL),
	}
	if req.SubjectHandle == "" {
		return schemas.ThreatRequest{}, schemas.NewInputError("request", "subject_handle is required")
	}

	analysis := in.Analysis
	if analysis == nil {
		analysis = in.AnalysisResult
	}
	if analysis != nil {
		req.Analysis = schemas.AnalysisResult{
			ContradictionScore: firstScore(analysis.ContradictionScore, analysis.DissonanceScore),
			DriftScore:         analysis.DriftScore,
			Justification:      analysis.Justification,
		}
	}

	report := in.Impersonation
	if report == nil {
		report = in.FakeAccountAnalysis
	}
	if report != nil {
		r := report.ImpersonationReport
		if report.FakeAccountRiskScore != nil {
			r.RiskScore = *report.FakeAccountRiskScore
		}
		req.Impersonation = &r
	}
	return req, nil
}

// Signals folds a request into the tagged signal set used for fusion.
func Signals(req schemas.ThreatRequest) schemas.SignalSet {
	set := schemas.SignalSet{
		Contradiction: schemas.ContradictionSignal(req.Analysis.ContradictionScore),
		Drift:         schemas.DriftSignal(req.Analysis.DriftScore),
		Impersonation: schemas.ImpersonationSignal(0),
	}
	if req.Impersonation != nil {
		set.Impersonation = req.Impersonation.Signal()
	}
	return set
}

var platformAliases = map[string]string{
	"x.com":        "twitter",
	"t.co":         "twitter",
	"t.me":         "telegram",
	"telegram.org": "telegram",
	"redd.it":      "reddit",
	"youtu.be":     "youtube",
}

// InferPlatform returns the declared platform, or derives one from the
// registrable domain of sourceURL ("www.reddit.com" -> "reddit").
func InferPlatform(declared, sourceURL string) string {
	if declared != "" {
		return strings.ToLower(declared)
	}
	if sourceURL == "" {
		return ""
	}
	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	if alias, ok := platformAliases[domain]; ok {
		return alias
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return strings.TrimSuffix(domain, "."+suffix)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstScore(scores ...*float64) float64 {
	for _, s := range scores {
		if s != nil {
			return *s
		}
	}
	return 0
}
