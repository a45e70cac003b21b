package impersonation

import (
	"github.com/xkilldash9x/guardian/api/schemas"
)

const similarityWeight = 5.0

var recommendations = map[schemas.ThreatLevel]string{
	schemas.ThreatCritical: "IMMEDIATE ACTION REQUIRED - Likely impersonation account, consider legal action",
	schemas.ThreatHigh:     "HIGH PRIORITY - Investigate further, consider platform reporting",
	schemas.ThreatMedium:   "MONITOR CLOSELY - Suspicious patterns detected, continue surveillance",
	schemas.ThreatLow:      "ROUTINE MONITORING - Low risk, continue standard monitoring",
}

// GenerateReport combines the account analysis with the similarity check.
// Total risk is the account risk plus max_similarity*5, capped at 10, banded
// at 4/6/8. The account flags are copied so the analysis is left untouched.
func GenerateReport(analysis schemas.AccountAnalysis, similarity schemas.SimilarityCheck) schemas.ImpersonationReport {
	total := analysis.RiskScore + similarity.MaxSimilarity*similarityWeight
	if total > maxRisk {
		total = maxRisk
	}

	flags := make([]string, 0, len(analysis.SuspiciousFlags)+1)
	flags = append(flags, analysis.SuspiciousFlags...)
	if similarity.IsSuspiciousSimilarity {
		flags = append(flags, "Username highly similar to protected handle: "+similarity.ClosestMatch)
	}

	level := reportLevel(total)
	return schemas.ImpersonationReport{
		RiskScore:          total,
		ThreatLevel:        level,
		SuspiciousFlags:    flags,
		SimilarityAnalysis: similarity,
		AccountDetails:     analysis,
		Recommendation:     recommendations[level],
	}
}

// Inspect runs the full account inspection against the protected handles.
func (d *Detector) Inspect(info schemas.AccountInfo) schemas.ImpersonationReport {
	return GenerateReport(d.AnalyzeAccount(info), CheckUsernameSimilarity(info.Username, d.cfg.ProtectedHandles))
}

func reportLevel(total float64) schemas.ThreatLevel {
	switch {
	case total >= 8.0:
		return schemas.ThreatCritical
	case total >= 6.0:
		return schemas.ThreatHigh
	case total >= 4.0:
		return schemas.ThreatMedium
	default:
		return schemas.ThreatLow
	}
}
