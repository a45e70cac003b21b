// Package impersonation scores accounts and channels for signs that they are
// falsely presenting as a protected subject.
package impersonation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

const maxRisk = 10.0

// Heuristic weights. Each heuristic either fires or it does not.
const (
	weightProfileUnavailable = 1.0
	weightNewAccount         = 2.0
	weightLowKarma           = 1.5
	weightRedditPattern      = 3.0
	weightPostClaims         = 4.0
	weightLowMembersClaims   = 3.0
	weightChannelPattern     = 2.5
	weightSubstitution       = 3.5
)

var defaultPatterns = []string{
	`verified[_-]?account`,
	`real[_-]?account`,
	`official[_-]?page`,
	`authentic[_-]?profile`,
}

var claimPhrases = []string{
	"i am", "this is", "official account", "verified profile",
	"real account", "authentic", "genuine", "legitimate",
	"follow my official", "my new account", "backup account",
}

// substitutions lists look-alike characters used in place of latin letters.
var substitutions = map[rune][]string{
	'a': {"@", "α", "а"},
	'e': {"3", "е"},
	'i': {"1", "!", "і"},
	'o': {"0", "о"},
	'u': {"υ", "и"},
}

// Detector runs the additive account heuristics and the handle similarity check.
type Detector struct {
	cfg      config.ImpersonationConfig
	patterns []*regexp.Regexp
	logger   *zap.Logger
	now      func() time.Time
}

// NewDetector compiles the configured username patterns.
func NewDetector(cfg config.ImpersonationConfig, logger *zap.Logger) (*Detector, error) {
	raw := cfg.SuspiciousPatterns
	if len(raw) == 0 {
		raw = defaultPatterns
	}
	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid suspicious pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Detector{
		cfg:      cfg,
		patterns: patterns,
		logger:   logger.Named("impersonation"),
		now:      time.Now,
	}, nil
}

// ProtectedHandles returns the configured handles of the protected subject.
func (d *Detector) ProtectedHandles() []string {
	return d.cfg.ProtectedHandles
}

// scorecard accumulates fired heuristics; the total saturates at maxRisk.
type scorecard struct {
	risk  float64
	flags []string
}

func (s *scorecard) fire(weight float64, flag string) {
	s.risk += weight
	s.flags = append(s.flags, flag)
}

func (s *scorecard) total() float64 {
	if s.risk > maxRisk {
		return maxRisk
	}
	return s.risk
}

// AnalyzeAccount scores an account. Every heuristic that fires contributes a
// fixed weight and a flag; the result is capped at 10.
func (d *Detector) AnalyzeAccount(info schemas.AccountInfo) schemas.AccountAnalysis {
	card := &scorecard{flags: []string{}}

	switch strings.ToLower(info.Platform) {
	case "telegram":
		d.telegramHeuristics(info, card)
	default:
		d.accountHeuristics(info, card)
	}

	analysis := schemas.AccountAnalysis{
		Username:        info.Username,
		Platform:        info.Platform,
		RiskScore:       card.total(),
		SuspiciousFlags: card.flags,
		AnalyzedAt:      d.now().UTC(),
	}
	d.logger.Debug("Account analysed.",
		zap.String("username", info.Username),
		zap.String("platform", info.Platform),
		zap.Float64("risk_score", analysis.RiskScore),
		zap.Int("flags", len(analysis.SuspiciousFlags)))
	return analysis
}

func (d *Detector) accountHeuristics(info schemas.AccountInfo, card *scorecard) {
	if !info.ProfileAvailable {
		card.fire(weightProfileUnavailable, "Could not retrieve account information")
	} else {
		if info.AccountAgeDays != nil && *info.AccountAgeDays < d.cfg.NewAccountDays {
			card.fire(weightNewAccount, fmt.Sprintf("Very new account (%d days old)", *info.AccountAgeDays))
		}
		if info.Karma != nil && *info.Karma < d.cfg.LowKarma {
			card.fire(weightLowKarma, fmt.Sprintf("Low karma account (%d total karma)", *info.Karma))
		}
	}

	name := strings.ToLower(info.Username)
	for _, re := range d.patterns {
		if re.MatchString(name) {
			card.fire(weightRedditPattern, "Suspicious username pattern: "+re.String())
		}
	}

	if ContainsImpersonationClaims(info.Title + " " + info.PostText) {
		card.fire(weightPostClaims, "Post contains impersonation claims")
	}
}

func (d *Detector) telegramHeuristics(info schemas.AccountInfo, card *scorecard) {
	members := 0
	if info.Karma != nil {
		members = *info.Karma
	}
	if members < d.cfg.LowMembers && ContainsImpersonationClaims(info.Title+" "+info.Description) {
		card.fire(weightLowMembersClaims, fmt.Sprintf("Low subscriber count (%d) with official claims", members))
	}

	name := strings.ToLower(info.Username)
	for _, re := range d.patterns {
		if re.MatchString(name) {
			card.fire(weightChannelPattern, "Suspicious channel name pattern: "+re.String())
		}
	}

	if HasCharacterSubstitution(info.Username) {
		card.fire(weightSubstitution, "Potential character substitution in channel name")
	}
}

// ContainsImpersonationClaims reports whether text claims to be an official,
// verified or real account.
func ContainsImpersonationClaims(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range claimPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// HasCharacterSubstitution reports whether a handle contains look-alike
// characters commonly swapped in for latin letters.
func HasCharacterSubstitution(username string) bool {
	lower := strings.ToLower(username)
	for _, subs := range substitutions {
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}
