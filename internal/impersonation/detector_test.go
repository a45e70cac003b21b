package impersonation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

func intPtr(v int) *int { return &v }

func testConfig() config.ImpersonationConfig {
	return config.ImpersonationConfig{
		ProtectedHandles: []string{"elonmusk", "spacex"},
		NewAccountDays:   30,
		LowKarma:         100,
		LowMembers:       1000,
	}
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(testConfig(), zap.NewNop())
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestNewDetector_InvalidPattern(t *testing.T) {
	cfg := testConfig()
	cfg.SuspiciousPatterns = []string{"valid", "([unclosed"}
	_, err := NewDetector(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid suspicious pattern")
}

func TestAnalyzeAccount_Reddit(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		name      string
		info      schemas.AccountInfo
		wantRisk  float64
		wantFlags []string
	}{
		{
			name: "established account with no claims",
			info: schemas.AccountInfo{
				Platform: "reddit", Username: "gardening_fan",
				AccountAgeDays: intPtr(900), Karma: intPtr(25000), ProfileAvailable: true,
			},
			wantRisk:  0,
			wantFlags: []string{},
		},
		{
			name:      "profile unavailable",
			info:      schemas.AccountInfo{Platform: "reddit", Username: "ghost"},
			wantRisk:  1.0,
			wantFlags: []string{"Could not retrieve account information"},
		},
		{
			name: "new low karma account",
			info: schemas.AccountInfo{
				Platform: "reddit", Username: "someone",
				AccountAgeDays: intPtr(3), Karma: intPtr(12), ProfileAvailable: true,
			},
			wantRisk: 3.5,
			wantFlags: []string{
				"Very new account (3 days old)",
				"Low karma account (12 total karma)",
			},
		},
		{
			name: "threshold boundaries do not fire",
			info: schemas.AccountInfo{
				Platform: "reddit", Username: "someone",
				AccountAgeDays: intPtr(30), Karma: intPtr(100), ProfileAvailable: true,
			},
			wantRisk:  0,
			wantFlags: []string{},
		},
		{
			name: "pattern and claims",
			info: schemas.AccountInfo{
				Platform: "reddit", Username: "Elon_Real_Account",
				AccountAgeDays: intPtr(400), Karma: intPtr(5000), ProfileAvailable: true,
				PostText: "This is my backup account, follow here",
			},
			wantRisk: 7.0,
			wantFlags: []string{
				"Suspicious username pattern: real[_-]?account",
				"Post contains impersonation claims",
			},
		},
		{
			name: "saturates at ten",
			info: schemas.AccountInfo{
				Platform: "reddit", Username: "verified_account_real_account_official_page",
				AccountAgeDays: intPtr(1), Karma: intPtr(1), ProfileAvailable: true,
				Title: "I am the official account",
			},
			wantRisk: 10.0,
			wantFlags: []string{
				"Very new account (1 days old)",
				"Low karma account (1 total karma)",
				"Suspicious username pattern: verified[_-]?account",
				"Suspicious username pattern: real[_-]?account",
				"Suspicious username pattern: official[_-]?page",
				"Post contains impersonation claims",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.AnalyzeAccount(tt.info)
			assert.InDelta(t, tt.wantRisk, got.RiskScore, 1e-9)
			assert.Equal(t, tt.wantFlags, got.SuspiciousFlags)
			assert.Equal(t, tt.info.Username, got.Username)
			assert.LessOrEqual(t, got.RiskScore, 10.0)
		})
	}
}

func TestAnalyzeAccount_Telegram(t *testing.T) {
	d := newTestDetector(t)

	t.Run("small channel claiming to be official", func(t *testing.T) {
		got := d.AnalyzeAccount(schemas.AccountInfo{
			Platform: "telegram", Username: "elon_news",
			Title: "Elon News", Description: "This is the official account",
			Karma: intPtr(250), ProfileAvailable: true,
		})
		assert.InDelta(t, 3.0, got.RiskScore, 1e-9)
		assert.Equal(t, []string{"Low subscriber count (250) with official claims"}, got.SuspiciousFlags)
	})

	t.Run("large channel with claims is not flagged on size", func(t *testing.T) {
		got := d.AnalyzeAccount(schemas.AccountInfo{
			Platform: "telegram", Username: "spacenews",
			Description: "The official account of nothing",
			Karma:       intPtr(50000), ProfileAvailable: true,
		})
		assert.Zero(t, got.RiskScore)
	})

	t.Run("character substitution and pattern", func(t *testing.T) {
		got := d.AnalyzeAccount(schemas.AccountInfo{
			Platform: "Telegram", Username: "el0n_official_page",
			Karma: intPtr(5000), ProfileAvailable: true,
		})
		assert.InDelta(t, 6.0, got.RiskScore, 1e-9)
		assert.Equal(t, []string{
			"Suspicious channel name pattern: official[_-]?page",
			"Potential character substitution in channel name",
		}, got.SuspiciousFlags)
	})
}

func TestAnalyzeAccount_LogsResult(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d, err := NewDetector(testConfig(), zap.New(core))
	require.NoError(t, err)

	d.AnalyzeAccount(schemas.AccountInfo{Platform: "reddit", Username: "ghost"})

	entries := logs.FilterMessage("Account analysed.").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "impersonation", entries[0].LoggerName)
	assert.Equal(t, "ghost", entries[0].ContextMap()["username"])
}

func TestContainsImpersonationClaims(t *testing.T) {
	assert.True(t, ContainsImpersonationClaims("Follow my OFFICIAL page"))
	assert.True(t, ContainsImpersonationClaims("100% genuine"))
	assert.False(t, ContainsImpersonationClaims("rocket launch schedule"))
	assert.False(t, ContainsImpersonationClaims(""))
}

func TestHasCharacterSubstitution(t *testing.T) {
	assert.True(t, HasCharacterSubstitution("el0nmusk"))
	assert.True(t, HasCharacterSubstitution("sp@cex"))
	// Cyrillic 'а' in place of latin 'a'.
	assert.True(t, HasCharacterSubstitution("spаcex"))
	assert.False(t, HasCharacterSubstitution("spacex"))
}
