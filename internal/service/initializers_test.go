package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/registry"
	"github.com/xkilldash9x/guardian/internal/store"
)

func TestInitializeEvidenceStore(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("memory", func(t *testing.T) {
		cfg := testConfig(t)
		s, pool, err := InitializeEvidenceStore(ctx, cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, pool)
		assert.IsType(t, &store.MemoryStore{}, s)
	})

	t.Run("file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EvidenceCfg.Backend = "file"
		cfg.EvidenceCfg.Dir = filepath.Join(t.TempDir(), "evidence")

		s, _, err := InitializeEvidenceStore(ctx, cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &store.FileStore{}, s)
		_, statErr := os.Stat(cfg.EvidenceCfg.Dir)
		assert.NoError(t, statErr)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EvidenceCfg.Backend = "s3"
		_, _, err := InitializeEvidenceStore(ctx, cfg, logger)
		assert.ErrorContains(t, err, "unsupported evidence backend: s3")
	})
}

func TestInitializeRegistry(t *testing.T) {
	reg, c, err := InitializeRegistry(context.Background(), config.RegistryConfig{Backend: "memory"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &registry.Memory{}, reg)
	assert.Nil(t, c)
}

func TestInitializeChannels(t *testing.T) {
	cfg := config.NewDefaultConfig().Alerts()
	cfg.NATS.Enabled = false

	console, push, conn, err := InitializeChannels(cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Equal(t, "console", console.Name())
	require.Len(t, push, 1)
	assert.Equal(t, "telegram", push[0].Name())

	cfg.Telegram.MinLevel = "extreme"
	_, _, _, err = InitializeChannels(cfg, nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestInitializeCollector(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("http", func(t *testing.T) {
		c, err := InitializeCollector(ctx, config.ScoringConfig{Provider: "http", AnalysisURL: "http://localhost:8000"}, logger)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("gemini", func(t *testing.T) {
		corpus := filepath.Join(t.TempDir(), "corpus.yaml")
		require.NoError(t, os.WriteFile(corpus, []byte("subjects:\n  elonmusk:\n    - \"Mars is next.\"\n"), 0o600))

		c, err := InitializeCollector(ctx, config.ScoringConfig{
			Provider:   "gemini",
			CorpusFile: corpus,
			Gemini:     config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash"},
		}, logger)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("gemini without key", func(t *testing.T) {
		corpus := filepath.Join(t.TempDir(), "corpus.yaml")
		require.NoError(t, os.WriteFile(corpus, []byte("subjects: {}\n"), 0o600))

		_, err := InitializeCollector(ctx, config.ScoringConfig{Provider: "gemini", CorpusFile: corpus, Gemini: config.GeminiConfig{Model: "m"}}, logger)
		assert.ErrorContains(t, err, "API key is required")
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := InitializeCollector(ctx, config.ScoringConfig{Provider: "openai"}, logger)
		assert.ErrorContains(t, err, "unsupported scoring provider: openai")
	})
}
