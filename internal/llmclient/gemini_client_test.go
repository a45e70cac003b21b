package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/guardian/internal/config"
)

func TestNewGeminiClient_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewGeminiClient(context.Background(), config.GeminiConfig{Model: "gemini-2.5-flash"}, logger)
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewGeminiClient(context.Background(), config.GeminiConfig{APIKey: "k"}, logger)
	assert.ErrorContains(t, err, "model is required")
}

func TestNewGeminiClient(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash", Temperature: 0.2}, zaptest.NewLogger(t))
	if assert.NoError(t, err) {
		assert.Equal(t, "gemini-2.5-flash", c.model)
		assert.InDelta(t, 0.2, c.temperature, 1e-6)
	}
}
