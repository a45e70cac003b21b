// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/guardian/internal/config"
)

// Generator produces a single JSON completion for a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeminiClient implements Generator on top of the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm_client.gemini"),
	}, nil
}

// GenerateJSON sends one request. It never retries; callers own the deadline.
func (c *GeminiClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.temperature),
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini API returned empty content")
	}

	fields := []zap.Field{zap.Duration("duration", time.Since(start)), zap.String("model", c.model)}
	if usage := resp.UsageMetadata; usage != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("total_tokens", usage.TotalTokenCount))
	}
	c.logger.Debug("LLM generation complete (Gemini)", fields...)
	return text, nil
}
