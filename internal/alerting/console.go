package alerting

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// Console writes the alert banner to a local writer and the structured log.
// It is always configured and has no minimum level.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	logger *zap.Logger
}

// NewConsole writes to out, or Stderr when out is nil.
func NewConsole(out io.Writer, color bool, logger *zap.Logger) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out, color: color, logger: logger.Named("console")}
}

func (c *Console) Name() string                  { return "console" }
func (c *Console) Configured() bool              { return true }
func (c *Console) MinLevel() schemas.ThreatLevel { return schemas.ThreatLow }

func (c *Console) Send(_ context.Context, s schemas.ThreatSnapshot) (string, error) {
	banner, err := RenderConsole(s, c.color)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	_, err = fmt.Fprintln(c.out, banner)
	c.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to write console alert: %w", err)
	}

	c.logger.Info("Threat alert.",
		zap.String("level", string(s.Classification.Level)),
		zap.Float64("score", s.Classification.Score),
		zap.String("subject", s.SubjectHandle),
		zap.String("platform", s.Platform),
		zap.String("evidence_id", s.EvidenceID))
	return "", nil
}
