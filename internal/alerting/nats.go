package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

// Publisher is the subset of *nats.Conn the bus channel needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// AlertEvent is the JSON payload published on "<prefix>.<level>".
type AlertEvent struct {
	EventID       string              `json:"event_id"`
	Type          string              `json:"type"`
	EvidenceID    string              `json:"evidence_id"`
	Level         schemas.ThreatLevel `json:"level"`
	Score         float64             `json:"score"`
	SubjectHandle string              `json:"subject_handle"`
	Platform      string              `json:"platform"`
	SourceURL     string              `json:"source_url,omitempty"`
	ChainHash     string              `json:"chain_hash"`
	Content       string              `json:"content"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Bus publishes alert events to NATS for downstream consumers.
type Bus struct {
	pub      Publisher
	prefix   string
	minLevel schemas.ThreatLevel
	logger   *zap.Logger
}

// NewBus builds the channel. A nil publisher leaves it unconfigured.
func NewBus(pub Publisher, cfg config.NATSConfig, logger *zap.Logger) (*Bus, error) {
	logger = logger.Named("nats")
	minLevel, err := parsePushLevel("nats", cfg.MinLevel, logger)
	if err != nil {
		return nil, err
	}
	return &Bus{pub: pub, prefix: cfg.SubjectPrefix, minLevel: minLevel, logger: logger}, nil
}

func (b *Bus) Name() string                  { return "nats" }
func (b *Bus) Configured() bool              { return b.pub != nil && b.prefix != "" }
func (b *Bus) MinLevel() schemas.ThreatLevel { return b.minLevel }

// Subject returns the NATS subject for a level.
func (b *Bus) Subject(level schemas.ThreatLevel) string {
	return b.prefix + "." + string(level)
}

func (b *Bus) Send(ctx context.Context, s schemas.ThreatSnapshot) (string, error) {
	event := AlertEvent{
		EventID:       uuid.NewString(),
		Type:          "threat.alert",
		EvidenceID:    s.EvidenceID,
		Level:         s.Classification.Level,
		Score:         s.Classification.Score,
		SubjectHandle: s.SubjectHandle,
		Platform:      s.Platform,
		SourceURL:     s.SourceURL,
		ChainHash:     s.ChainHash,
		Content:       Truncate(s.Content, PushContentLimit),
		Timestamp:     s.Timestamp,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to encode alert event: %w", err)
	}

	subject := b.Subject(s.Classification.Level)
	if err := b.pub.Publish(subject, data); err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	if err := b.pub.FlushWithContext(ctx); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", subject, err)
	}

	b.logger.Debug("Published alert event.", zap.String("subject", subject), zap.String("event_id", event.EventID))
	return "subject=" + subject, nil
}

// ConnectNATS dials the bus with reconnect handling.
func ConnectNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("guardian"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS.", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS.", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	logger.Info("Connected to NATS.", zap.String("url", cfg.URL))
	return conn, nil
}
