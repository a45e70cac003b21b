package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Redis stores alerts as JSON values under "<prefix><evidence_id>", written
// with SET NX so the first registration wins across processes.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger = logger.Named("registry")
	logger.Info("Connected to Redis.", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{rdb: rdb, prefix: cfg.KeyPrefix, ttl: cfg.TTL, logger: logger}, nil
}

func (r *Redis) key(evidenceID string) string {
	return r.prefix + evidenceID
}

func (r *Redis) Register(ctx context.Context, alert schemas.ActiveAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert %s: %w", alert.EvidenceID, err)
	}

	// A zero TTL keeps the key until it is deleted.
	ok, err := r.rdb.SetNX(ctx, r.key(alert.EvidenceID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to register alert %s: %w", alert.EvidenceID, err)
	}
	if !ok {
		return fmt.Errorf("alert %s: %w", alert.EvidenceID, schemas.ErrAlertExists)
	}
	return nil
}

func (r *Redis) Lookup(ctx context.Context, evidenceID string) (schemas.ActiveAlert, error) {
	data, err := r.rdb.Get(ctx, r.key(evidenceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return schemas.ActiveAlert{}, fmt.Errorf("alert %s: %w", evidenceID, schemas.ErrNotFound)
	}
	if err != nil {
		return schemas.ActiveAlert{}, fmt.Errorf("failed to look up alert %s: %w", evidenceID, err)
	}

	var alert schemas.ActiveAlert
	if err := json.Unmarshal(data, &alert); err != nil {
		return schemas.ActiveAlert{}, fmt.Errorf("failed to decode alert %s: %w", evidenceID, err)
	}
	return alert, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
