// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/alerting"
	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/llmclient"
	"github.com/xkilldash9x/guardian/internal/registry"
	"github.com/xkilldash9x/guardian/internal/scoring"
	"github.com/xkilldash9x/guardian/internal/store"
)

// InitializeDBPool opens and pings a PostgreSQL pool.
func InitializeDBPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is not configured (hint: check GUARDIAN_DATABASE_URL or DATABASE_URL)")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse PGX pool config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create PGX connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	logger.Debug("Database connection pool initialized.")
	return pool, nil
}

// InitializeEvidenceStore builds the configured evidence backend. The pool is
// non-nil only for the postgres backend and is owned by the caller.
func InitializeEvidenceStore(ctx context.Context, cfg config.Interface, logger *zap.Logger) (schemas.EvidenceStore, *pgxpool.Pool, error) {
	switch cfg.Evidence().Backend {
	case "memory":
		logger.Warn("Evidence is kept in memory and will be lost on exit. This is not suitable for production use.")
		return store.NewMemory(), nil, nil
	case "file":
		fs, err := store.NewFile(cfg.Evidence().Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file evidence store.", zap.String("dir", fs.Dir()))
		return fs, nil, nil
	case "postgres":
		pool, err := InitializeDBPool(ctx, cfg.Database(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		pg, err := store.NewPostgres(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported evidence backend: %s", cfg.Evidence().Backend)
	}
}

// InitializeRegistry builds the active-alert registry. The returned closer is
// nil for the in-memory backend.
func InitializeRegistry(ctx context.Context, cfg config.RegistryConfig, logger *zap.Logger) (schemas.AlertRegistry, closer, error) {
	switch cfg.Backend {
	case "memory", "":
		return registry.NewMemory(), nil, nil
	case "redis":
		r, err := registry.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("unsupported registry backend: %s", cfg.Backend)
	}
}

// InitializeChannels builds the console channel and the push channels in
// priority order: Telegram first, then the NATS bus when enabled.
func InitializeChannels(cfg config.AlertsConfig, consoleOut io.Writer, logger *zap.Logger) (alerting.Channel, []alerting.Channel, *nats.Conn, error) {
	console := alerting.NewConsole(consoleOut, cfg.Console.Color, logger)

	telegram, err := alerting.NewTelegram(cfg.Telegram, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	push := []alerting.Channel{telegram}

	if !cfg.NATS.Enabled {
		return console, push, nil, nil
	}
	conn, err := alerting.ConnectNATS(cfg.NATS, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	bus, err := alerting.NewBus(conn, cfg.NATS, logger)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	return console, append(push, bus), conn, nil
}

// InitializeCollector wires the scorer collaborators for the configured
// provider.
func InitializeCollector(ctx context.Context, cfg config.ScoringConfig, logger *zap.Logger) (*scoring.Collector, error) {
	var (
		contradiction schemas.ContradictionScorer
		drift         schemas.DriftScorer
		media         schemas.MediaAnalyzer
	)

	switch cfg.Provider {
	case "http":
		hc, err := scoring.NewHTTPClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		contradiction, drift = hc, hc
		if hc.MediaEnabled() {
			media = hc
		}
	case "gemini":
		corpus, err := scoring.LoadCorpus(cfg.CorpusFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load reference corpus: %w", err)
		}
		gen, err := llmclient.NewGeminiClient(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		contradiction = scoring.NewGeminiScorer(gen, corpus, logger)
		drift = scoring.NewStyleDriftScorer(corpus)
		if cfg.MediaURL != "" && cfg.AnalysisURL != "" {
			hc, err := scoring.NewHTTPClient(cfg, logger)
			if err != nil {
				return nil, err
			}
			media = hc
		}
	default:
		return nil, fmt.Errorf("unsupported scoring provider: %s", cfg.Provider)
	}

	logger.Debug("Signal collector initialized.", zap.String("provider", cfg.Provider), zap.Bool("media", media != nil))
	return scoring.NewCollector(contradiction, drift, media, logger), nil
}
