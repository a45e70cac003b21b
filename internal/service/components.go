// File: internal/service/components.go
package service

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/evidence"
	"github.com/xkilldash9x/guardian/internal/impersonation"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/orchestrator"
	"github.com/xkilldash9x/guardian/internal/scoring"
)

// closer is satisfied by the Redis registry.
type closer interface {
	Close() error
}

// Components holds every initialized service behind the pipeline and owns
// their lifecycle.
type Components struct {
	Orchestrator *orchestrator.Orchestrator
	Vault        *evidence.Vault
	Detector     *impersonation.Detector
	// Collector is nil when signal collection could not be configured.
	Collector *scoring.Collector
	Metrics   *observability.Metrics

	DBPool   *pgxpool.Pool
	NATSConn *nats.Conn
	registry closer

	logger *zap.Logger
}

// Shutdown releases external connections. It is safe to call on a partially
// initialized Components.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = observability.GetLogger()
	}
	logger.Debug("Beginning components shutdown sequence.")

	// 1. Flush and close the alert bus.
	if c.NATSConn != nil {
		if err := c.NATSConn.Drain(); err != nil {
			logger.Warn("Error draining NATS connection.", zap.Error(err))
		}
		logger.Debug("NATS connection drained.")
	}

	// 2. Close the registry backend.
	if c.registry != nil {
		if err := c.registry.Close(); err != nil {
			logger.Warn("Error closing alert registry.", zap.Error(err))
		}
		logger.Debug("Alert registry closed.")
	}

	// 3. Close the database connection pool.
	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}

	logger.Info("All components shut down successfully.")
}
