// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/alerting"
	"github.com/xkilldash9x/guardian/internal/archive"
	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/evidence"
	"github.com/xkilldash9x/guardian/internal/impersonation"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/orchestrator"
)

// ComponentFactory creates the component set behind the pipeline. It lets the
// CLI commands be tested without real backends.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct {
	consoleOut io.Writer
}

// NewComponentFactory creates a factory whose console channel writes to
// consoleOut (Stderr when nil).
func NewComponentFactory(consoleOut io.Writer) ComponentFactory {
	return &concreteFactory{consoleOut: consoleOut}
}

// Create handles dependency injection and initialization of all components.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	components := &Components{Metrics: observability.NewMetrics(), logger: logger}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Evidence store and vault
	evStore, pool, err := InitializeEvidenceStore(ctx, cfg, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize evidence store: %w", err)
		return nil, initializationErr
	}
	components.DBPool = pool
	components.Vault = evidence.NewVault(evStore, cfg.Evidence(), logger)
	logger.Debug("Evidence vault initialized.", zap.String("backend", cfg.Evidence().Backend))

	// 2. Active-alert registry
	reg, regCloser, err := InitializeRegistry(ctx, cfg.Registry(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize alert registry: %w", err)
		return nil, initializationErr
	}
	components.registry = regCloser
	logger.Debug("Alert registry initialized.", zap.String("backend", cfg.Registry().Backend))

	// 3. Alert channels and dispatcher
	console, push, conn, err := InitializeChannels(cfg.Alerts(), f.consoleOut, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize alert channels: %w", err)
		return nil, initializationErr
	}
	components.NATSConn = conn
	dispatcher := alerting.NewDispatcher(console, push, logger,
		alerting.WithChannelTimeout(cfg.Alerts().Telegram.Timeout),
		alerting.WithMetrics(components.Metrics))
	logger.Debug("Alert dispatcher initialized.", zap.Strings("channels", dispatcher.Channels()))

	// 4. Orchestrator
	opts := []orchestrator.Option{orchestrator.WithMetrics(components.Metrics)}
	if cfg.Archive().Enabled {
		opts = append(opts, orchestrator.WithArchiver(archive.NewWayback(cfg.Archive(), logger), cfg.Archive().Timeout))
	}
	orch, err := orchestrator.New(logger, components.Vault, dispatcher, reg, opts...)
	if err != nil {
		initializationErr = fmt.Errorf("failed to create orchestrator: %w", err)
		return nil, initializationErr
	}
	components.Orchestrator = orch

	// 5. Impersonation detector
	detector, err := impersonation.NewDetector(cfg.Impersonation(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to create impersonation detector: %w", err)
		return nil, initializationErr
	}
	components.Detector = detector

	// 6. Signal collector. Optional: the pipeline accepts precomputed signals.
	collector, err := InitializeCollector(ctx, cfg.Scoring(), logger)
	if err != nil {
		logger.Warn("Signal collection is unavailable; only precomputed signals will be accepted.", zap.Error(err))
	} else {
		components.Collector = collector
	}

	logger.Info("All components initialized successfully.")
	return components, nil
}
