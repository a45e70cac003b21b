package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/api"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/service"
)

func newServeCmd(factory service.ComponentFactory) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in front of the crisis pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SetServerAddr(addr)
			}

			components, err := factory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			deps := api.Deps{
				Processor: components.Orchestrator,
				Evidence:  components.Vault,
				Inspector: components.Detector,
			}
			// A nil *scoring.Collector must stay a nil interface.
			if components.Collector != nil {
				deps.Collector = components.Collector
			}

			server, err := api.NewServer(cfg.Server(), deps, components.Metrics.Handler(), logger)
			if err != nil {
				return fmt.Errorf("failed to create API server: %w", err)
			}
			logger.Info("Guardian API ready.", zap.String("address", cfg.Server().Addr), zap.String("version", Version))
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address. (Overrides config/env)")
	return cmd
}
