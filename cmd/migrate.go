package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/service"
	"github.com/xkilldash9x/guardian/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the evidence schema migrations to PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				files, err := store.MigrationFiles()
				if err != nil {
					return fmt.Errorf("failed to list migrations: %w", err)
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			pool, err := service.InitializeDBPool(ctx, cfg.Database(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool, logger); err != nil {
				return err
			}
			logger.Info("Database schema is up to date.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the embedded migrations without connecting.")
	return cmd
}
