package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/evidence"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/service"
)

func newEvidenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Inspect records in the evidence vault",
	}
	cmd.AddCommand(newEvidenceShowCmd())
	return cmd
}

func newEvidenceShowCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "show <evidence-id>",
		Short: "Print a stored evidence record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			evStore, pool, err := service.InitializeEvidenceStore(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to open evidence store: %w", err)
			}
			if pool != nil {
				defer pool.Close()
			}
			vault := evidence.NewVault(evStore, cfg.Evidence(), logger)

			rec, err := vault.Get(ctx, args[0])
			if errors.Is(err, schemas.ErrNotFound) {
				return fmt.Errorf("evidence %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if verify {
				if err := vault.Verify(rec); err != nil {
					return err
				}
				logger.Info("Evidence record verified.")
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Recompute the record's hashes and fail on mismatch.")
	return cmd
}
