package cmd

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/orchestrator"
	"github.com/xkilldash9x/guardian/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type processOptions struct {
	file       string
	collect    bool
	mediaURLs  []string
	backend    string
	noTelegram bool
}

// newProcessCmd runs one payload through the pipeline. The payload uses the
// same JSON shape as POST /v1/threats, legacy field names included.
func newProcessCmd(factory service.ComponentFactory) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single threat payload and print the consolidated response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if opts.backend != "" {
				cfg.SetEvidenceBackend(opts.backend)
			}
			if opts.noTelegram {
				cfg.SetAlertsTelegramEnabled(false)
			}

			payload, err := readPayload(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}
			req, err := orchestrator.DecodeThreatRequest(payload)
			if err != nil {
				return err
			}

			components, err := factory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			if opts.collect {
				if components.Collector == nil {
					return fmt.Errorf("signal collection requested but no scorer is configured")
				}
				collected, err := components.Collector.Collect(ctx, req.SubjectHandle, req.Content, opts.mediaURLs)
				if err != nil {
					return fmt.Errorf("signal collection failed: %w", err)
				}
				req.Analysis = collected.Analysis
			}

			resp, err := components.Orchestrator.ProcessThreat(ctx, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "Payload file, or - for stdin.")
	cmd.Flags().BoolVar(&opts.collect, "collect", false, "Score the content with the configured scorers instead of using the payload's analysis.")
	cmd.Flags().StringSliceVar(&opts.mediaURLs, "media", nil, "Media URLs to analyze when --collect is set.")
	cmd.Flags().StringVar(&opts.backend, "evidence-backend", "", "Evidence backend: memory, file or postgres. (Overrides config/env)")
	cmd.Flags().BoolVar(&opts.noTelegram, "no-telegram", false, "Disable the Telegram channel for this run.")
	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
