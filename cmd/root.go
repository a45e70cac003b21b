// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/config"
	"github.com/xkilldash9x/guardian/internal/observability"
	"github.com/xkilldash9x/guardian/internal/service"
)

type contextKey string

const configKey contextKey = "config"

// Execute builds the root command and runs it with the signal-aware context
// from main.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
		}
		observability.Sync()
		return err
	}
	observability.Sync()
	return nil
}

// NewRootCommand returns the production command tree.
func NewRootCommand() *cobra.Command {
	return newRootCmd(service.NewComponentFactory(os.Stderr))
}

// newRootCmd builds a fresh command tree around factory so tests can run
// commands in isolation.
func newRootCmd(factory service.ComponentFactory) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "guardian",
		Short:         "Guardian watches for VIP impersonation and coordinates the crisis response.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Initialize configuration loading
			if err := initializeConfig(v, cfgFile); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "guardian"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Build and validate the configuration object.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "guardian"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Initialize the logger with the loaded config.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting Guardian", zap.String("version", Version), zap.String("command", cmd.Name()))

			// 4. Store the validated config in the command's context for subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "guardian version %s\n" .Version}}`)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd(factory))
	rootCmd.AddCommand(newProcessCmd(factory))
	rootCmd.AddCommand(newEvidenceCmd())
	rootCmd.AddCommand(newImpersonationCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

// initializeConfig layers the config file, .env and GUARDIAN_* environment
// variables over the defaults already set on v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	// A missing .env is normal; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("GUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An explicitly requested file must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// getConfigFromContext returns the config stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}
