package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/impersonation"
	"github.com/xkilldash9x/guardian/internal/observability"
)

func newImpersonationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impersonation",
		Short: "Impersonation risk tooling",
	}
	cmd.AddCommand(newImpersonationCheckCmd())
	return cmd
}

func newImpersonationCheckCmd() *cobra.Command {
	var (
		info        schemas.AccountInfo
		ageDays     int
		karma       int
		unavailable bool
	)

	cmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Score an account against the protected handles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			detector, err := impersonation.NewDetector(cfg.Impersonation(), observability.GetLogger())
			if err != nil {
				return err
			}

			info.Username = args[0]
			info.ProfileAvailable = !unavailable
			// Unset numeric flags mean the platform did not report the value.
			if cmd.Flags().Changed("age-days") {
				info.AccountAgeDays = &ageDays
			}
			if cmd.Flags().Changed("karma") {
				info.Karma = &karma
			}
			return writeJSON(cmd.OutOrStdout(), detector.Inspect(info))
		},
	}

	cmd.Flags().StringVarP(&info.Platform, "platform", "p", "twitter", "Platform the account lives on (reddit, telegram, twitter, ...).")
	cmd.Flags().StringVar(&info.Title, "title", "", "Channel or display title.")
	cmd.Flags().StringVar(&info.Description, "description", "", "Profile or channel description.")
	cmd.Flags().StringVar(&info.PostText, "post-text", "", "Text of the post under review.")
	cmd.Flags().IntVar(&ageDays, "age-days", 0, "Account age in days.")
	cmd.Flags().IntVar(&karma, "karma", 0, "Karma, followers or members.")
	cmd.Flags().BoolVar(&unavailable, "unavailable", false, "The profile could not be retrieved.")
	return cmd
}
