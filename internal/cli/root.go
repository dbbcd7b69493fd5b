package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the healing-guide command tree. Running it without a subcommand serves HTTP.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "healing-guide",
		Short: "Ayurvedic constitution quiz and guidance backend",
		Long: `healing-guide serves the dosha quiz, the newsletter-gated guidance API,
the voice endpoints and the lead-magnet download.

Configuration comes from config.yaml (./config or .) and environment variables.`,
		SilenceUsage: true,
	}

	serve := newServeCmd()
	root.RunE = serve.RunE

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newQuizCmd())
	root.AddCommand(newLeadMagnetCmd())
	root.AddCommand(newAdminCmd())
	return root
}
