package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/healing-guide-backend/internal/app"
)

func newLeadMagnetCmd() *cobra.Command {
	lm := &cobra.Command{
		Use:   "lead-magnet",
		Short: "Manage the downloadable lead-magnet PDF",
	}
	lm.AddCommand(&cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Publish a PDF to the configured object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), log)
			if err != nil {
				log.Sync()
				return err
			}
			defer a.Close()

			if err := a.Services.LeadMagnet.Publish(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s storage\n", args[0], a.Clients.Store.Mode())
			return nil
		},
	})
	return lm
}
