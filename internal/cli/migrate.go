package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/healing-guide-backend/internal/app"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := app.LoadConfig(log)
			if err != nil {
				return err
			}
			theDB, err := app.OpenDatabase(log, cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := theDB.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", theDB.Dialector.Name())
			return nil
		},
	}
}
