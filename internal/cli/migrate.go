package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command. Opening the database
// applies pending migrations, so the command only opens and closes it.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations and exit",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg)

			db, err := openDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			if err := db.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
