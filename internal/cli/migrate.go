package cli

import (
	"fmt"
	"slices"

	"github.com/nao1215/mobilenotify/internal/notification"
	"github.com/nao1215/mobilenotify/pkg/migration"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := notification.Migrate(db); err != nil {
				return err
			}

			applied, err := migration.AppliedVersions(db.DB)
			if err != nil {
				return fmt.Errorf("reading applied migrations: %w", err)
			}
			versions := make([]int, 0, len(applied))
			for v := range applied {
				versions = append(versions, v)
			}
			slices.Sort(versions)

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d migrations applied %v\n", cfg.Database.Driver, len(versions), versions)
			return nil
		},
	}
}
