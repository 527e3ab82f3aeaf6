package cli

import (
	"fmt"

	"home-panel/internal/common/database"
	"home-panel/internal/common/logging"
	"home-panel/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := logging.FromContext(ctx)

			db, err := database.OpenSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			version, err := database.Migrate(ctx, db, migrations.FS)
			if err != nil {
				return err
			}
			logger.Info("schema up to date", "db", cfg.DBPath, "version", version)
			return nil
		},
	}
}
