package cmd

import (
	"genesis-intake/models"
	"genesis-intake/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := utils.OpenDatabase(cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := models.AutoMigrate(db); err != nil {
				return err
			}
			zap.L().Info("✅ Schema migrated", zap.String("db_driver", cfg.DBDriver))
			return nil
		},
	}
}
