package cmd

import (
	"github.com/eruedin/swad-core-sub002/internal/config"
	"github.com/eruedin/swad-core-sub002/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations, including legacy visibility decoding",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		db := database.Connect(cfg, logger)
		database.AutoMigrate(db, logger)
		return database.MigrateLegacyVisibility(db, logger)
	},
}
