package cmd

import (
	"github.com/eruedin/swad-core-sub002/internal/config"
	"github.com/eruedin/swad-core-sub002/internal/database"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and a demo game",
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
		return database.Seed(db, logger)
	},
}
