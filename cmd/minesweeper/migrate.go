package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := config.DbURL()
		if err != nil {
			return err
		}
		migrator, err := database.Migrate(url, migrations)
		if err != nil {
			return err
		}
		defer migrator.Close()

		version, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to check migration version: %w", err)
		}
		log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("migration successful")
		return nil
	},
}
