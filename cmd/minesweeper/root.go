package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/mines"
)

var (
	configPath string
	appConfig  *config.App
	log        *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "minesweeper",
	Short: "Minesweeper with resumable games",
	Long: `minesweeper keeps one game per player in a save slot and resumes
it on the next visit.

Serve the HTTP and WebSocket API
	minesweeper serve

Play in the terminal
	minesweeper play --difficulty medium

Apply database migrations
	minesweeper migrate
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if appConfig, err = config.LoadApp(configPath); err != nil {
			return err
		}
		if log, err = config.NewLogger(appConfig.Log); err != nil {
			return err
		}
		mines.Log = log
		log.WithFields(logrus.Fields{
			"development": config.Development(),
			"store":       appConfig.Store.Driver,
		}).Debug("config loaded")
		return nil
	},
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(migrateCmd)
}
