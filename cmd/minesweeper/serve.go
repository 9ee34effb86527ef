package main

import (
	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			appConfig.Addr = addr
		}
		if driver, _ := cmd.Flags().GetString("store"); driver != "" {
			appConfig.Store.Driver = driver
		}

		ctx, cancel := signalContext()
		defer cancel()

		return app.New(log, appConfig, migrations).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address, overrides the config")
	serveCmd.Flags().String("store", "", "Slot store: memory, file, postgres or redis")
}
