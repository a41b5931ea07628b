package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	app "instrument-tracker/internal"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the instrument tracker web server",
	Run: func(cmd *cobra.Command, args []string) {
		ServerMain()
	},
}

func ServerMain() {
	if cfg == nil || svc == nil {
		panic("Config not initialized.")
	}

	server := app.HTTPServer(cfg, svc)

	slog.Info("Starting instrument tracker", "listen", cfg.Listen, "base_url", cfg.BaseURL, "metrics", cfg.MetricsEnabled)
	if err := server.Run(cfg.Listen); err != nil {
		fail("Server stopped", err)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
