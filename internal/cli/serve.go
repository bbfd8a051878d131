package cli

import (
	"github.com/spf13/cobra"

	"leadscout/internal/handlers"
	"leadscout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		api := handlers.NewAPI(a.service, a.store, a.logger)
		router := server.Setup(api, a.db, a.logger)
		return server.Start(a.cfg.Server.Port, router, a.logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
