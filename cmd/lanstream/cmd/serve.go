package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/lanstream/internal/config"
	"github.com/nfrund/lanstream/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long: `Start the relay: websocket fan-out, history log, upload ingest and the
static browser client, all on one port. Configuration comes from LANSTREAM_*
environment variables (or a .env file); the --addr flag overrides the bind
address.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.New()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		s, err := server.New(cfg)
		if err != nil {
			slog.Error("Failed to start relay", "error", err)
			os.Exit(1)
		}
		s.RegisterRoutes()
		s.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "bind address, e.g. :8080 (overrides LANSTREAM_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
