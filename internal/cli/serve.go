package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/coordinator"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the shared playback coordinator",
	Long: `Run the coordinator that owns the shared playback session.

All chorus clients on this machine connect to it; it holds the one
authoritative queue and elects which connected client produces audio.
The coordinator has no storage of its own: connected clients persist
and restore state on its behalf.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	addr := cfg.Coordinator.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	coord := coordinator.New(coordinator.Options{
		SaveDebounce: time.Duration(cfg.Coordinator.SaveDebounce) * time.Millisecond,
		Logger:       log,
	})
	server := coordinator.NewServer(coord, addr, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Coordinator listening on %s\n", addr)
	return server.Run(ctx)
}
