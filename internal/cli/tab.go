package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/coordinator"
	cherrors "github.com/corvale/chorus/internal/errors"
	"github.com/corvale/chorus/internal/library"
	"github.com/corvale/chorus/internal/store"
	"github.com/corvale/chorus/internal/tab"
	"github.com/corvale/chorus/internal/transport"
)

var tabStandalone bool

var tabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Run a headless playback client",
	Long: `Run a long-lived playback client without a UI.

The tab joins the shared session, offers its audio output, and plays
whatever the session directs at it whenever it is elected the active
audio client. With --standalone it hosts its own in-process session
instead of connecting to a coordinator daemon.`,
	RunE: runTab,
}

func init() {
	tabCmd.Flags().BoolVar(&tabStandalone, "standalone", false, "host the session in-process instead of dialing a coordinator")
	rootCmd.AddCommand(tabCmd)
}

func runTab(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if cfg.Library.Path == "" {
		return cherrors.ErrLibraryNotConfigured
	}
	lib, err := library.Open(cfg.Library.Path, log)
	if err != nil {
		return err
	}

	bridge, err := store.NewBridge(cfg.Store.StateFile, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var conn transport.Conn
	if tabStandalone {
		coord := coordinator.New(coordinator.Options{
			SaveDebounce: time.Duration(cfg.Coordinator.SaveDebounce) * time.Millisecond,
			Logger:       log,
		})
		go coord.Run(ctx)
		local, remote := transport.Pipe()
		coord.Attach(remote)
		conn = local
	} else {
		dialCtx, cancel := context.WithTimeout(ctx, sessionTimeout)
		conn, err = transport.Dial(dialCtx, cfg.Coordinator.URL)
		cancel()
		if err != nil {
			return cherrors.WithSuggestion(err,
				"Start the coordinator with 'chorus serve', or use --standalone")
		}
	}

	adapter := tab.New(tab.Options{
		Conn:    conn,
		Output:  newAudioOutput(),
		Bridge:  bridge,
		Resolve: lib.Resolve,
		Logger:  log,
	})
	if err := adapter.Start(); err != nil {
		conn.Close()
		return err
	}
	defer adapter.Close()

	// Headless tabs have no user gesture to wait for; probe right away so
	// the election sees the real capability.
	adapter.ProbeAudio()
	adapter.AnnounceFiles(lib.Tracks())

	if cfg.Library.Watch {
		changed, werr := lib.Watch(ctx)
		if werr != nil {
			log.Warn().Err(werr).Msg("library watch unavailable")
		} else {
			go func() {
				for range changed {
					adapter.AnnounceFiles(lib.Tracks())
				}
			}()
		}
	}

	fmt.Printf("Tab %s joined the session (%d tracks in library)\n", adapter.ID(), lib.Len())
	<-ctx.Done()
	return nil
}
