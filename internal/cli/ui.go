package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	cherrors "github.com/corvale/chorus/internal/errors"
	"github.com/corvale/chorus/internal/library"
	"github.com/corvale/chorus/internal/store"
	"github.com/corvale/chorus/internal/tab"
	"github.com/corvale/chorus/internal/transport"
	"github.com/corvale/chorus/internal/tui"
)

var uiRefresh int

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard is a full playback client: it mirrors the shared session
and, when elected, produces the audio. Panels:
  • Now Playing - current track, progress, audio ownership
  • Queue - the shared play queue
  • Library - your local catalogue

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  n, p         Next / previous track
  +/-          Volume up/down
  /            Filter library
  Tab          Switch panel`,
	RunE: runUI,
}

func init() {
	uiCmd.Flags().IntVar(&uiRefresh, "refresh", 0, "refresh interval in milliseconds (overrides config)")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
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

	dialCtx, cancel := context.WithTimeout(cmd.Context(), sessionTimeout)
	conn, err := transport.Dial(dialCtx, cfg.Coordinator.URL)
	cancel()
	if err != nil {
		return cherrors.WithSuggestion(err,
			"Start the coordinator with 'chorus serve' before launching the dashboard")
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

	adapter.AnnounceFiles(lib.Tracks())

	refresh := cfg.TUI.RefreshInterval
	if uiRefresh > 0 {
		refresh = uiRefresh
	}
	return tui.Run(adapter, lib, time.Duration(refresh)*time.Millisecond)
}
