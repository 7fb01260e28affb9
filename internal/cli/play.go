package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/core"
)

var playAppend bool

var playCmd = &cobra.Command{
	Use:   "play [track...]",
	Short: "Play tracks from the library",
	Long: `Play tracks from the local library in the shared session.

Tracks are matched by id, exact name, or substring. With no arguments,
resumes the current session.

Examples:
  chorus play                 # Resume
  chorus play "blue in green" # Replace the queue with one track
  chorus play miles coltrane  # Replace the queue with several
  chorus play -a "so what"    # Append instead of replacing`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVarP(&playAppend, "append", "a", false, "append to the queue instead of replacing it")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		return runResume(cmd, args)
	}

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	tracks := make([]core.Track, 0, len(args))
	for _, query := range args {
		t, err := s.resolveTrack(query)
		if err != nil {
			return fmt.Errorf("%q: %w", query, err)
		}
		tracks = append(tracks, t)
	}

	// Tell the session which tracks this client can actually play, then
	// queue them. Other clients resolve the same ids from their own
	// libraries.
	s.adapter.AnnounceFiles(s.lib.Tracks())

	switch {
	case playAppend:
		s.adapter.AddToPlaylist(tracks)
	case len(tracks) == 1:
		s.adapter.Play(tracks[0])
	default:
		s.adapter.ReplacePlaylist(tracks, 0)
	}
	state := s.awaitUpdate(ctx)

	if !playAppend && len(tracks) > 1 && !state.IsPlaying {
		s.adapter.TogglePlayPause()
		state = s.awaitUpdate(ctx)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"queued":  len(tracks),
			"playing": state.IsPlaying,
		})
		return nil
	}

	if playAppend {
		fmt.Printf("➕ Added %d track(s) to the queue\n", len(tracks))
	} else if t := state.Current(); t != nil {
		fmt.Printf("▶ %s\n", t.Name)
	}
	return nil
}
