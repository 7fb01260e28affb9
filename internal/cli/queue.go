package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/core"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show or edit the shared queue",
	Long:  `Show the shared play queue. Subcommands edit it.`,
	RunE:  runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <track>...",
	Short: "Add tracks to the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQueueAdd,
}

var queueRemoveCmd = &cobra.Command{
	Use:     "remove <track>",
	Aliases: []string{"rm"},
	Short:   "Remove a track from the queue",
	Args:    cobra.ExactArgs(1),
	RunE:    runQueueRemove,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the queue",
	RunE:  runQueueClear,
}

func init() {
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRemoveCmd)
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	state := s.State()

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(state.Queue)
	}

	if len(state.Queue) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	table := NewTable("", "#", "TRACK", "TAGS")
	for i, t := range state.Queue {
		marker := " "
		if i == state.QueuePosition {
			if state.IsPlaying {
				marker = "▶"
			} else {
				marker = "●"
			}
		}
		table.Row(marker, fmt.Sprintf("%d", i+1), TruncateString(t.Name, 50), joinTags(t.Tags))
	}
	table.Flush()
	return nil
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	resolved := make([]core.Track, 0, len(args))
	for _, query := range args {
		t, err := s.resolveTrack(query)
		if err != nil {
			return fmt.Errorf("%q: %w", query, err)
		}
		resolved = append(resolved, t)
	}

	s.adapter.AnnounceFiles(s.lib.Tracks())
	s.adapter.AddToPlaylist(resolved)
	state := s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]int{"queue_length": len(state.Queue)})
	} else {
		fmt.Printf("➕ Queue now holds %d track(s)\n", len(state.Queue))
	}
	return nil
}

func runQueueRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	// Match against the shared queue itself, not the library: the entry
	// may have come from another client's catalogue.
	state := s.State()
	target := ""
	for _, t := range state.Queue {
		if t.ID == args[0] || t.Name == args[0] {
			target = t.ID
			break
		}
	}
	if target == "" {
		return fmt.Errorf("no queued track matches %q", args[0])
	}

	s.adapter.RemoveFromPlaylist(target)
	state = s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]int{"queue_length": len(state.Queue)})
	} else {
		fmt.Printf("➖ Removed; queue now holds %d track(s)\n", len(state.Queue))
	}
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.ClearPlaylist()
	s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "cleared"})
	} else {
		fmt.Println("🗑 Queue cleared")
	}
	return nil
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	out := tags[0]
	for _, t := range tags[1:] {
		out += ", " + t
	}
	return out
}
