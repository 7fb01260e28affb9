package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the shared playback status",
	Long:  `Show the current state of the shared playback session.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	state := s.State()

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"playing":        state.IsPlaying,
			"track":          state.Current(),
			"position":       state.Position,
			"duration":       state.Duration,
			"volume":         int(state.Volume*100 + 0.5),
			"repeat":         state.RepeatMode,
			"queue_length":   len(state.Queue),
			"queue_position": state.QueuePosition,
			"active_tab":     state.ActiveAudioTabID,
		})
	}

	t := state.Current()
	if t == nil {
		fmt.Println("Nothing queued")
		return nil
	}

	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}
	fmt.Printf("%s %s\n", icon, t.Name)
	fmt.Printf("   %s / %s  %s\n",
		FormatDuration(state.Position),
		FormatDuration(state.Duration),
		FormatProgress(state.Position, state.Duration, 30))
	fmt.Printf("   volume %d%%  repeat %s  track %d of %d\n",
		int(state.Volume*100+0.5), state.RepeatMode, state.QueuePosition+1, len(state.Queue))

	if Verbose() {
		if state.ActiveAudioTabID != "" {
			fmt.Printf("   audio owner: %s\n", state.ActiveAudioTabID)
		} else {
			fmt.Println("   audio owner: none")
		}
	}

	return nil
}
