package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause the shared playback session.`,
	RunE:  runPause,
}

var resumeCmd = &cobra.Command{
	Use:     "resume",
	Aliases: []string{"play-pause"},
	Short:   "Resume playback",
	Long:    `Resume the shared playback session.`,
	RunE:    runResume,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle play/pause",
	Long:  `Flip the shared play/pause state.`,
	RunE:  runToggle,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track",
	Long:  `Skip to the next track in the shared queue.`,
	RunE:  runNext,
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track",
	Long:  `Go back to the previous track in the shared queue.`,
	RunE:  runPrev,
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Seek to a position in the current track.

Positions are seconds or mm:ss:
  chorus seek 90
  chorus seek 1:30`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

var repeatCmd = &cobra.Command{
	Use:   "repeat",
	Short: "Cycle the repeat mode",
	Long:  `Cycle the repeat mode: none, one, all.`,
	RunE:  runRepeat,
}

var (
	volumeUp   bool
	volumeDown bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust volume",
	Long: `Set the shared playback volume (0-100) or adjust it up/down.

Examples:
  chorus volume 50      # Set volume to 50%
  chorus volume --up    # Increase volume by 10%
  chorus volume --down  # Decrease volume by 10%`,
	RunE: runVolume,
}

func init() {
	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Increase volume by 10%")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Decrease volume by 10%")

	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(repeatCmd)
	rootCmd.AddCommand(volumeCmd)
}

func runPause(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.State().IsPlaying {
		s.adapter.TogglePlayPause()
		s.awaitUpdate(ctx)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "paused"})
	} else {
		fmt.Println("⏸ Paused")
	}

	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.State().IsPlaying {
		s.adapter.TogglePlayPause()
		s.awaitUpdate(ctx)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "playing"})
	} else {
		fmt.Println("▶ Resumed")
	}

	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.TogglePlayPause()
	state := s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]bool{"playing": state.IsPlaying})
	} else if state.IsPlaying {
		fmt.Println("▶ Playing")
	} else {
		fmt.Println("⏸ Paused")
	}

	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.PlayNext()
	state := s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "skipped"})
	} else if t := state.Current(); t != nil {
		fmt.Printf("⏭ %s\n", t.Name)
	} else {
		fmt.Println("⏭ Skipped to next track")
	}

	return nil
}

func runPrev(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.PlayPrevious()
	state := s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "previous"})
	} else if t := state.Current(); t != nil {
		fmt.Printf("⏮ %s\n", t.Name)
	} else {
		fmt.Println("⏮ Previous track")
	}

	return nil
}

func runSeek(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	seconds, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.SeekTo(seconds)
	s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]float64{"position": seconds})
	} else {
		fmt.Printf("⏩ Seeked to %s\n", FormatDuration(seconds))
	}

	return nil
}

func runRepeat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.adapter.CycleRepeatMode()
	state := s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"repeat": string(state.RepeatMode)})
	} else {
		fmt.Printf("🔁 Repeat: %s\n", state.RepeatMode)
	}

	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	current := int(s.State().Volume*100 + 0.5)

	if !volumeUp && !volumeDown && len(args) == 0 {
		// Just show the current volume.
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]int{"volume": current})
		} else {
			fmt.Printf("🔊 Volume: %d%%\n", current)
		}
		return nil
	}

	target := current
	switch {
	case volumeUp:
		target = current + 10
	case volumeDown:
		target = current - 10
	default:
		val, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid volume level: %s", args[0])
		}
		if val < 0 || val > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		target = val
	}
	if target > 100 {
		target = 100
	}
	if target < 0 {
		target = 0
	}

	s.adapter.ChangeVolume(float64(target) / 100)
	s.awaitUpdate(ctx)

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]int{"volume": target, "previous": current})
	} else {
		fmt.Printf("🔊 Volume: %d%% (was %d%%)\n", target, current)
	}

	return nil
}

// parsePosition accepts plain seconds ("90", "90.5") or mm:ss ("1:30").
func parsePosition(s string) (float64, error) {
	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		sec, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		return float64(m)*60 + sec, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid position: %s", s)
	}
	return v, nil
}
