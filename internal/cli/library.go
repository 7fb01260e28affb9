package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	cherrors "github.com/corvale/chorus/internal/errors"
	"github.com/corvale/chorus/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library [filter]",
	Short: "List the local music library",
	Long: `List the tracks chorus found in the configured library directory.

An optional filter narrows the listing by name or tag substring.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLibrary,
}

func init() {
	rootCmd.AddCommand(libraryCmd)
}

func runLibrary(cmd *cobra.Command, args []string) error {
	if cfg.Library.Path == "" {
		return cherrors.ErrLibraryNotConfigured
	}

	lib, err := library.Open(cfg.Library.Path, newLogger())
	if err != nil {
		return err
	}

	entries := lib.Entries()
	if len(args) == 1 {
		needle := strings.ToLower(args[0])
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Name), needle) || matchesTag(e.Tags, needle) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No tracks found")
		return nil
	}

	table := NewTable("TRACK", "TAGS", "SIZE", "MODIFIED")
	for _, e := range entries {
		table.Row(
			TruncateString(e.Name, 50),
			joinTags(e.Tags),
			humanize.Bytes(uint64(e.Size)),
			humanize.Time(e.ModTime),
		)
	}
	table.Flush()
	fmt.Printf("\n%d track(s) in %s\n", len(entries), lib.Root())
	return nil
}

func matchesTag(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
