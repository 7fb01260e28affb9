package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/protocol"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and protocol revision",
	Run: func(cmd *cobra.Command, args []string) {
		if JSONOutput() {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(map[string]any{
				"version":  Version,
				"protocol": protocol.Revision,
				"commit":   Commit,
				"built":    BuildDate,
				"runtime":  fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
			})
			return
		}

		// The protocol revision is the first thing to compare when two
		// installs disagree about a shared session.
		fmt.Printf("chorus %s (protocol %d)\n", Version, protocol.Revision)
		if Verbose() {
			fmt.Printf("  commit:  %s\n", Commit)
			fmt.Printf("  built:   %s\n", BuildDate)
			fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
