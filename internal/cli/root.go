package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/corvale/chorus/internal/config"
	cherrors "github.com/corvale/chorus/internal/errors"
)

var (
	cfgFile     string
	jsonOut     bool
	verbose     bool
	libraryPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Shared music playback across terminals",
	Long: `Chorus keeps one playback session in sync across any number of
terminal clients. A coordinator owns the queue and decides which client
actually produces sound; every other client mirrors the same state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.chorusrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&libraryPath, "library", "l", "", "music library directory (overrides config)")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if libraryPath != "" {
		cfg.Library.Path = libraryPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cherrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newLogger builds the process logger from config. Logs go to the
// configured file, or stderr with console formatting; verbose forces
// debug level.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.Log.File != "" {
		if f, ferr := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); ferr == nil {
			out = f
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
