// Package store is the persistence bridge: a durable, per-user snapshot of
// playback state that survives process restarts. The coordinator never
// touches it directly; tabs read and write it on the coordinator's behalf.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/core"
)

const (
	// DefaultStateFileName is the default name for the snapshot file.
	DefaultStateFileName = "state.json"
)

// Bridge persists playback snapshots to disk.
type Bridge struct {
	path string
	log  zerolog.Logger
}

// NewBridge creates a bridge writing to the given path. An empty path uses
// the default location (~/.config/chorus/state.json).
func NewBridge(path string, logger zerolog.Logger) (*Bridge, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = filepath.Join(configDir, "chorus", DefaultStateFileName)
	}
	return &Bridge{path: path, log: logger.With().Str("component", "store").Logger()}, nil
}

// Save writes a sanitized snapshot to disk. Write failures are returned so
// the caller can log them, but they are never fatal to playback.
func (b *Bridge) Save(state core.PlaybackState) error {
	snap := Sanitize(state)

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(b.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Load reads the last saved snapshot. A missing or unparsable file is
// treated as "no saved state" and returns nil; read failures are logged,
// never propagated.
func (b *Bridge) Load() *core.PlaybackState {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.log.Warn().Err(err).Str("path", b.path).Msg("failed to read state file")
		}
		return nil
	}

	var snap core.PlaybackState
	if err := json.Unmarshal(data, &snap); err != nil {
		b.log.Warn().Err(err).Str("path", b.path).Msg("discarding corrupt state file")
		return nil
	}

	return &snap
}

// Path returns the path to the state file.
func (b *Bridge) Path() string {
	return b.path
}

// Sanitize prepares a state for persistence: locators and the audio owner
// are stripped, playback is forced paused so a restored session never
// auto-resumes audibly, and transient panel flags reset to defaults. The
// playback position survives so the next explicit play resumes where the
// session left off.
func Sanitize(state core.PlaybackState) core.PlaybackState {
	snap := state.Clone()
	snap.IsPlaying = false
	snap.PanelVisible = true
	snap.PanelCollapsed = false
	snap.ActiveAudioTabID = ""
	for i := range snap.Queue {
		snap.Queue[i] = snap.Queue[i].Meta()
	}
	return snap
}
