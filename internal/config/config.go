package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.chorusrc, $XDG_CONFIG_HOME/chorus/config.toml, ~/.config/chorus/config.toml
func Load() (*Config, error) {
	// Decode over the defaults so absent keys (including booleans like
	// library.watch) keep their default values.
	cfg := Default()

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".chorusrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "chorus", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Coordinator
	if v := os.Getenv("CHORUS_COORDINATOR_LISTEN_ADDR"); v != "" {
		cfg.Coordinator.ListenAddr = v
	}
	if v := os.Getenv("CHORUS_COORDINATOR_URL"); v != "" {
		cfg.Coordinator.URL = v
	}
	if v := os.Getenv("CHORUS_COORDINATOR_SAVE_DEBOUNCE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Coordinator.SaveDebounce = i
		}
	}

	// Library
	if v := os.Getenv("CHORUS_LIBRARY_PATH"); v != "" {
		cfg.Library.Path = v
	}

	// Store
	if v := os.Getenv("CHORUS_STORE_STATE_FILE"); v != "" {
		cfg.Store.StateFile = v
	}

	// TUI
	if v := os.Getenv("CHORUS_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("CHORUS_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("CHORUS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CHORUS_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
