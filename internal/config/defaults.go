package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			ListenAddr:   "127.0.0.1:7531",
			URL:          "ws://127.0.0.1:7531/ws",
			SaveDebounce: 2000,
		},
		Library: LibraryConfig{
			Watch: true,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Coordinator
	if c.Coordinator.ListenAddr == "" {
		c.Coordinator.ListenAddr = d.Coordinator.ListenAddr
	}
	if c.Coordinator.URL == "" {
		c.Coordinator.URL = d.Coordinator.URL
	}
	if c.Coordinator.SaveDebounce == 0 {
		c.Coordinator.SaveDebounce = d.Coordinator.SaveDebounce
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
