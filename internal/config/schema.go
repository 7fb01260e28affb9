package config

// Config is the root configuration structure.
type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Library     LibraryConfig     `toml:"library"`
	Store       StoreConfig       `toml:"store"`
	TUI         TUIConfig         `toml:"tui"`
	Log         LogConfig         `toml:"log"`
}

// CoordinatorConfig holds shared-session settings.
type CoordinatorConfig struct {
	// ListenAddr is where `chorus serve` binds its WebSocket endpoint.
	ListenAddr string `toml:"listen_addr"`
	// URL is where client tabs find the coordinator.
	URL string `toml:"url"`
	// SaveDebounce is the persistence quiet window in milliseconds.
	SaveDebounce int `toml:"save_debounce"`
}

// LibraryConfig holds local music catalogue settings.
type LibraryConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	StateFile string `toml:"state_file"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
