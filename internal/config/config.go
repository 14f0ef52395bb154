package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults for the reconciliation timers. 500ms mirrors the latency
// the client historically allowed between a fire-and-forget write and
// the reload that makes it authoritative.
const (
	DefaultReloadDelayMS     = 500
	DefaultTranscribeDelayMS = 500
)

// Config represents the global ~/.veil/config.toml.
type Config struct {
	DefaultSession string     `toml:"default_session"`
	Sync           SyncConfig `toml:"sync"`
}

// SyncConfig holds the reconciliation timer settings.
type SyncConfig struct {
	// ReloadDelayMS is how long after a local write the engine waits
	// before reloading the authoritative store.
	ReloadDelayMS int `toml:"reload_delay_ms"`
	// TranscribeDelayMS is how long after a recording-finished event
	// the transcript is merged into the audio message.
	TranscribeDelayMS int `toml:"transcribe_delay_ms"`
}

// Load reads config from the given path and applies defaults for
// unset timers. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied, for sessions
// that have no config file yet.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Sync.ReloadDelayMS <= 0 {
		c.Sync.ReloadDelayMS = DefaultReloadDelayMS
	}
	if c.Sync.TranscribeDelayMS <= 0 {
		c.Sync.TranscribeDelayMS = DefaultTranscribeDelayMS
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
