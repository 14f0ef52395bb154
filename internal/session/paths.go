package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.veil.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".veil")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// DBPath returns the backing store path for a session.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "veil.db")
}

// MediaDir returns where image and audio assets are stored.
func MediaDir(name string) string {
	return filepath.Join(Dir(name), "media")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the session log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "veil.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		MediaDir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
