package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{DefaultSession: "work", Sync: SyncConfig{ReloadDelayMS: 250}}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.Sync.ReloadDelayMS != 250 {
		t.Errorf("ReloadDelayMS = %d, want 250", loaded.Sync.ReloadDelayMS)
	}
	if loaded.Sync.TranscribeDelayMS != DefaultTranscribeDelayMS {
		t.Errorf("TranscribeDelayMS = %d, want default %d",
			loaded.Sync.TranscribeDelayMS, DefaultTranscribeDelayMS)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestDefaultTimers(t *testing.T) {
	cfg := Default()
	if cfg.Sync.ReloadDelayMS != DefaultReloadDelayMS {
		t.Errorf("ReloadDelayMS = %d, want %d", cfg.Sync.ReloadDelayMS, DefaultReloadDelayMS)
	}
	if cfg.Sync.TranscribeDelayMS != DefaultTranscribeDelayMS {
		t.Errorf("TranscribeDelayMS = %d, want %d", cfg.Sync.TranscribeDelayMS, DefaultTranscribeDelayMS)
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
