package session

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPathsAreUnderSessionDir(t *testing.T) {
	dir := Dir("work")
	for name, p := range map[string]string{
		"db":    DBPath("work"),
		"media": MediaDir("work"),
		"log":   LogPath("work"),
	} {
		if !strings.HasPrefix(p, dir+string(filepath.Separator)) {
			t.Errorf("%s path %q not under session dir %q", name, p, dir)
		}
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	if DBPath("a") == DBPath("b") {
		t.Error("distinct sessions share a DB path")
	}
}
