package lock

import (
	"os"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := os.Stat(l.Path()); err != nil {
		t.Errorf("lock file missing: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Error("lock file survived Release()")
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}

	l2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire() after release error = %v", err)
	}
	_ = l2.Release()
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("Release() on nil = %v, want nil", err)
	}
}

func TestParsePID(t *testing.T) {
	if got := parsePID("pid=4242\ntime=2024-06-01T00:00:00Z\n"); got != 4242 {
		t.Errorf("parsePID = %d, want 4242", got)
	}
	if got := parsePID("garbage"); got != 0 {
		t.Errorf("parsePID on garbage = %d, want 0", got)
	}
}
