package gearimport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSweeper_RemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "u1_1.csv", 3*time.Hour)
	fresh := writeAged(t, dir, "u1_2.csv", 10*time.Minute)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o750); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(dir, 2*time.Hour, time.Hour)
	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("old file still present: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); err != nil {
		t.Errorf("directory removed: %v", err)
	}
}

func TestSweeper_MissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Hour)
	removed, err := s.Sweep()
	if err != nil || removed != 0 {
		t.Errorf("Sweep() = %d, %v; want 0, nil", removed, err)
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "u1_1.xlsx", 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(dir, time.Hour, time.Hour).Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := os.Stat(old); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial sweep did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Run did not return after cancel")
	}
}
