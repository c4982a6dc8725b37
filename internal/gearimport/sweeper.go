package gearimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sweeper removes uploaded files left behind by wizards that were never
// committed or abandoned. Every wizard step refreshes its file's mtime, so a
// file untouched for MaxAge belongs to no live session as long as MaxAge is
// at least the session TTL.
type Sweeper struct {
	Dir      string
	MaxAge   time.Duration
	Interval time.Duration

	now func() time.Time
}

// NewSweeper creates a sweeper over dir.
func NewSweeper(dir string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{Dir: dir, MaxAge: maxAge, Interval: interval, now: time.Now}
}

// Run sweeps immediately and then every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("upload sweeper started",
		"dir", s.Dir,
		"max_age", s.MaxAge.String(),
		"interval", s.Interval.String(),
	)

	s.runOnce()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("upload sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Sweeper) runOnce() {
	start := time.Now()
	removed, err := s.Sweep()
	if err != nil {
		slog.Error("upload sweep failed", "error", err, "removed", removed)
		return
	}
	slog.Info("upload sweep completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Sweep deletes regular files in Dir last modified more than MaxAge ago
// and returns how many were removed. A missing directory is not an error.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := s.now().Add(-s.MaxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}
