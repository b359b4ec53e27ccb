package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/report"
	"Go_FileStore/internal/storage"

	"github.com/spf13/afero"
)

// GarbageCollector reclaims expired temp folders, zip archives and
// upload session rows. It never returns errors: failures go to the
// reporter and the sweep answers false.
type GarbageCollector struct {
	cfg      config.FileConfig
	paths    storage.Paths
	fs       afero.Fs
	sessions SessionStore
	reporter report.Reporter
	now      func() time.Time
	log      *logging.Logger
}

// NewGarbageCollector builds a collector. Sessions may be nil, in which
// case SweepSessions does nothing.
func NewGarbageCollector(opts Options) *GarbageCollector {
	opts = opts.withDefaults()
	return &GarbageCollector{
		cfg:      opts.Config,
		paths:    storage.NewPaths(opts.Config),
		fs:       opts.Fs,
		sessions: opts.Sessions,
		reporter: opts.Reporter,
		now:      opts.Now,
		log:      logging.With("component", "gc"),
	}
}

// ageHours is the whole number of hours elapsed since t.
func ageHours(now, t time.Time) int64 {
	return int64(now.Sub(t) / time.Hour)
}

func expired(now, modTime time.Time, thresholdHours int) bool {
	age := ageHours(now, modTime)
	if age < 0 {
		return false
	}
	return age > int64(thresholdHours)
}

// Sweep removes temp folders older than TempExpiredAt hours and zip
// files older than ZipExpiredAt hours. One category failing does not
// stop the other.
func (g *GarbageCollector) Sweep(ctx context.Context) bool {
	if !g.cfg.PerformGC {
		return true
	}
	now := g.now()
	temps := g.sweepTemps(ctx, now)
	zips := g.sweepZips(ctx, now)
	return temps && zips
}

func (g *GarbageCollector) sweepTemps(ctx context.Context, now time.Time) bool {
	root := g.paths.Root(storage.TempPath)
	entries, err := afero.ReadDir(g.fs, root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true
		}
		g.reporter.Report(ctx, fmt.Errorf("list temp root: %w", err), "path", root)
		return false
	}

	ok := true
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !expired(now, entry.ModTime(), g.cfg.TempExpiredAt) {
			continue
		}
		dir := g.paths.Compose(storage.TempPath, entry.Name(), "")
		if err := g.fs.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.reporter.Report(ctx, fmt.Errorf("remove temp folder: %w", err), "path", dir)
			ok = false
			continue
		}
		removed++
	}
	if removed > 0 {
		g.log.Info("expired temp folders removed", "count", removed)
	}
	return ok
}

func (g *GarbageCollector) sweepZips(ctx context.Context, now time.Time) bool {
	root := g.paths.Root(storage.ZipPath)
	entries, err := afero.ReadDir(g.fs, root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true
		}
		g.reporter.Report(ctx, fmt.Errorf("list zip root: %w", err), "path", root)
		return false
	}

	ok := true
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !expired(now, entry.ModTime(), g.cfg.ZipExpiredAt) {
			continue
		}
		file := g.paths.Compose(storage.ZipPath, "", entry.Name())
		if err := g.fs.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.reporter.Report(ctx, fmt.Errorf("remove zip: %w", err), "path", file)
			ok = false
			continue
		}
		removed++
	}
	if removed > 0 {
		g.log.Info("expired zips removed", "count", removed)
	}
	return ok
}

// SweepPath deletes the files and the first level of subdirectories
// under fullPath, regardless of age. fullPath itself is kept.
func (g *GarbageCollector) SweepPath(ctx context.Context, fullPath string) bool {
	if !g.cfg.PerformGC {
		return true
	}
	entries, err := afero.ReadDir(g.fs, fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true
		}
		g.reporter.Report(ctx, fmt.Errorf("list %s: %w", fullPath, err))
		return false
	}

	ok := true
	for _, entry := range entries {
		child := filepath.Join(fullPath, entry.Name())
		if entry.IsDir() {
			ok = g.clearDir(ctx, child) && ok
			continue
		}
		if err := g.fs.Remove(child); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.reporter.Report(ctx, fmt.Errorf("remove file: %w", err), "path", child)
			ok = false
		}
	}
	return ok
}

// clearDir removes the files of dir, then dir.
func (g *GarbageCollector) clearDir(ctx context.Context, dir string) bool {
	entries, err := afero.ReadDir(g.fs, dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		g.reporter.Report(ctx, fmt.Errorf("list %s: %w", dir, err))
		return false
	}
	ok := true
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		if err := g.fs.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.reporter.Report(ctx, fmt.Errorf("remove file: %w", err), "path", file)
			ok = false
		}
	}
	if err := g.fs.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		g.reporter.Report(ctx, fmt.Errorf("remove folder: %w", err), "path", dir)
		ok = false
	}
	return ok
}

// SweepSessions deletes upload session rows idle for more than
// TempExpiredAt whole hours, the same rule Sweep applies to temp folders.
// A row whose temp folder is still on disk and not yet expired is kept,
// so a session is never dropped while its chunks can still be merged.
func (g *GarbageCollector) SweepSessions(ctx context.Context) (int64, bool) {
	if !g.cfg.PerformGC || g.sessions == nil {
		return 0, true
	}
	now := g.now()
	// expired() needs a whole hour beyond the threshold
	before := now.Add(-time.Duration(g.cfg.TempExpiredAt+1) * time.Hour)
	stale, err := g.sessions.FindStale(ctx, before)
	if err != nil {
		g.reporter.Report(ctx, err)
		return 0, false
	}

	ok := true
	var removed int64
	for i := range stale {
		session := &stale[i]
		dir := g.paths.Compose(storage.TempPath, session.Folder, "")
		info, err := g.fs.Stat(dir)
		switch {
		case err == nil && !expired(now, info.ModTime(), g.cfg.TempExpiredAt):
			g.log.Debug("session kept, temp folder still live", "upload_id", session.UploadID)
			continue
		case err != nil && !errors.Is(err, os.ErrNotExist):
			g.reporter.Report(ctx, fmt.Errorf("stat temp folder: %w", err), "path", dir)
			ok = false
			continue
		}
		n, err := g.sessions.Delete(ctx, session.ID)
		if err != nil {
			g.reporter.Report(ctx, err, "upload_id", session.UploadID)
			ok = false
			continue
		}
		removed += n
	}
	if removed > 0 {
		g.log.Info("stale upload sessions removed", "count", removed)
	}
	return removed, ok
}

// Run sweeps every interval until ctx is done.
func (g *GarbageCollector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.log.Info("gc loop started", "interval", interval, "enabled", g.cfg.PerformGC)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep(ctx)
			g.SweepSessions(ctx)
		}
	}
}
