// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/staff-directory/models"
)

const (
	DataFile = "directory_data.json"
	MetaFile = "directory_meta.json"

	// StaleAfter is the age past which the status page reports the cache
	// file as invalid.
	StaleAfter = 7 * 24 * time.Hour

	filePerms = 0o644
	dirPerms  = 0o755
)

// Loader reads the current directory from the database.
type Loader interface {
	LoadDirectory(ctx context.Context) (models.DirectoryData, error)
}

// Meta is the sidecar file written next to the data file.
type Meta struct {
	Timestamp       int64  `json:"timestamp"`
	StaffCount      int    `json:"staff_count"`
	DepartmentCount int    `json:"department_count"`
	LastUpdated     string `json:"last_updated"`
}

// Status describes the on-disk cache for the admin page.
type Status struct {
	Exists    bool
	Size      int64
	SizeHuman string
	Modified  time.Time
	Age       time.Duration
	AgeHuman  string
	Valid     bool // younger than StaleAfter
	Fresh     bool // younger than the TTL
	Meta      *Meta
}

// Cache keeps the public directory snapshot in memory and on disk, rebuilding
// it from the database once it is older than the TTL.
type Cache struct {
	dir    string
	ttl    time.Duration
	loader Loader
	now    func() time.Time

	mu       sync.RWMutex
	data     *models.DirectoryData
	loadedAt time.Time
	// gen is bumped by Invalidate. Snapshots loaded under an older gen are
	// dropped instead of stored.
	gen uint64

	// fileMu serializes writing the cache files against removing them.
	fileMu sync.Mutex

	group singleflight.Group
}

func New(dir string, ttl time.Duration, loader Loader) (*Cache, error) {
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, loader: loader, now: time.Now}, nil
}

func (c *Cache) dataPath() string { return filepath.Join(c.dir, DataFile) }
func (c *Cache) metaPath() string { return filepath.Join(c.dir, MetaFile) }

// Get returns the directory snapshot, reading the file cache or rebuilding
// from the database when stale. Concurrent misses share one rebuild.
func (c *Cache) Get(ctx context.Context) (models.DirectoryData, error) {
	c.mu.RLock()
	if c.data != nil && c.now().Sub(c.loadedAt) < c.ttl {
		data := *c.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("directory", func() (any, error) {
		if data, ok := c.readFile(); ok {
			return data, nil
		}
		// shared by every waiter, so one caller going away must not fail the rest
		return c.Refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return models.DirectoryData{}, err
	}
	return v.(models.DirectoryData), nil
}

// readFile loads the disk cache if its meta timestamp is within the TTL.
func (c *Cache) readFile() (models.DirectoryData, bool) {
	gen := c.generation()
	meta, err := c.readMeta()
	if err != nil || meta == nil {
		return models.DirectoryData{}, false
	}
	written := time.Unix(meta.Timestamp, 0)
	if c.now().Sub(written) >= c.ttl {
		return models.DirectoryData{}, false
	}

	raw, err := os.ReadFile(c.dataPath())
	if err != nil {
		return models.DirectoryData{}, false
	}
	var data models.DirectoryData
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("discarding unreadable directory cache", "error", err)
		return models.DirectoryData{}, false
	}

	if !c.store(data, written, gen) {
		return models.DirectoryData{}, false
	}
	return data, true
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Refresh rebuilds the snapshot from the database and rewrites both files.
// If Invalidate runs while the database is being read, the result is
// returned to the caller but not cached.
func (c *Cache) Refresh(ctx context.Context) (models.DirectoryData, error) {
	start := c.now()
	gen := c.generation()
	data, err := c.loader.LoadDirectory(ctx)
	if err != nil {
		return models.DirectoryData{}, fmt.Errorf("failed to load directory: %w", err)
	}
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = start
	}

	stored, err := c.write(data, gen)
	if err != nil {
		return models.DirectoryData{}, err
	}
	if !stored {
		slog.Debug("directory changed during rebuild, snapshot not cached")
		return data, nil
	}
	slog.Info("directory cache refreshed",
		"staff", len(data.Staff),
		"departments", len(data.Departments),
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return data, nil
}

// write stores data as the current snapshot unless the cache was
// invalidated after gen was read.
func (c *Cache) write(data models.DirectoryData, gen uint64) (bool, error) {
	c.fileMu.Lock()
	defer c.fileMu.Unlock()
	if c.generation() != gen {
		return false, nil
	}

	now := c.now()
	meta := Meta{
		Timestamp:       now.Unix(),
		StaffCount:      len(data.Staff),
		DepartmentCount: len(data.Departments),
		LastUpdated:     now.Format("2006-01-02 15:04:05"),
	}

	if err := writeJSON(c.dataPath(), data); err != nil {
		return false, err
	}
	if err := writeJSON(c.metaPath(), meta); err != nil {
		return false, err
	}

	return c.store(data, now, gen), nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	// atomic.WriteFile leaves new files with temp-file permissions
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Cache) store(data models.DirectoryData, at time.Time, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.data = &data
	c.loadedAt = at
	return true
}

// Invalidate drops the snapshot so the next Get rebuilds it. A rebuild
// already in flight is not cached.
func (c *Cache) Invalidate() error {
	c.fileMu.Lock()
	defer c.fileMu.Unlock()

	c.mu.Lock()
	c.gen++
	c.data = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
	c.group.Forget("directory")

	for _, path := range []string{c.dataPath(), c.metaPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (c *Cache) readMeta() (*Meta, error) {
	raw, err := os.ReadFile(c.metaPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode cache meta: %w", err)
	}
	return &meta, nil
}

// Status inspects the cache files.
func (c *Cache) Status() (Status, error) {
	info, err := os.Stat(c.dataPath())
	if errors.Is(err, os.ErrNotExist) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}

	age := c.now().Sub(info.ModTime())
	st := Status{
		Exists:    true,
		Size:      info.Size(),
		SizeHuman: humanize.Bytes(uint64(info.Size())),
		Modified:  info.ModTime(),
		Age:       age,
		AgeHuman:  humanize.RelTime(info.ModTime(), c.now(), "ago", "from now"),
		Valid:     age < StaleAfter,
		Fresh:     age < c.ttl,
	}

	meta, err := c.readMeta()
	if err != nil {
		slog.Warn("unreadable cache meta", "error", err)
	}
	st.Meta = meta
	return st, nil
}
