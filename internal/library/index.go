package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mixdown/internal/logging"
)

// Entry is one indexed audio file.
type Entry struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	ScannedAt time.Time `json:"scanned_at"`
}

var audioExtensions = map[string]struct{}{
	".aiff": {},
	".flac": {},
	".m4a":  {},
	".mp3":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
}

// Index provides thread-safe access to the library file index.
type Index struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry // keyed by file path
}

// NewIndex creates an index instance persisted at path. If path is empty,
// the index is non-functional (all operations become no-ops). The index file
// is created lazily on first rescan.
func NewIndex(path string, logger *slog.Logger) *Index {
	logger = logging.NewComponentLogger(logger, "library")

	idx := &Index{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return idx
	}

	if err := idx.load(); err != nil {
		logger.Warn("failed to load library index",
			logging.String(logging.FieldEventType, "library_index_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "index will start empty; run a rescan"))
	}
	return idx
}

// Lookup returns the cached entry for a path when its stat fields still
// match; a changed file is treated as absent.
func (idx *Index) Lookup(path string, modTime time.Time, size int64) (Entry, bool) {
	if idx.path == "" {
		return Entry{}, false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, found := idx.entries[path]
	if !found || !entry.ModTime.Equal(modTime) || entry.Size != size {
		return Entry{}, false
	}
	return entry, true
}

// Rescan walks root for audio files and rebuilds the index, reusing entries
// whose (mtime, size) are unchanged. The new index replaces the old one only
// after the walk completes; a failed or cancelled walk leaves the previous
// index in place. Returns the number of files indexed and how many were
// reused from cache.
func (idx *Index) Rescan(ctx context.Context, root string) (indexed, reused int, err error) {
	if idx.path == "" {
		return 0, 0, nil
	}

	fresh := make(map[string]Entry)
	now := time.Now().UTC()
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if cached, ok := idx.Lookup(path, info.ModTime(), info.Size()); ok {
			fresh[path] = cached
			reused++
			return nil
		}
		fresh[path] = Entry{
			Path:      path,
			Title:     titleFromPath(path),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			ScannedAt: now,
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("walk %s: %w", root, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = fresh
	if err := idx.save(); err != nil {
		return 0, 0, fmt.Errorf("persist index: %w", err)
	}

	idx.logger.Info("library rescan complete",
		logging.String("root", root),
		logging.Int("indexed", len(fresh)),
		logging.Int("reused", reused))
	return len(fresh), reused, nil
}

// Invalidate drops a single path from the index and persists the change.
func (idx *Index) Invalidate(path string) error {
	if idx.path == "" {
		return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.entries[path]; !exists {
		return fmt.Errorf("path %q not in index", path)
	}
	delete(idx.entries, path)
	if err := idx.save(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Clear removes all entries and persists the empty index.
func (idx *Index) Clear() error {
	if idx.path == "" {
		return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = make(map[string]Entry)
	if err := idx.save(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Entries returns all indexed files sorted by path.
func (idx *Index) Entries() []Entry {
	if idx.path == "" {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]Entry, 0, len(idx.entries))
	for _, entry := range idx.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// Count returns the number of indexed files.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// load reads the index from disk into memory.
func (idx *Index) load() error {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read index file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse index file: %w", err)
	}
	idx.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Path) != "" {
			idx.entries[entry.Path] = entry
		}
	}
	return nil
}

// save writes the index to disk atomically. Caller holds the lock.
func (idx *Index) save() error {
	entries := make([]Entry, 0, len(idx.entries))
	for _, entry := range idx.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := idx.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, idx.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
