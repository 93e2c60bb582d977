// ABOUTME: File-backed status Store that writes the JSON document atomically
// ABOUTME: Optionally watches the file with fsnotify so external writers are picked up

package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps the status document in a single JSON file.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	cached   *Status
	cacheErr error
	watching bool
}

// NewFileStore creates a FileStore for path. The file need not exist yet.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger.With("component", "status"),
	}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the stored status. While Watch is running the last loaded
// document is served from memory.
func (f *FileStore) Get(ctx context.Context) (*Status, error) {
	f.mu.RLock()
	if f.watching {
		s, err := f.cached, f.cacheErr
		f.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		c := *s
		return &c, nil
	}
	f.mu.RUnlock()

	return f.read()
}

func (f *FileStore) read() (*Status, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, f.path, err)
	}

	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Warn("ignoring corrupt status file", "path", f.path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := ParseState(string(s.Status)); err != nil || s.Status == "" {
		f.logger.Warn("ignoring status file with unknown state", "path", f.path, "status", s.Status)
		return nil, fmt.Errorf("%w: unknown state %q", ErrUnavailable, s.Status)
	}
	return &s, nil
}

// Set writes the status document to a temp file and renames it into place.
func (f *FileStore) Set(ctx context.Context, s *Status) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating status directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".status-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing status file: %w", err)
	}

	f.mu.Lock()
	if f.watching {
		c := *s
		f.cached, f.cacheErr = &c, nil
	}
	f.mu.Unlock()

	f.logger.Debug("status updated", "status", s.Status)
	return nil
}

// Watch serves Get from memory and reloads whenever the file changes, until
// ctx is cancelled. It watches the parent directory so atomic replacements
// are seen.
func (f *FileStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating status directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	f.reload()
	f.mu.Lock()
	f.watching = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.watching = false
		f.mu.Unlock()
	}()

	f.logger.Info("watching status file", "path", f.path)

	// Editors and atomic writers produce bursts of events
	const settle = 50 * time.Millisecond
	var pending <-chan time.Time

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = time.After(settle)
			}

		case <-pending:
			pending = nil
			f.reload()

		case wErr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			f.logger.Error("fsnotify error", "error", wErr)
		}
	}
}

func (f *FileStore) reload() {
	s, err := f.read()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.cached, f.cacheErr = s, err
	if err == nil {
		f.logger.Debug("status reloaded", "status", s.Status)
	}
}

// Ensure FileStore implements Store interface
var _ Store = (*FileStore)(nil)
