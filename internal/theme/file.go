package theme

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource reads the system preference from a file containing "dark" or
// "light" and watches it for changes. A missing or empty file means light.
type FileSource struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.RWMutex
	dark    bool
	changes chan bool
}

func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	dark, err := readPreference(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating theme watcher: %w", err)
	}

	// Watch the directory so that editors replacing the file are seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	return &FileSource{
		path:    path,
		watcher: w,
		logger:  logger,
		dark:    dark,
		changes: make(chan bool, 1),
	}, nil
}

func (f *FileSource) PrefersDark() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dark
}

func (f *FileSource) Changes() <-chan bool {
	return f.changes
}

// Run processes file events until ctx is done, then closes the watcher and
// the change channel.
func (f *FileSource) Run(ctx context.Context) {
	defer close(f.changes)
	defer f.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			f.reload()

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("theme watcher error", zap.Error(err))
		}
	}
}

func (f *FileSource) reload() {
	dark, err := readPreference(f.path)
	if err != nil {
		f.logger.Warn("ignoring theme file", zap.String("path", f.path), zap.Error(err))
		return
	}

	f.mu.Lock()
	changed := f.dark != dark
	f.dark = dark
	f.mu.Unlock()

	if !changed {
		return
	}
	f.logger.Info("system theme changed", zap.String("theme", FromPreference(dark).String()))

	select {
	case <-f.changes:
	default:
	}
	f.changes <- dark
}

func readPreference(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading theme file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return false, nil
	}
	t, err := ParseTheme(string(data))
	if err != nil {
		return false, err
	}
	return t == Dark, nil
}
