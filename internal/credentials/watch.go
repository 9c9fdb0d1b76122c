package credentials

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the token file, typically after a login run rewrites it.
type Watcher struct {
	store    *Store
	fw       *fsnotify.Watcher
	target   string
	onChange func(RegionReport)
}

// Watch starts observing the directory that holds the token file.
//
// The directory is watched rather than the file so that a token written by
// rename, or created for the first time, is still seen. onChange may be nil.
func (s *Store) Watch(onChange func(RegionReport)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	target, err := filepath.Abs(s.path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", s.path, err)
	}

	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	return &Watcher{store: s, fw: fw, target: target, onChange: onChange}, nil
}

// Run blocks until ctx is done, logging every write, create or removal of the token file.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	logger := w.store.logger
	logger.Debug("watching token file", "path", w.target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				logger.Warn("token file removed", "path", w.target)
				w.notify(RegionReport{Region: RegionNotAvailable, Error: "Token file not found"})
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				report := w.store.Region()
				logger.Info("token file updated", "path", w.target, "region", report.Region)
				w.notify(report)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("token file watcher error", "error", err)
		}
	}
}

func (w *Watcher) notify(r RegionReport) {
	if w.onChange != nil {
		w.onChange(r)
	}
}
