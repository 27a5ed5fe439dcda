// ABOUTME: Reindexes the documents directory when files change
// ABOUTME: fsnotify watcher with a debounce so bursts of writes trigger one run

package docindex

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is how long the watcher waits for changes to settle.
const DebounceDelay = 500 * time.Millisecond

// Watch reindexes dir after changes until ctx is done. onChange, if set, is
// called after every reindex run that altered the index.
func (idx *Index) Watch(ctx context.Context, dir string, onChange func(IndexResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	idx.logger.Info("watching documents", "dir", dir)

	timer := time.NewTimer(DebounceDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchTree(watcher, event.Name)
				}
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if !isDocument(event.Name) && filepath.Ext(event.Name) != "" {
				continue
			}
			timer.Reset(DebounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			idx.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			res, err := idx.IndexDir(ctx, dir)
			if err != nil {
				idx.logger.Error("reindex failed", "error", err)
				continue
			}
			if onChange != nil && (res.Indexed > 0 || res.Removed > 0) {
				onChange(res)
			}
		}
	}
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}
