// Package watch triggers sync passes from file system activity in the vault.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TriggerFunc is called once per settled burst of vault changes.
type TriggerFunc func()

// DefaultDebounce is the quiet period after the last change before a sync
// pass is triggered. Editors write in bursts; syncing per keystroke would
// hammer the remote service.
const DefaultDebounce = 2 * time.Second

// Watch starts an fsnotify watcher on the vault root and calls trigger
// after each settled burst of markdown changes, until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Temp files from the store's atomic writes are ignored, so the sync
// engine's own metadata updates do not re-trigger it.
func Watch(ctx context.Context, vaultRoot string, debounce time.Duration, logger *slog.Logger, trigger TriggerFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			logger.Debug("watcher: changes settled, triggering sync")
			trigger()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !relevant(ev.Name) {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether a change to name should trigger a sync pass.
func relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".raido-tmp-") {
		return false
	}
	return strings.HasSuffix(base, ".md")
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
