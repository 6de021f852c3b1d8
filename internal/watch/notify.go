package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/logger"
)

// NotifyDetector records the arrival time of filesystem events
type NotifyDetector struct {
	watcher *fsnotify.Watcher
	logger  logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	latest  time.Time
	lastErr error

	done chan struct{}
	wg   sync.WaitGroup
}

// NewNotifyDetector starts watching roots recursively. Roots that do not
// exist yet are skipped.
func NewNotifyDetector(log logger.Logger, roots ...string) (*NotifyDetector, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, vsErrors.Wrap(err, "failed to create fsnotify watcher")
	}

	d := &NotifyDetector{
		watcher: w,
		logger:  log,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			log.Warning("Watch root %s does not exist; skipping", root)
			continue
		}
		if err := d.addTree(root); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	d.wg.Add(1)
	go d.loop()
	return d, nil
}

// addTree adds root and every directory below it, .git excluded
func (d *NotifyDetector) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return vsErrors.NewFSError("walk", path, err)
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && ignoredDir(entry.Name()) {
			return filepath.SkipDir
		}
		if err := d.watcher.Add(path); err != nil {
			return vsErrors.NewFSError("watch", path, err)
		}
		return nil
	})
}

func (d *NotifyDetector) loop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handle(event)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warning("fsnotify error: %v", err)
			d.mu.Lock()
			d.lastErr = err
			d.mu.Unlock()
		}
	}
}

func (d *NotifyDetector) handle(event fsnotify.Event) {
	if inIgnoredDir(event.Name) {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := d.addTree(event.Name); err != nil {
				d.logger.Warning("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	d.mu.Lock()
	d.latest = d.now()
	d.mu.Unlock()
}

// inIgnoredDir reports whether any path element is an ignored directory
func inIgnoredDir(path string) bool {
	for dir := path; ; {
		if ignoredDir(filepath.Base(dir)) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// LatestChange implements Detector. A watcher error received since the
// previous call is returned once.
func (d *NotifyDetector) LatestChange(ctx context.Context, since time.Time) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastErr != nil {
		err := d.lastErr
		d.lastErr = nil
		return time.Time{}, false, vsErrors.Wrap(err, "watcher reported an error")
	}
	if d.latest.After(since) {
		return d.latest, true, nil
	}
	return time.Time{}, false, nil
}

// Close stops the event loop and releases the watcher
func (d *NotifyDetector) Close() error {
	close(d.done)
	err := d.watcher.Close()
	d.wg.Wait()
	return err
}
