package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// Detector reports the most recent change under its roots
type Detector interface {
	// LatestChange returns the newest change time strictly after since.
	// The boolean is false when nothing changed.
	LatestChange(ctx context.Context, since time.Time) (time.Time, bool, error)
}

// ignoredDir reports whether a directory is excluded from watching
func ignoredDir(name string) bool {
	return name == ".git"
}

// PollDetector compares modification times on every call
type PollDetector struct {
	fs    afero.Fs
	roots []string
}

// NewPollDetector creates a detector scanning roots on fs
func NewPollDetector(fs afero.Fs, roots ...string) *PollDetector {
	return &PollDetector{fs: fs, roots: roots}
}

// LatestChange implements Detector. Directory mtimes are included so
// that deletions and renames register. Missing roots are skipped.
func (d *PollDetector) LatestChange(ctx context.Context, since time.Time) (time.Time, bool, error) {
	var latest time.Time

	for _, root := range d.roots {
		if _, err := d.fs.Stat(root); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return time.Time{}, false, vsErrors.NewFSError("stat", root, err)
		}

		err := afero.Walk(d.fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				// removed while walking
				if os.IsNotExist(err) {
					return nil
				}
				return vsErrors.NewFSError("walk", path, err)
			}
			if info.IsDir() && path != root && ignoredDir(info.Name()) {
				return filepath.SkipDir
			}
			if mod := info.ModTime(); mod.After(latest) {
				latest = mod
			}
			return nil
		})
		if err != nil {
			return time.Time{}, false, err
		}
	}

	if latest.After(since) {
		return latest, true, nil
	}
	return time.Time{}, false, nil
}
