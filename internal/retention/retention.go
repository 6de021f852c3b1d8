// Package retention caps the number of files kept in a directory.
package retention

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// Prune keeps the newest max regular files directly under dir and removes
// the rest, oldest last in the returned slice. Subdirectories are left
// alone. The directory is created when missing. Files that disappear
// before they can be removed are skipped.
func Prune(fs afero.Fs, dir string, max int) ([]string, error) {
	if max < 0 {
		return nil, vsErrors.NewConfigError("max-exports", max,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "retention ceiling must not be negative"))
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, vsErrors.NewFSError("mkdir", dir, err)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, vsErrors.NewFSError("readdir", dir, err)
	}

	files := entries[:0]
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			files = append(files, entry)
		}
	}
	if len(files) <= max {
		return nil, nil
	}

	sortNewestFirst(files)

	var (
		removed []string
		errs    error
	)
	for _, info := range files[max:] {
		path := filepath.Join(dir, info.Name())
		if err := fs.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errs = vsErrors.Join(errs, vsErrors.NewFSError("remove", path, err))
			continue
		}
		removed = append(removed, path)
	}
	return removed, errs
}

// Newest returns the names of up to n regular files in dir, newest first.
// A missing directory yields no names.
func Newest(fs afero.Fs, dir string, n int) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, vsErrors.NewFSError("readdir", dir, err)
	}

	files := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			files = append(files, entry)
		}
	}
	sortNewestFirst(files)

	if n >= 0 && len(files) > n {
		files = files[:n]
	}
	names := make([]string, len(files))
	for i, info := range files {
		names[i] = info.Name()
	}
	return names, nil
}

// sortNewestFirst orders by mtime descending, ties by name
func sortNewestFirst(files []os.FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		mi, mj := files[i].ModTime(), files[j].ModTime()
		if !mi.Equal(mj) {
			return mi.After(mj)
		}
		return files[i].Name() < files[j].Name()
	})
}
