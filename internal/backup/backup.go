// Package backup archives vault directories into timestamped zip files.
package backup

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// nameLayout formats the timestamp in archive names
const nameLayout = "20060102_150405"

// Result describes a written archive
type Result struct {
	Path  string
	Files int
	Bytes int64

	// Skipped lists sources that did not exist
	Skipped []string
}

// FileName returns the archive name for a backup taken at now
func FileName(now time.Time) string {
	return "backup_" + now.Format(nameLayout) + ".zip"
}

// Archive zips every source directory into outDir, each stored under its
// base name. Missing sources are skipped and reported; if none exist no
// archive is written.
func Archive(fs afero.Fs, outDir string, sources []string, now time.Time) (result Result, err error) {
	var present []string
	for _, src := range sources {
		info, statErr := fs.Stat(src)
		switch {
		case os.IsNotExist(statErr):
			result.Skipped = append(result.Skipped, src)
		case statErr != nil:
			return result, vsErrors.NewFSError("stat", src, statErr)
		case !info.IsDir():
			return result, vsErrors.NewFSError("stat", src, vsErrors.New("not a directory"))
		default:
			present = append(present, src)
		}
	}
	if len(present) == 0 {
		return result, vsErrors.NewFSError("backup", outDir, vsErrors.New("no source directories exist"))
	}

	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		return result, vsErrors.NewFSError("mkdir", outDir, err)
	}

	path := filepath.Join(outDir, FileName(now))
	out, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return result, vsErrors.NewFSError("create", path, err)
	}
	defer func() {
		if err != nil {
			_ = fs.Remove(path)
		}
	}()

	zw := zip.NewWriter(out)
	for _, src := range present {
		n, addErr := addTree(fs, zw, src, path)
		result.Files += n
		if addErr != nil {
			err = addErr
			_ = zw.Close()
			_ = out.Close()
			return result, err
		}
	}

	if err = vsErrors.Join(zw.Close(), out.Close()); err != nil {
		return result, vsErrors.NewFSError("write", path, err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		return result, vsErrors.NewFSError("stat", path, err)
	}
	result.Path = path
	result.Bytes = info.Size()
	return result, nil
}

// addTree writes src into zw under filepath.Base(src) and returns the
// number of files added. skip is never archived.
func addTree(fs afero.Fs, zw *zip.Writer, src, skip string) (int, error) {
	parent := filepath.Dir(src)
	count := 0

	err := afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return vsErrors.NewFSError("walk", path, err)
		}
		if path == skip {
			return nil
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return vsErrors.NewFSError("backup", path, err)
		}
		name := filepath.ToSlash(rel)

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return vsErrors.NewFSError("backup", path, err)
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
			if _, err := zw.CreateHeader(header); err != nil {
				return vsErrors.NewFSError("backup", path, err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return vsErrors.NewFSError("backup", path, err)
		}
		f, err := fs.Open(path)
		if err != nil {
			return vsErrors.NewFSError("open", path, err)
		}
		_, err = io.Copy(w, f)
		closeErr := f.Close()
		if err = vsErrors.Join(err, closeErr); err != nil {
			return vsErrors.NewFSError("read", path, err)
		}
		count++
		return nil
	})
	return count, err
}
