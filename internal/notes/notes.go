// Package notes renders markdown into the vault: {{key}} templates and
// the daily operations note.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// Templates maps every regular file name in dir to its path
func Templates(fs afero.Fs, dir string) (map[string]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vsErrors.NewFSError("readdir", dir,
				vsErrors.Wrap(err, "template directory missing"))
		}
		return nil, vsErrors.NewFSError("readdir", dir, err)
	}

	templates := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			templates[entry.Name()] = filepath.Join(dir, entry.Name())
		}
	}
	return templates, nil
}

// TemplateNames returns the keys of templates in sorted order
func TemplateNames(templates map[string]string) []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render replaces every {{key}} in text with its value. Placeholders
// without a value are left untouched.
func Render(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(values))
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// RenderToFile renders the template at tplPath into outPath, creating
// parent directories.
func RenderToFile(fs afero.Fs, tplPath, outPath string, values map[string]string) error {
	text, err := afero.ReadFile(fs, tplPath)
	if err != nil {
		return vsErrors.NewFSError("read", tplPath, err)
	}
	return WriteFile(fs, outPath, Render(string(text), values))
}

// WriteFile writes content to path, creating parent directories
func WriteFile(fs afero.Fs, path, content string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return vsErrors.NewFSError("mkdir", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		return vsErrors.NewFSError("write", path, err)
	}
	return nil
}

// CommitMessage is the message used when a rendered template is committed
func CommitMessage(template, out string) string {
	return fmt.Sprintf("docs: add %s -> %s", template, out)
}
