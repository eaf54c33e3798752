// Package cache manages the engine's local archive-cache directories. Each
// archive name gets its own directory below a common base, which is also
// the key used to serialize runs against the same archive.
package cache

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const day = 24 * time.Hour

type Manager struct {
	base string
}

func New(base string) *Manager {
	return &Manager{
		base: base,
	}
}

// ResolveBase picks the cache base directory: the configured one, then the
// value of DUPLICITY_ARCHIVE_DIR, then the engine default under home.
func ResolveBase(configured, fromEnv, home string) string {
	switch {
	case configured != "":
		return configured
	case fromEnv != "":
		return fromEnv
	default:
		return filepath.Join(home, ".cache", "duplicity")
	}
}

func (m *Manager) Base() string {
	return m.base
}

// Dir is the cache directory of an archive. It is not created.
func (m *Manager) Dir(archiveName string) string {
	return filepath.Join(m.base, archiveName)
}

// Prune removes regular files in the archive's cache directory that were
// last modified more than maxAgeDays days before now. Empty directories left
// behind are removed as well, the archive directory itself is kept. A
// missing directory is not an error.
func (m *Manager) Prune(archiveName string, maxAgeDays int, now time.Time) (int, error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}

	root := m.Dir(archiveName)
	cutoff := now.Add(-time.Duration(maxAgeDays) * day)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	removed := 0
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})
	if err != nil {
		return removed, errors.Wrapf(err, "Unable to prune cache %s", root)
	}

	// deepest first so parents become empty before they are visited
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dirs[i])
		}
	}

	return removed, nil
}
