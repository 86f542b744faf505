// Package cache owns the flat logo directory: one file per identity key, written
// atomically, never deleted. Stale files are moved into an _archive subdirectory.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArchiveDirName is the subdirectory orphaned files are moved into.
const ArchiveDirName = "_archive"

// Extensions are the file types recognized as cache entries, in lookup order.
var Extensions = []string{".png", ".svg", ".jpg", ".webp", ".gif"}

// Dir is a logo cache directory.
type Dir struct {
	Path string

	now func() time.Time
}

// NewDir returns a Dir rooted at path. Nothing is created until the first write.
func NewDir(path string) *Dir {
	return &Dir{Path: path, now: time.Now}
}

// PathFor returns where key's canonical file lives.
func (d *Dir) PathFor(key string) string {
	return filepath.Join(d.Path, key+".png")
}

// ArchiveDir returns the archive subdirectory.
func (d *Dir) ArchiveDir() string {
	return filepath.Join(d.Path, ArchiveDirName)
}

// Ensure creates the directory if needed.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return nil
}

// Find returns the first existing file for key.
func (d *Dir) Find(key string) (string, bool) {
	for _, ext := range Extensions {
		p := filepath.Join(d.Path, key+ext)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Write stores data as key's canonical file. The bytes land in a temp file in
// the same directory first and are renamed into place, so readers never see a
// partial file.
func (d *Dir) Write(key string, data []byte) (string, error) {
	if err := d.Ensure(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(d.Path, "."+key+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod %s: %w", key, err)
	}

	dst := d.PathFor(key)
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return "", fmt.Errorf("rename %s: %w", key, err)
	}
	return dst, nil
}

// List returns the names of cache files in the primary directory, sorted.
// Subdirectories, hidden files and unrecognized extensions are ignored. A
// missing directory lists as empty.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsCacheFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Archive moves name from the primary directory into the archive. If the
// archive already holds a file of that name, it goes into a UTC timestamped
// subdirectory instead so nothing is overwritten.
func (d *Dir) Archive(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid cache file name %q", name)
	}
	src := filepath.Join(d.Path, name)
	archive := d.ArchiveDir()
	if err := os.MkdirAll(archive, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	dst := filepath.Join(archive, name)
	if _, err := os.Lstat(dst); err == nil {
		stamped := filepath.Join(archive, d.now().UTC().Format("20060102T150405.000000000Z"))
		if err := os.MkdirAll(stamped, 0o755); err != nil {
			return "", fmt.Errorf("create archive dir: %w", err)
		}
		dst = filepath.Join(stamped, name)
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("archive %s: %w", name, err)
	}
	return dst, nil
}

// IsCacheFile reports whether name looks like a cache entry.
func IsCacheFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// KeyOf strips the extension from a cache file name.
func KeyOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
