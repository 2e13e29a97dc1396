package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/protweight/internal/apperr"
	"github.com/starford/protweight/internal/checksum"
	"github.com/starford/protweight/internal/models"
	"github.com/starford/protweight/internal/parser"
)

// Layout selects how accessions map to file paths.
type Layout string

const (
	// Nested puts every character of the accession but the last in its own
	// directory: P12345 -> P/1/2/3/4/5.json.
	Nested Layout = "nested"
	// Flat keeps one file per accession in the root: P12345 -> P12345.json.
	Flat Layout = "flat"
)

// ValidAccession reports whether acc is non-empty and alphanumeric.
func ValidAccession(acc string) bool {
	if acc == "" {
		return false
	}
	for _, r := range acc {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to graph directory
	layout Layout
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, layout Layout) (*FS, error) {
	if layout != Nested && layout != Flat {
		return nil, fmt.Errorf("storage: unknown layout %q", layout)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, layout: layout}, nil
}

// Root returns the absolute graph directory.
func (f *FS) Root() string { return f.root }

// stem returns the extension-less relative path of accession.
func (f *FS) stem(accession string) (string, error) {
	if !ValidAccession(accession) {
		return "", fmt.Errorf("%w: accession can only consist of [a-zA-Z0-9]: %q", apperr.ErrInvalidInput, accession)
	}
	if f.layout == Flat {
		return accession, nil
	}
	parts := strings.Split(accession, "")
	return filepath.Join(parts...), nil
}

// locate finds the existing file of accession, trying each known extension.
func (f *FS) locate(accession string) (string, error) {
	stem, err := f.stem(accession)
	if err != nil {
		return "", err
	}
	for _, ext := range parser.Extensions {
		rel := stem + ext
		if info, err := os.Stat(filepath.Join(f.root, rel)); err == nil && !info.IsDir() {
			return rel, nil
		}
	}
	return "", fmt.Errorf("storage: graph of %s: %w", accession, apperr.ErrNotFound)
}

// AccessionOf maps a root-relative graph file path back to its accession.
func (f *FS) AccessionOf(rel string) (string, bool) {
	if _, err := parser.FormatOf(rel); err != nil {
		return "", false
	}
	rel = filepath.Clean(rel)
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return "", false
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	var acc string
	if f.layout == Flat {
		if strings.ContainsRune(stem, filepath.Separator) {
			return "", false
		}
		acc = stem
	} else {
		parts := strings.Split(stem, string(filepath.Separator))
		for _, p := range parts {
			if len([]rune(p)) != 1 {
				return "", false
			}
		}
		acc = strings.Join(parts, "")
	}
	return acc, ValidAccession(acc)
}

// List walks the root and returns metadata for every graph file.
func (f *FS) List() ([]models.GraphMetadata, error) {
	var out []models.GraphMetadata
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		acc, ok := f.AccessionOf(rel)
		if !ok {
			return nil
		}
		meta, err := f.stat(acc, rel)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

func (f *FS) stat(accession, rel string) (models.GraphMetadata, error) {
	abs := filepath.Join(f.root, rel)
	info, err := os.Stat(abs)
	if err != nil {
		return models.GraphMetadata{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.GraphMetadata{}, err
	}
	return models.GraphMetadata{
		Accession: accession,
		Path:      rel,
		Checksum:  checksum.Sum(data),
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Read returns the raw bytes of the graph file of accession.
func (f *FS) Read(accession string) ([]byte, models.GraphMetadata, error) {
	rel, err := f.locate(accession)
	if err != nil {
		return nil, models.GraphMetadata{}, err
	}
	abs := filepath.Join(f.root, rel)
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.GraphMetadata{}, fmt.Errorf("storage: graph of %s: %w", accession, apperr.ErrNotFound)
		}
		return nil, models.GraphMetadata{}, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	meta := models.GraphMetadata{Accession: accession, Path: rel, Checksum: checksum.Sum(data), Size: int64(len(data))}
	if info, err := os.Stat(abs); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return data, meta, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(accession, ext string, content []byte) error {
	stem, err := f.stem(accession)
	if err != nil {
		return err
	}
	if _, err := parser.FormatOf(ext); err != nil {
		return err
	}
	abs := filepath.Join(f.root, stem+ext)
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".protweight-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes every graph file of accession.
func (f *FS) Delete(accession string) error {
	stem, err := f.stem(accession)
	if err != nil {
		return err
	}
	removed := false
	for _, ext := range parser.Extensions {
		err := os.Remove(filepath.Join(f.root, stem+ext))
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("storage: delete %s: %w", accession, err)
		}
	}
	if !removed {
		return fmt.Errorf("storage: graph of %s: %w", accession, apperr.ErrNotFound)
	}
	return nil
}
