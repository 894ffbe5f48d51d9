// Package inputdir is the document input directory. Every read, write and
// listing is confined to a single base directory.
package inputdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var (
	ErrOutsideBase = errors.New("path outside input directory")
	ErrNotFound    = errors.New("file not found")
)

// Store reads and writes files under base.
type Store struct {
	base string
	fs   afs.Service
}

// New opens the input directory at base, creating it if needed.
func New(ctx context.Context, base string) (*Store, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("input dir %s: %w", base, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	s := &Store{base: abs, fs: afs.New()}
	if err := s.fs.Create(ctx, url.ToFileURL(abs), file.DefaultDirOsMode, true); err != nil {
		if ok, _ := s.fs.Exists(ctx, url.ToFileURL(abs)); !ok {
			return nil, fmt.Errorf("create input dir %s: %w", abs, err)
		}
	}
	return s, nil
}

// Base returns the absolute base directory.
func (s *Store) Base() string {
	return s.base
}

// StripPath trims whitespace and one pair of surrounding double quotes, as
// pasted paths often carry them.
func StripPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, `"`)
	p = strings.TrimSuffix(p, `"`)
	return p
}

// Resolve maps name to an absolute path inside base. Relative names are
// taken relative to base; absolute names must already point inside it.
func (s *Store) Resolve(name string) (string, error) {
	name = StripPath(name)
	var candidate string
	if filepath.IsAbs(name) {
		candidate = filepath.Clean(name)
	} else {
		candidate = filepath.Join(s.base, name)
	}
	if !s.contains(candidate) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, name)
	}
	// A symlink inside base may still point elsewhere.
	if s.escapes(candidate, 0) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, name)
	}
	return candidate, nil
}

const maxLinkDepth = 40

// escapes reports whether p, once symlinks are followed, lies outside base.
// p need not exist: a dangling link is judged by its target, and a missing
// path by its nearest existing parent.
func (s *Store) escapes(p string, depth int) bool {
	if depth > maxLinkDepth {
		return true
	}
	if p == s.base {
		return false
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return !s.contains(resolved)
	}
	if fi, err := os.Lstat(p); err == nil {
		if fi.Mode()&os.ModeSymlink == 0 {
			return true
		}
		target, err := os.Readlink(p)
		if err != nil {
			return true
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(p), target)
		}
		return s.escapes(filepath.Clean(target), depth+1)
	}
	parent := filepath.Dir(p)
	if parent == p {
		return true
	}
	return s.escapes(parent, depth)
}

func (s *Store) contains(p string) bool {
	rel, err := filepath.Rel(s.base, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Save writes r to name and returns the stored path relative to base.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if p == s.base {
		return "", fmt.Errorf("%w: cannot overwrite the input directory", ErrOutsideBase)
	}
	if err := s.fs.Upload(ctx, url.ToFileURL(p), file.DefaultFileOsMode, r); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	rel, _ := filepath.Rel(s.base, p)
	return filepath.ToSlash(rel), nil
}

// Read returns the content of name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := s.fs.DownloadWithURL(ctx, url.ToFileURL(p))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether name is an existing regular file.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return false, err
	}
	obj, err := s.fs.Object(ctx, url.ToFileURL(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if ok, _ := s.fs.Exists(ctx, url.ToFileURL(p)); !ok {
			return false, nil
		}
		return false, err
	}
	return !obj.IsDir(), nil
}

// List returns the entries of dir, sorted by name. Directories carry a
// trailing slash. Files are kept when exts is empty or contains their
// lowercase extension (without the dot).
func (s *Store) List(ctx context.Context, dir string, exts []string) ([]string, error) {
	p, err := s.Resolve(dir)
	if err != nil {
		return nil, err
	}
	objects, err := s.fs.List(ctx, url.ToFileURL(p))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	filter := normalizeExts(exts)
	var out []string
	for _, obj := range objects {
		if url.Equals(url.Path(obj.URL()), p) {
			continue
		}
		if obj.IsDir() {
			out = append(out, obj.Name()+"/")
			continue
		}
		if len(filter) == 0 || filter[extOf(obj.Name())] {
			out = append(out, obj.Name())
		}
	}
	slices.Sort(out)
	return out, nil
}

// Documents lists the files at the top of the input directory whose
// extension is in exts.
func (s *Store) Documents(ctx context.Context, exts []string) ([]string, error) {
	entries, err := s.List(ctx, "", exts)
	if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, e := range entries {
		if !strings.HasSuffix(e, "/") {
			files = append(files, e)
		}
	}
	return files, nil
}

// ParseExtensions splits a comma list such as "pdf, .TXT" into normalized
// extensions. Blank entries are dropped.
func ParseExtensions(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			m[e] = true
		}
	}
	return m
}

func extOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
