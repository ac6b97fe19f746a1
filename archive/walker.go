// Package archive walks documents stored in zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// WalkFunc is called for every regular file in archive selected by Walk. The
// archive argument is path to archive as passed to Walk. If an error is
// returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for each file in archive selected by pattern. Pattern is
// a path inside archive: either a single file or a directory, empty pattern
// selects everything. Archives with absolute entry names or ".." components
// are rejected as a whole.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	pattern = normalizePattern(pattern)
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !selected(name, pattern) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// normalizePattern converts command line path into zip entry form.
func normalizePattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	for strings.HasPrefix(pattern, "./") {
		pattern = pattern[2:]
	}
	return strings.TrimPrefix(pattern, "/")
}

// selected matches whole path components, so "docs" selects "docs/a.md" but
// not "docs2/a.md". Matching is case sensitive.
func selected(name, pattern string) bool {
	switch {
	case pattern == "":
		return true
	case strings.HasSuffix(pattern, "/"):
		return strings.HasPrefix(name, pattern)
	default:
		return name == pattern || strings.HasPrefix(name, pattern+"/")
	}
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
