package msbuild

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/spf13/afero"
)

// normalizePath converts MSBuild's backslash separators to slashes.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func hasWildcard(p string) bool {
	return strings.ContainsAny(p, "*?")
}

// resolve makes p absolute against base.
func resolve(base, p string) string {
	p = normalizePath(p)
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return filepath.Clean(filepath.FromSlash(p))
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

// glob returns the files matching pattern, which may use *, ? and **.
// Relative patterns are resolved against base. Matches are returned in
// lexical order, as paths of the same form as pattern (relative stays
// relative to base).
func glob(fsys afero.Fs, base, pattern string) ([]string, error) {
	pattern = normalizePath(pattern)
	relative := !path.IsAbs(pattern)
	full := filepath.ToSlash(resolve(base, pattern))

	// Walk from the longest directory prefix free of wildcards.
	root := full
	if i := strings.IndexAny(root, "*?"); i >= 0 {
		root = root[:i]
	}
	root = path.Dir(root + "x")

	var matches []string
	err := afero.Walk(fsys, filepath.FromSlash(root), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		slashed := filepath.ToSlash(p)
		ok, err := doublestar.Match(full, slashed)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if relative {
			rel, err := filepath.Rel(base, p)
			if err == nil {
				slashed = filepath.ToSlash(rel)
			}
		}
		matches = append(matches, slashed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// matchSpec reports whether an item spec matches pattern, which may be a
// literal or contain wildcards. Comparison is on normalized paths.
func matchSpec(pattern, spec string) bool {
	pattern = path.Clean(normalizePath(pattern))
	spec = path.Clean(normalizePath(spec))
	if !hasWildcard(pattern) {
		return strings.EqualFold(pattern, spec)
	}
	ok, err := doublestar.Match(pattern, spec)
	return err == nil && ok
}
