// Package discover finds MSBuild files in a directory tree.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// DefaultPatterns are the file name patterns searched for when none are
// configured: project files, then targets, then props.
var DefaultPatterns = []string{"*proj", "*.targets", "*.props"}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
}

// Options control a discovery walk.
type Options struct {
	// Patterns are file name globs; DefaultPatterns when empty.
	Patterns []string
	// Recursive descends into subdirectories.
	Recursive bool
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root.
	Exclude []string
}

// Files returns the absolute paths of build files under root. Results are
// grouped by pattern in pattern order and sorted within each group; a file
// matching several patterns is listed once, under the first.
func Files(fsys afero.Fs, root string, opts Options) ([]string, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, err
		}
	}

	var gi *ignore.GitIgnore
	if opts.Recursive {
		gi = loadGitignore(fsys, root)
	}

	groups := make([][]string, len(patterns))

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip errors
		}

		name := info.Name()

		if info.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded(rel, opts.Exclude) {
			return nil
		}

		for i, p := range patterns {
			if ok, _ := filepath.Match(p, name); ok {
				groups[i] = append(groups[i], path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []string
	for _, g := range groups {
		sort.Strings(g)
		results = append(results, g...)
	}
	return results, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func loadGitignore(fsys afero.Fs, root string) *ignore.GitIgnore {
	data, err := afero.ReadFile(fsys, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}
