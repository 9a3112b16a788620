// Package config loads the optional .ctags-msbuild.toml settings file.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/ctags"
	"github.com/phobologic/ctags-msbuild/internal/discover"
)

// FileName is the config file looked up in the search directory.
const FileName = ".ctags-msbuild.toml"

// DefaultOutput is the tags file written when none is configured.
const DefaultOutput = "msb-tags"

// Config holds every setting the command reads from a config file.
type Config struct {
	Output     string            `toml:"output"`
	Sorted     bool              `toml:"sorted"`
	Recurse    bool              `toml:"recurse"`
	Patterns   []string          `toml:"patterns"`
	Exclude    []string          `toml:"exclude"`
	SDKsPath   string            `toml:"sdks_path"`
	CacheSize  int               `toml:"cache_size"`
	Properties map[string]string `toml:"properties"`
	Program    Program           `toml:"program"`
}

// Program overrides the !_TAG_PROGRAM_* header values. Empty fields keep
// the defaults.
type Program struct {
	Author  string `toml:"author"`
	Contact string `toml:"contact"`
	Name    string `toml:"name"`
	URL     string `toml:"url"`
	Version string `toml:"version"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Output:    DefaultOutput,
		Patterns:  append([]string(nil), discover.DefaultPatterns...),
		CacheSize: 256,
	}
}

// Find reports the path of the config file in dir, if there is one.
func Find(fsys afero.Fs, dir string) (string, bool) {
	path := filepath.Join(dir, FileName)
	ok, err := afero.Exists(fsys, path)
	if err != nil || !ok {
		return "", false
	}
	return path, true
}

// Load reads the TOML file at path on top of Default. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(fsys afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if cfg.CacheSize < 0 {
		return cfg, fmt.Errorf("%s: cache_size must not be negative", path)
	}
	for _, p := range cfg.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return cfg, fmt.Errorf("%s: pattern %q: %w", path, p, err)
		}
	}

	if cfg.Output, err = homedir.Expand(cfg.Output); err != nil {
		return cfg, fmt.Errorf("%s: output: %w", path, err)
	}
	if cfg.SDKsPath, err = homedir.Expand(cfg.SDKsPath); err != nil {
		return cfg, fmt.Errorf("%s: sdks_path: %w", path, err)
	}
	return cfg, nil
}

// Order maps the sorted setting to a tag body order.
func (c Config) Order() ctags.Order {
	if c.Sorted {
		return ctags.Sorted
	}
	return ctags.Unsorted
}

// Header returns the default header with any [program] overrides applied.
func (c Config) Header() ctags.Header {
	h := ctags.DefaultHeader()
	if c.Program.Author != "" {
		h.Author = c.Program.Author
	}
	if c.Program.Contact != "" {
		h.Contact = c.Program.Contact
	}
	if c.Program.Name != "" {
		h.Name = c.Program.Name
	}
	if c.Program.URL != "" {
		h.URL = c.Program.URL
	}
	if c.Program.Version != "" {
		h.Version = c.Program.Version
	}
	return h
}
