// Package msbuild statically evaluates MSBuild project files into the
// document model used for tag collection.
//
// Evaluation follows the engine's ordering closely enough to locate
// declarations: properties and imports are evaluated first in document
// order, then items, with targets collected as they are encountered. It
// does not run tasks, and property functions are not evaluated.
package msbuild

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/model"
)

const defaultCacheSize = 256

// Options configure a Loader.
type Options struct {
	// GlobalProperties are set before evaluation and cannot be overridden
	// by project files.
	GlobalProperties map[string]string
	// Environ is a list of KEY=VALUE pairs exposed as environment
	// properties, usually os.Environ().
	Environ []string
	// SDKsPath is the directory holding <Name>/Sdk/Sdk.props and
	// Sdk.targets for projects that reference an SDK. When empty, the
	// MSBuildSDKsPath property is consulted; when that is also empty SDK
	// imports are skipped.
	SDKsPath string
	// CacheSize bounds the number of parsed files kept between loads.
	CacheSize int
	Logger    hclog.Logger
}

// LoadError reports a project that could not be evaluated.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type cachedFile struct {
	size    int64
	modTime time.Time
	root    *element
}

// Loader evaluates project files. Parsed files are cached, so files
// imported by many projects are read once. A Loader is not safe for
// concurrent use.
type Loader struct {
	fs    afero.Fs
	opts  Options
	log   hclog.Logger
	cache *lru.Cache[string, *cachedFile]
}

// NewLoader returns a Loader reading from fsys.
func NewLoader(fsys afero.Fs, opts Options) (*Loader, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *cachedFile](size)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Loader{fs: fsys, opts: opts, log: log, cache: cache}, nil
}

// Load evaluates the project at path, including everything it imports.
// Failures are returned as *LoadError.
func (l *Loader) Load(path string) (*model.Document, error) {
	path = filepath.Clean(path)
	root, err := l.parse(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	e := newEvaluation(l, path)
	if err := e.run(root); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return e.document(), nil
}

func (l *Loader) parse(path string) (*element, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if c, ok := l.cache.Get(path); ok && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		return c.root, nil
	}

	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	src, err := decodeSource(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	root, err := parseXML(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.log.Trace("parsed", "path", path)
	l.cache.Add(path, &cachedFile{size: info.Size(), modTime: info.ModTime(), root: root})
	return root, nil
}
