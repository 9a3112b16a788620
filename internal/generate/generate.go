// Package generate runs tag collection over a sequence of project files and
// writes the resulting tags file.
package generate

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/collect"
	"github.com/phobologic/ctags-msbuild/internal/ctags"
	"github.com/phobologic/ctags-msbuild/internal/model"
)

// Loader turns a project path into an evaluated document.
type Loader interface {
	Load(path string) (*model.Document, error)
}

// Generator accumulates tags across documents. Documents are processed one
// at a time in the order given; the ledger and store are shared by all of
// them so declarations from common imports are tagged once.
type Generator struct {
	loader   Loader
	log      hclog.Logger
	ledger   *collect.Ledger
	store    *ctags.Store
	failures *multierror.Error
}

// New returns a Generator with an empty ledger and store. A nil logger
// discards output.
func New(loader Loader, logger hclog.Logger) *Generator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{
		loader: loader,
		log:    logger,
		ledger: collect.NewLedger(),
		store:  ctags.NewStore(),
	}
}

// ProcessFile loads path and adds its occurrences to the store. A file that
// was already indexed through another document's imports is skipped.
func (g *Generator) ProcessFile(path string) error {
	path = filepath.Clean(path)
	if g.ledger.Seen(path) {
		g.log.Debug("skipping already indexed file", "path", path)
		return nil
	}

	g.log.Debug("parsing", "path", path)
	doc, err := g.loader.Load(path)
	if err != nil {
		return err
	}

	occs := collect.Collect(doc, g.ledger)
	for _, o := range occs {
		g.store.Put(o)
	}
	g.log.Trace("collected", "path", path, "occurrences", len(occs))
	return nil
}

// ProcessFiles processes every path in order. A document that fails to load
// is logged and recorded, and processing continues with the next one.
func (g *Generator) ProcessFiles(paths []string) {
	for _, p := range paths {
		if err := g.ProcessFile(p); err != nil {
			g.log.Error("error loading project", "path", p, "error", err)
			g.failures = multierror.Append(g.failures, err)
		}
	}
}

// Failures returns every load error recorded by ProcessFiles, or nil.
func (g *Generator) Failures() error {
	return g.failures.ErrorOrNil()
}

// Len reports the number of distinct tags collected so far.
func (g *Generator) Len() int {
	return g.store.Len()
}

// Indexed returns the sorted list of files that contributed declarations.
func (g *Generator) Indexed() []string {
	return g.ledger.Files()
}

// WriteTags writes the collected tags to path on fsys.
func (g *Generator) WriteTags(fsys afero.Fs, path string, order ctags.Order, h ctags.Header) error {
	g.log.Info("generating tags file", "path", path, "tags", g.Len(), "files", len(g.Indexed()), "order", order)
	if err := ctags.WriteFile(fsys, path, g.store, order, h); err != nil {
		return fmt.Errorf("writing tags file: %w", err)
	}
	return nil
}
