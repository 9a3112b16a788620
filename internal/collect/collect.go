// Package collect walks evaluated build documents and extracts tag occurrences.
package collect

import (
	"sort"

	"github.com/phobologic/ctags-msbuild/internal/model"
)

// Ledger records source files whose symbols have been fully collected during
// a run. Files are only ever added.
type Ledger struct {
	files map[string]struct{}
}

// NewLedger returns a ledger pre-populated with files.
func NewLedger(files ...string) *Ledger {
	l := &Ledger{files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		l.files[f] = struct{}{}
	}
	return l
}

// Seen reports whether file has already been collected.
func (l *Ledger) Seen(file string) bool {
	_, ok := l.files[file]
	return ok
}

// Mark adds files to the ledger.
func (l *Ledger) Mark(files ...string) {
	for _, f := range files {
		l.files[f] = struct{}{}
	}
}

// Len returns the number of files in the ledger.
func (l *Ledger) Len() int {
	return len(l.files)
}

// Files returns the recorded files in sorted order.
func (l *Ledger) Files() []string {
	out := make([]string, 0, len(l.files))
	for f := range l.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Collect returns the occurrences declared by doc, skipping symbols from
// files already present in ledger. Every file that contributed an occurrence
// is added to ledger once the whole document has been walked, so a file
// touched by one kind of symbol still yields its other kinds in this call.
func Collect(doc *model.Document, ledger *Ledger) []model.Occurrence {
	c := &collector{ledger: ledger, touched: make(map[string]struct{})}

	c.targets(doc)
	c.items(doc)
	c.properties(doc)

	for f := range c.touched {
		ledger.Mark(f)
	}
	return c.out
}

type collector struct {
	ledger  *Ledger
	touched map[string]struct{}
	out     []model.Occurrence
}

func (c *collector) emit(kind model.Kind, name string, loc model.Location) {
	c.out = append(c.out, model.Occurrence{
		Kind: kind,
		Name: name,
		File: loc.File,
		Line: loc.Line,
	})
	c.touched[loc.File] = struct{}{}
}

func (c *collector) targets(doc *model.Document) {
	for _, t := range doc.Targets {
		if t.Location == nil || c.ledger.Seen(t.Location.File) {
			continue
		}
		c.emit(model.KindTarget, t.Name, *t.Location)
	}

	// Declarations inside target bodies are not part of the evaluated
	// item and property lists, so they are only reachable from here.
	for _, t := range doc.Targets {
		for _, block := range t.Body {
			switch b := block.(type) {
			case model.ItemGroupBlock:
				for _, e := range b.Entries {
					c.emit(model.KindItem, e.Name, e.Location)
				}
			case model.PropertyGroupBlock:
				for _, e := range b.Entries {
					c.emit(model.KindProperty, e.Name, e.Location)
				}
			}
		}
	}
}

func (c *collector) items(doc *model.Document) {
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.Location == nil || c.ledger.Seen(item.Location.File) {
			continue
		}
		c.emit(model.KindItem, item.Type, *item.Location)
	}
}

func (c *collector) properties(doc *model.Document) {
	for i := range doc.Properties {
		prop := &doc.Properties[i]
		if prop.Reserved || prop.Location == nil {
			continue
		}
		if c.ledger.Seen(prop.Location.File) {
			continue
		}
		c.emit(model.KindProperty, prop.Name, *prop.Location)
	}
}
