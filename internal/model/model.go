// Package model defines core data structures for ctags-msbuild.
package model

import (
	"fmt"
	"strings"
)

// Kind indicates which sort of build symbol a tag points at.
type Kind int

const (
	KindTarget Kind = iota
	KindItem
	KindProperty
)

// Letter returns the one-letter kind field used in tag lines.
func (k Kind) Letter() string {
	switch k {
	case KindTarget:
		return "t"
	case KindItem:
		return "i"
	case KindProperty:
		return "p"
	}
	return "?"
}

func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindItem:
		return "item"
	case KindProperty:
		return "property"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Location is a declaration site: a source file and a 1-based line.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Occurrence is a single symbol found while walking one document.
type Occurrence struct {
	Kind Kind
	Name string
	File string
	Line int
}

// Key is the identity of an occurrence. Two occurrences with equal keys
// render to the same tag line.
type Key struct {
	Kind Kind
	Name string
	File string
	Line int
}

// Key returns the identity of o.
func (o Occurrence) Key() Key {
	return Key(o)
}

// Document is an evaluated build description: what a loader produces for
// one input path, including everything pulled in through imports.
type Document struct {
	Path       string
	Targets    []*Target
	Items      []Item
	Properties []Property
}

// Target returns the target with the given name, or nil. Target names
// are case-insensitive.
func (d *Document) Target(name string) *Target {
	for _, t := range d.Targets {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// Target is a named unit of build logic.
// Location is nil for targets that have no authored declaration.
type Target struct {
	Name     string
	Location *Location
	Body     []BodyBlock
}

// BodyBlock is a declaration group inside a target body. It is implemented
// only by ItemGroupBlock and PropertyGroupBlock.
type BodyBlock interface {
	bodyBlock()
}

// ItemGroupBlock is an ItemGroup declared inside a target.
type ItemGroupBlock struct {
	Entries []Entry
}

// PropertyGroupBlock is a PropertyGroup declared inside a target.
type PropertyGroupBlock struct {
	Entries []Entry
}

func (ItemGroupBlock) bodyBlock()     {}
func (PropertyGroupBlock) bodyBlock() {}

// Entry is one declaration within a body block: an item type or a property
// name, with its own location.
type Entry struct {
	Name     string
	Location Location
}

// Item is one evaluated item. A wildcard declaration evaluates into many
// items that share the declaring element's Location.
type Item struct {
	Type     string
	Include  string
	Location *Location
}

// Property is one evaluated property. Location points at the definition
// that produced the final value; it is nil for reserved, global and
// environment properties.
type Property struct {
	Name     string
	Value    string
	Reserved bool
	Location *Location
}
