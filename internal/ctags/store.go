package ctags

import (
	"sort"

	"github.com/phobologic/ctags-msbuild/internal/model"
)

// Order selects how body lines are arranged in the tags file.
type Order int

const (
	Unsorted Order = iota
	Sorted
)

// Flag returns the value written in the !_TAG_FILE_SORTED header line.
func (o Order) Flag() int {
	if o == Sorted {
		return 1
	}
	return 0
}

func (o Order) String() string {
	if o == Sorted {
		return "sorted"
	}
	return "unsorted"
}

type record struct {
	sortKey string
	line    string
}

// Store holds at most one tag record per occurrence identity, remembering
// the order in which each identity was first seen.
type Store struct {
	index   map[model.Key]int
	records []record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[model.Key]int)}
}

// Put records o. An occurrence whose identity is already present replaces
// the existing record in place.
func (s *Store) Put(o model.Occurrence) {
	r := record{sortKey: o.Name, line: FormatLine(o)}
	key := o.Key()
	if i, ok := s.index[key]; ok {
		s.records[i] = r
		return
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, r)
}

// Len returns the number of distinct records.
func (s *Store) Len() int {
	return len(s.records)
}

// Drain returns the rendered lines arranged per order. Sorted order compares
// names byte-wise; equal names keep their insertion order.
func (s *Store) Drain(order Order) []string {
	recs := make([]record, len(s.records))
	copy(recs, s.records)

	if order == Sorted {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].sortKey < recs[j].sortKey
		})
	}

	lines := make([]string, len(recs))
	for i := range recs {
		lines[i] = recs[i].line
	}
	return lines
}
