package cooc

import (
	"cmp"
	"slices"

	"corpus-go/internal/model/corpus"
)

// Table accumulates (target, context) frequencies. Counts only ever grow.
type Table struct {
	counts map[corpus.Pair]int64
	total  int64
}

// NewTable creates an empty frequency table
func NewTable() *Table {
	return &Table{
		counts: make(map[corpus.Pair]int64),
	}
}

// Add increments the frequency of pair by n
func (t *Table) Add(pair corpus.Pair, n int64) {
	if n <= 0 {
		return
	}
	t.counts[pair] += n
	t.total += n
}

// Get returns the frequency of the (target, context) pair
func (t *Table) Get(target, context corpus.Code) int64 {
	return t.counts[corpus.Pair{Target: target, Context: context}]
}

// Len returns the number of distinct pairs
func (t *Table) Len() int {
	return len(t.counts)
}

// Total returns the sum of all frequencies
func (t *Table) Total() int64 {
	return t.total
}

// Merge adds every count of other into t. Merging is commutative and associative.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for pair, n := range other.counts {
		t.Add(pair, n)
	}
}

// Entries returns every row sorted by target, then context
func (t *Table) Entries() []corpus.Entry {
	entries := make([]corpus.Entry, 0, len(t.counts))
	for pair, n := range t.counts {
		entries = append(entries, corpus.Entry{Target: pair.Target, Context: pair.Context, Frequency: n})
	}
	slices.SortFunc(entries, func(a, b corpus.Entry) int {
		if c := cmp.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return cmp.Compare(a.Context, b.Context)
	})
	return entries
}

// Row returns the contexts of target ordered by descending frequency, ties by context.
// A limit of zero or less returns every context.
func (t *Table) Row(target corpus.Code, limit int) []corpus.Entry {
	var row []corpus.Entry
	for pair, n := range t.counts {
		if pair.Target == target {
			row = append(row, corpus.Entry{Target: pair.Target, Context: pair.Context, Frequency: n})
		}
	}
	slices.SortFunc(row, func(a, b corpus.Entry) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return cmp.Compare(a.Context, b.Context)
	})
	if limit > 0 && len(row) > limit {
		row = row[:limit]
	}
	return row
}

// TableFromEntries rebuilds a table from exported rows
func TableFromEntries(entries []corpus.Entry) *Table {
	t := NewTable()
	for _, e := range entries {
		t.Add(corpus.Pair{Target: e.Target, Context: e.Context}, e.Frequency)
	}
	return t
}
