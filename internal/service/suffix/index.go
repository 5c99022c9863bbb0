// Package suffix implements a suffix-array index over an interned token sequence.
//
// An Index is immutable once built and may be queried from any number of
// goroutines without locking.
package suffix

import (
	"fmt"
	"slices"
	"sort"

	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/sequence"
)

// Index holds a sequence and the offsets of its suffixes in sorted order
type Index struct {
	sequence corpus.Sequence
	suffixes []int
}

// New builds the suffix array of seq by comparison sort.
// The sequence is copied, so later changes to seq do not affect the index.
func New(seq corpus.Sequence) *Index {
	owned := make(corpus.Sequence, len(seq))
	copy(owned, seq)

	suffixes := make([]int, len(owned))
	for i := range suffixes {
		suffixes[i] = i
	}
	slices.SortFunc(suffixes, func(a, b int) int {
		return sequence.Compare(owned[a:], owned[b:])
	})

	return &Index{
		sequence: owned,
		suffixes: suffixes,
	}
}

// Restore rebuilds an index from a previously built sequence and suffix array.
// The suffix array must be a permutation of [0, len(seq)) in sorted suffix order.
func Restore(seq corpus.Sequence, suffixes []int) (*Index, error) {
	if len(seq) != len(suffixes) {
		return nil, fmt.Errorf("suffix array length %d does not match sequence length %d", len(suffixes), len(seq))
	}
	seen := make([]bool, len(seq))
	for pos, off := range suffixes {
		if off < 0 || off >= len(seq) || seen[off] {
			return nil, fmt.Errorf("suffix array is not a permutation: offset %d at position %d", off, pos)
		}
		seen[off] = true
	}
	ix := &Index{sequence: seq, suffixes: suffixes}
	if err := ix.Validate(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Validate checks that no suffix sorts after its successor
func (ix *Index) Validate() error {
	for i := 0; i+1 < len(ix.suffixes); i++ {
		if sequence.Compare(ix.Suffix(i), ix.Suffix(i+1)) == sequence.Greater {
			return fmt.Errorf("suffixes out of order at positions %d and %d", i, i+1)
		}
	}
	return nil
}

// Len returns the number of suffixes, which equals the sequence length
func (ix *Index) Len() int {
	return len(ix.suffixes)
}

// Sequence returns the indexed sequence. Callers must not modify it.
func (ix *Index) Sequence() corpus.Sequence {
	return ix.sequence
}

// SuffixArray returns the sorted suffix offsets. Callers must not modify it.
func (ix *Index) SuffixArray() []int {
	return ix.suffixes
}

// Suffix returns the suffix stored at suffix-array position pos
func (ix *Index) Suffix(pos int) corpus.Sequence {
	return ix.sequence[ix.suffixes[pos]:]
}

func (ix *Index) compareAt(pos int, query corpus.Sequence) int {
	return sequence.CompareN(ix.Suffix(pos), query, len(query))
}

// SearchLinear tests every suffix against query and returns the inclusive band
// of suffix-array positions whose suffixes start with query.
func (ix *Index) SearchLinear(query corpus.Sequence) (corpus.Range, bool) {
	found := false
	var r corpus.Range
	for pos := range ix.suffixes {
		if ix.compareAt(pos, query) != sequence.Equal {
			continue
		}
		if !found {
			r.Lo = pos
			found = true
		}
		r.Hi = pos
	}
	return r, found
}

// SearchBinary returns the same band as SearchLinear in logarithmic time.
// It locates any matching position first, then finds each band edge with an
// independent one-sided binary search.
func (ix *Index) SearchBinary(query corpus.Sequence) (corpus.Range, bool) {
	pos, ok := ix.findAny(query)
	if !ok {
		return corpus.Range{}, false
	}
	return corpus.Range{
		Lo: ix.leftEdge(query, pos),
		Hi: ix.rightEdge(query, pos),
	}, true
}

func (ix *Index) findAny(query corpus.Sequence) (int, bool) {
	lo, hi := 0, len(ix.suffixes)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch ix.compareAt(mid, query) {
		case sequence.Less:
			lo = mid + 1
		case sequence.Greater:
			hi = mid - 1
		default:
			return mid, true
		}
	}
	return 0, false
}

// leftEdge returns the first position in [0, pos] that is not Less than query.
// pos itself must match.
func (ix *Index) leftEdge(query corpus.Sequence, pos int) int {
	return sort.Search(pos+1, func(i int) bool {
		return ix.compareAt(i, query) != sequence.Less
	})
}

// rightEdge returns the last position in [pos, Len) that is not Greater than query.
// pos itself must match.
func (ix *Index) rightEdge(query corpus.Sequence, pos int) int {
	width := len(ix.suffixes) - pos
	return pos + sort.Search(width, func(i int) bool {
		return ix.compareAt(pos+i, query) == sequence.Greater
	}) - 1
}

// Offsets returns the corpus offsets of the suffixes in r, in suffix order
func (ix *Index) Offsets(r corpus.Range) []int {
	if r.Lo < 0 || r.Hi >= len(ix.suffixes) || r.Lo > r.Hi {
		return nil
	}
	offsets := make([]int, r.Len())
	copy(offsets, ix.suffixes[r.Lo:r.Hi+1])
	return offsets
}

// Occurrences returns the sorted corpus offsets at which query occurs
func (ix *Index) Occurrences(query corpus.Sequence) []int {
	r, ok := ix.SearchBinary(query)
	if !ok {
		return nil
	}
	offsets := ix.Offsets(r)
	sort.Ints(offsets)
	return offsets
}

// Count returns the number of occurrences of query
func (ix *Index) Count(query corpus.Sequence) int {
	r, ok := ix.SearchBinary(query)
	if !ok {
		return 0
	}
	return r.Len()
}

// NGrams enumerates the distinct n-grams of the sequence occurring at least
// minCount times. Results are in suffix order, which is lexicographic code order.
func (ix *Index) NGrams(n, minCount int) []corpus.NGramCount {
	if n <= 0 {
		return nil
	}

	var results []corpus.NGramCount
	var current corpus.Sequence
	count := 0

	flush := func() {
		if current != nil && count >= minCount {
			gram := make(corpus.Sequence, len(current))
			copy(gram, current)
			results = append(results, corpus.NGramCount{Codes: gram, Count: count})
		}
	}

	for _, off := range ix.suffixes {
		if len(ix.sequence)-off < n {
			continue
		}
		gram := ix.sequence[off : off+n]
		if current != nil && slices.Equal(gram, current) {
			count++
			continue
		}
		flush()
		current = gram
		count = 1
	}
	flush()

	return results
}
