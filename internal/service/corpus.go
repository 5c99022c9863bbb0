package service

import (
	"errors"
	"fmt"

	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/interner"
	"corpus-go/internal/service/suffix"
)

var (
	// ErrNotFound is returned when a phrase or token does not occur in the corpus
	ErrNotFound = errors.New("not found")
	// ErrNoCorpus is returned by queries issued before a corpus was built or loaded
	ErrNoCorpus = errors.New("no corpus loaded")
)

// SearchMode selects the suffix-array search strategy
type SearchMode string

const (
	SearchLinear SearchMode = "linear"
	SearchBinary SearchMode = "binary"
)

// ParseSearchMode validates a mode name; the empty string selects binary search
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case "", SearchBinary:
		return SearchBinary, nil
	case SearchLinear:
		return SearchLinear, nil
	default:
		return "", fmt.Errorf("unknown search mode: %s", s)
	}
}

// Corpus pairs the interner that produced a sequence with the suffix index over it
type Corpus struct {
	interner *interner.Interner
	index    *suffix.Index
}

func NewCorpus(in *interner.Interner, ix *suffix.Index) *Corpus {
	return &Corpus{
		interner: in,
		index:    ix,
	}
}

func (c *Corpus) Interner() *interner.Interner {
	return c.interner
}

func (c *Corpus) Index() *suffix.Index {
	return c.index
}

// Len returns the number of tokens in the sequence
func (c *Corpus) Len() int {
	return c.index.Len()
}

// Token resolves a code to its token
func (c *Corpus) Token(code corpus.Code) (string, bool) {
	return c.interner.Token(code)
}

// SearchCodes finds the band of suffixes prefixed by query
func (c *Corpus) SearchCodes(query corpus.Sequence, mode SearchMode) (corpus.Range, bool) {
	if mode == SearchLinear {
		return c.index.SearchLinear(query)
	}
	return c.index.SearchBinary(query)
}

// Search looks a phrase up without interning it. A token the corpus has never
// seen cannot occur, so the phrase is reported as not found.
func (c *Corpus) Search(tokens []string, mode SearchMode) (corpus.Range, bool) {
	query, ok := c.interner.Lookup(tokens)
	if !ok {
		return corpus.Range{}, false
	}
	return c.SearchCodes(query, mode)
}

// Occurrences returns the sorted offsets at which the phrase starts
func (c *Corpus) Occurrences(tokens []string) []int {
	query, ok := c.interner.Lookup(tokens)
	if !ok {
		return nil
	}
	return c.index.Occurrences(query)
}

// Resolve maps codes back to tokens
func (c *Corpus) Resolve(seq corpus.Sequence) []string {
	return c.interner.Decode(seq)
}
