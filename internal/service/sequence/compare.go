// Package sequence defines the single ordering used to sort suffixes and to test
// bounded subsequence equality against a query.
package sequence

import "corpus-go/internal/model/corpus"

const (
	Less    = -1
	Equal   = 0
	Greater = 1
)

// CompareN compares at most limit leading codes of a and b.
//
// The first differing position decides the result. If no difference is found
// within n = min(len(a), len(b), limit) positions, the sequences are Equal when
// n == limit. Otherwise one of them ran out before the bound was reached and the
// shorter one sorts first, so a proper prefix is Less than its extension.
func CompareN(a, b corpus.Sequence, limit int) int {
	if limit < 0 {
		limit = 0
	}
	n := min(len(a), len(b), limit)
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return Less
			}
			return Greater
		}
	}
	if n == limit {
		return Equal
	}
	switch {
	case len(a) < len(b):
		return Less
	case len(a) > len(b):
		return Greater
	default:
		return Equal
	}
}

// Compare is ordinary lexicographic order with a full length tie-break
func Compare(a, b corpus.Sequence) int {
	return CompareN(a, b, max(len(a), len(b))+1)
}

// HasPrefix reports whether the first len(prefix) codes of seq equal prefix
func HasPrefix(seq, prefix corpus.Sequence) bool {
	return CompareN(seq, prefix, len(prefix)) == Equal
}
