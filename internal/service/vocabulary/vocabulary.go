package vocabulary

import (
	"sync"

	"corpus-go/internal/model/corpus"

	"github.com/bits-and-blooms/bloom/v3"
)

// Vocabulary counts token frequencies and decides which tokens are kept
type Vocabulary struct {
	frequencies map[string]int64   // token -> frequency
	bloomFilter *bloom.BloomFilter // Bloom filter for singleton detection
	useBloom    bool               // Whether first sightings go to the bloom filter only
	total       int64              // Total number of tokens added
	mu          sync.RWMutex       // Protects all fields
}

// New creates a vocabulary that tracks every token exactly
func New() *Vocabulary {
	return &Vocabulary{
		frequencies: make(map[string]int64),
	}
}

// NewWithBloom creates a vocabulary that keeps singletons out of the frequency map.
// A token is recorded in the bloom filter on its first sighting and enters the map
// with a count of 2 on its second. A false positive admits a token one sighting early.
func NewWithBloom(expectedItems uint, falsePositiveRate float64) *Vocabulary {
	return &Vocabulary{
		frequencies: make(map[string]int64),
		bloomFilter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
		useBloom:    true,
	}
}

// Add records one occurrence of token
func (v *Vocabulary) Add(token string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.total++
	if freq, exists := v.frequencies[token]; exists {
		v.frequencies[token] = freq + 1
		return
	}

	if v.useBloom {
		// Check if we've seen this token before
		if !v.bloomFilter.TestAndAddString(token) {
			return
		}
		// Second sighting: account for the one held by the filter
		v.frequencies[token] = 2
		return
	}

	v.frequencies[token] = 1
}

// Frequency returns the recorded frequency of token
func (v *Vocabulary) Frequency(token string) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.frequencies[token]
}

// Contains reports whether token is part of the vocabulary
func (v *Vocabulary) Contains(token string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.frequencies[token]
	return ok
}

// Substitute returns token if it is in the vocabulary and the unknown sentinel otherwise
func (v *Vocabulary) Substitute(token string) string {
	if v.Contains(token) {
		return token
	}
	return corpus.UnknownToken
}

// FilterByMinimumFrequency removes every token seen fewer than minFreq times
// and returns how many were removed
func (v *Vocabulary) FilterByMinimumFrequency(minFreq int64) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for token, freq := range v.frequencies {
		if freq < minFreq {
			delete(v.frequencies, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of tokens in the vocabulary
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.frequencies)
}

// Total returns the number of tokens added, including filtered ones
func (v *Vocabulary) Total() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}

// UsesBloom reports whether singletons are kept out of the frequency map
func (v *Vocabulary) UsesBloom() bool {
	return v.useBloom
}
