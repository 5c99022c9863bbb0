package corpus

import "strings"

// Code is the dense integer identifier the interner assigns to a token
type Code uint32

// Sequence is the corpus as an ordered list of codes
type Sequence []Code

// UnknownToken replaces every token that is not part of the vocabulary
const UnknownToken = "<UNKNOWN>"

// Range is an inclusive band of suffix-array positions
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Len returns the number of suffix-array positions covered by the range
func (r Range) Len() int {
	return r.Hi - r.Lo + 1
}

// Pair is an ordered (target, context) key of the frequency table
type Pair struct {
	Target  Code
	Context Code
}

// Entry is one exported row of the frequency table
type Entry struct {
	Target    Code  `json:"target"`
	Context   Code  `json:"context"`
	Frequency int64 `json:"frequency"`
}

// NGram is a run of tokens
type NGram []string

// String returns the n-gram as a space-separated string
func (ng NGram) String() string {
	return strings.Join(ng, " ")
}

// NGramCount is a distinct run of codes with its number of occurrences
type NGramCount struct {
	Codes Sequence
	Count int
}
