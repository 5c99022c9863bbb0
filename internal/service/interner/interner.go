package interner

import (
	"fmt"
	"sync"

	"corpus-go/internal/model/corpus"
)

// Interner maps token strings to dense codes assigned in first-seen order.
// Codes are never reused and the table only grows.
type Interner struct {
	tokenToCode map[string]corpus.Code // Token to code mapping
	codeToToken []string               // Code to token reverse mapping
	mu          sync.RWMutex           // Protects both tables
}

// New creates an empty interner
func New() *Interner {
	return &Interner{
		tokenToCode: make(map[string]corpus.Code),
	}
}

// FromTokens rebuilds an interner from a code-ordered token table
func FromTokens(tokens []string) (*Interner, error) {
	in := &Interner{
		tokenToCode: make(map[string]corpus.Code, len(tokens)),
		codeToToken: make([]string, 0, len(tokens)),
	}
	for i, token := range tokens {
		if _, exists := in.tokenToCode[token]; exists {
			return nil, fmt.Errorf("duplicate token %q at code %d", token, i)
		}
		in.tokenToCode[token] = corpus.Code(i)
		in.codeToToken = append(in.codeToToken, token)
	}
	return in, nil
}

// Add returns the code of token, assigning the next unused code on first sight
func (in *Interner) Add(token string) corpus.Code {
	in.mu.RLock()
	code, exists := in.tokenToCode[token]
	in.mu.RUnlock()
	if exists {
		return code
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if code, exists := in.tokenToCode[token]; exists {
		return code
	}
	code = corpus.Code(len(in.codeToToken))
	in.tokenToCode[token] = code
	in.codeToToken = append(in.codeToToken, token)
	return code
}

// Get looks up the code of token without mutating the interner
func (in *Interner) Get(token string) (corpus.Code, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	code, ok := in.tokenToCode[token]
	return code, ok
}

// Contains reports whether token has been interned
func (in *Interner) Contains(token string) bool {
	_, ok := in.Get(token)
	return ok
}

// Token returns the token owning code
func (in *Interner) Token(code corpus.Code) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(code) >= len(in.codeToToken) {
		return "", false
	}
	return in.codeToToken[code], true
}

// Len returns the number of interned tokens, which is also the next code to be assigned
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.codeToToken)
}

// Tokens returns a copy of the token table in code order
func (in *Interner) Tokens() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	tokens := make([]string, len(in.codeToToken))
	copy(tokens, in.codeToToken)
	return tokens
}

// Encode interns every token and returns the resulting sequence
func (in *Interner) Encode(tokens []string) corpus.Sequence {
	seq := make(corpus.Sequence, 0, len(tokens))
	for _, token := range tokens {
		seq = append(seq, in.Add(token))
	}
	return seq
}

// Lookup resolves tokens to codes without interning them.
// It fails on the first token that was never interned.
func (in *Interner) Lookup(tokens []string) (corpus.Sequence, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	seq := make(corpus.Sequence, 0, len(tokens))
	for _, token := range tokens {
		code, ok := in.tokenToCode[token]
		if !ok {
			return nil, false
		}
		seq = append(seq, code)
	}
	return seq, true
}

// Decode resolves codes back to tokens; unknown codes become empty strings
func (in *Interner) Decode(seq corpus.Sequence) []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	tokens := make([]string, len(seq))
	for i, code := range seq {
		if int(code) < len(in.codeToToken) {
			tokens[i] = in.codeToToken[code]
		}
	}
	return tokens
}
