// Package cooc counts target/context co-occurrences over a sliding window of codes.
package cooc

import (
	"fmt"

	"corpus-go/internal/model/corpus"
)

// Counter slides a window of backward+1+forward codes over a token stream.
// Once the window is full, every Register evaluates the middle code as the target
// and increments (target, context) once for each distinct code in the other slots.
//
// A Counter is not safe for concurrent use.
type Counter struct {
	backward int
	forward  int
	ring     []corpus.Code // Fixed-capacity window storage
	start    int           // Ring index of the oldest code
	size     int           // Codes currently in the window
	windows  int64         // Window positions evaluated so far
	seen     []corpus.Code // Scratch space for context deduplication
	table    *Table
}

// NewCounter creates a counter with the given backward and forward half-widths
func NewCounter(backward, forward int) (*Counter, error) {
	if backward < 0 || forward < 0 {
		return nil, fmt.Errorf("window half-widths must be non-negative, got backward=%d forward=%d", backward, forward)
	}
	capacity := backward + 1 + forward
	return &Counter{
		backward: backward,
		forward:  forward,
		ring:     make([]corpus.Code, capacity),
		seen:     make([]corpus.Code, 0, capacity-1),
		table:    NewTable(),
	}, nil
}

// Capacity returns the window size backward+1+forward
func (c *Counter) Capacity() int {
	return len(c.ring)
}

// Full reports whether the window holds Capacity codes
func (c *Counter) Full() bool {
	return c.size == len(c.ring)
}

// Windows returns the number of window positions evaluated so far
func (c *Counter) Windows() int64 {
	return c.windows
}

// Table returns the frequency table owned by the counter
func (c *Counter) Table() *Table {
	return c.table
}

// Register pushes code onto the right end of the window, evicting the oldest
// code when the window is already full, and accumulates the window once full.
func (c *Counter) Register(code corpus.Code) {
	capacity := len(c.ring)
	if c.size < capacity {
		c.ring[(c.start+c.size)%capacity] = code
		c.size++
	} else {
		c.ring[c.start] = code
		c.start = (c.start + 1) % capacity
	}

	if c.size == capacity {
		c.accumulate()
	}
}

// RegisterAll registers every code of seq in order
func (c *Counter) RegisterAll(seq corpus.Sequence) {
	for _, code := range seq {
		c.Register(code)
	}
}

func (c *Counter) at(i int) corpus.Code {
	return c.ring[(c.start+i)%len(c.ring)]
}

func (c *Counter) accumulate() {
	c.windows++
	target := c.at(c.backward)

	c.seen = c.seen[:0]
	for i := 0; i < len(c.ring); i++ {
		if i == c.backward {
			continue
		}
		context := c.at(i)
		if c.alreadySeen(context) {
			continue
		}
		c.seen = append(c.seen, context)
		c.table.Add(corpus.Pair{Target: target, Context: context}, 1)
	}
}

func (c *Counter) alreadySeen(code corpus.Code) bool {
	for _, s := range c.seen {
		if s == code {
			return true
		}
	}
	return false
}

// Window returns a snapshot of the window, most distant past first
func (c *Counter) Window() []corpus.Code {
	window := make([]corpus.Code, c.size)
	for i := range window {
		window[i] = c.at(i)
	}
	return window
}

// Reset empties the window. The frequency table is kept.
func (c *Counter) Reset() {
	c.start = 0
	c.size = 0
}
