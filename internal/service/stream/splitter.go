package stream

import (
	"fmt"
	"strings"

	"github.com/blevesearch/segment"
)

// Splitter cuts a line into tokens
type Splitter func(line string) []string

// Fields splits on runs of Unicode whitespace
func Fields(line string) []string {
	return strings.Fields(line)
}

// Words splits a line with Unicode word segmentation and keeps only word-like
// segments (letters, numbers, kana and ideographs). Punctuation and spaces are dropped.
func Words(line string) []string {
	var words []string
	segmenter := segment.NewWordSegmenter(strings.NewReader(line))
	for segmenter.Segment() {
		switch segmenter.Type() {
		case segment.Letter, segment.Number, segment.Kana, segment.Ideo:
			words = append(words, segmenter.Text())
		}
	}
	return words
}

// SplitterByName resolves a configured splitter name
func SplitterByName(name string) (Splitter, error) {
	switch name {
	case "", "fields":
		return Fields, nil
	case "words":
		return Words, nil
	default:
		return nil, fmt.Errorf("unknown splitter: %s", name)
	}
}
