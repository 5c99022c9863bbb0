package cooc

import (
	"context"

	"corpus-go/internal/model/corpus"

	"golang.org/x/sync/errgroup"
)

// Split cuts seq into at most n contiguous segments of near-equal length
func Split(seq corpus.Sequence, n int) []corpus.Sequence {
	if n < 1 {
		n = 1
	}
	if n > len(seq) {
		n = max(len(seq), 1)
	}
	segments := make([]corpus.Sequence, 0, n)
	size := len(seq) / n
	rem := len(seq) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		segments = append(segments, seq[start:end])
		start = end
	}
	return segments
}

// CountSharded runs one counter per segment on up to workers goroutines and
// merges the resulting tables by summing counts.
//
// Windows that would span two segments are never evaluated: each segment fills
// its own window from scratch. The result therefore equals a single pass only
// when there is exactly one segment.
func CountSharded(ctx context.Context, segments []corpus.Sequence, backward, forward, workers int) (*Table, error) {
	if workers < 1 {
		workers = 1
	}
	// Validate the window up front so every worker can assume success
	if _, err := NewCounter(backward, forward); err != nil {
		return nil, err
	}

	tables := make([]*Table, len(segments))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, segment := range segments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counter, _ := NewCounter(backward, forward)
			counter.RegisterAll(segment)
			tables[i] = counter.Table()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewTable()
	for _, t := range tables {
		merged.Merge(t)
	}
	return merged, nil
}
