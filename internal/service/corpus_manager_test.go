package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"corpus-go/internal/config"
	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, mutate func(*config.Config)) *CorpusManager {
	t.Helper()
	cfg := config.Default()
	cfg.Cooccurrence.Backward = 1
	cfg.Cooccurrence.Forward = 1
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	cm, err := NewCorpusManager(cfg, zap.NewNop())
	require.NoError(t, err)
	return cm.WithMetrics(NewMetrics(nil))
}

func buildFrom(t *testing.T, cm *CorpusManager, tokens ...string) {
	t.Helper()
	require.NoError(t, cm.Build(context.Background(), stream.SliceSource(tokens)))
}

func TestCorpusManager_QueriesBeforeBuild(t *testing.T) {
	cm := newTestManager(t, nil)

	assert.False(t, cm.Loaded())
	_, err := cm.Search([]string{"a"}, "")
	assert.ErrorIs(t, err, ErrNoCorpus)
	_, err = cm.Cooccurrences("a", 0)
	assert.ErrorIs(t, err, ErrNoCorpus)
	_, err = cm.Stats()
	assert.ErrorIs(t, err, ErrNoCorpus)
	assert.ErrorIs(t, cm.ExportCSV(&bytes.Buffer{}), ErrNoCorpus)
}

func TestCorpusManager_CooccurrenceScenario(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "a", "b", "a", "c", "a")

	coocs, err := cm.Cooccurrences("a", 0)
	require.NoError(t, err)
	assert.Equal(t, []Cooccurrence{{Context: "b", Frequency: 1}, {Context: "c", Frequency: 1}}, coocs)

	coocs, err = cm.Cooccurrences("b", 0)
	require.NoError(t, err)
	assert.Equal(t, []Cooccurrence{{Context: "a", Frequency: 1}}, coocs)

	_, err = cm.Cooccurrences("z", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	var buf bytes.Buffer
	require.NoError(t, cm.ExportCSV(&buf))
	assert.Equal(t, "a,b,1\na,c,1\nb,a,1\nc,a,1\n", buf.String())

	stats, err := cm.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.SequenceLength)
	assert.Equal(t, 3, stats.VocabularySize)
	assert.Equal(t, int64(3), stats.Windows)
	assert.Equal(t, 4, stats.CooccurrencePairs)
	assert.NotEmpty(t, stats.SnapshotID)
}

func TestCorpusManager_Search(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "1", "2", "1", "2", "1")

	for _, mode := range []SearchMode{SearchLinear, SearchBinary} {
		t.Run(string(mode), func(t *testing.T) {
			result, err := cm.Search([]string{"1", "2"}, mode)
			require.NoError(t, err)
			assert.Equal(t, 2, result.Count)
			assert.Equal(t, []int{0, 2}, result.Offsets)
			assert.Equal(t, mode, result.Mode)

			result, err = cm.Search(nil, mode)
			require.NoError(t, err)
			assert.Equal(t, corpus.Range{Lo: 0, Hi: 4}, result.Range)

			_, err = cm.Search([]string{"2", "2"}, mode)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = cm.Search([]string{"3"}, mode)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	result, err := cm.Search([]string{"1"}, "")
	require.NoError(t, err)
	assert.Equal(t, SearchBinary, result.Mode, "empty mode uses the configured default")
}

func TestCorpusManager_SearchModesAgree(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	tokens := make([]string, 400)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("w%d", r.Intn(6))
	}
	cm := newTestManager(t, nil)
	buildFrom(t, cm, tokens...)

	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			query := tokens[i : i+n]
			linear, err := cm.Search(query, SearchLinear)
			require.NoError(t, err)
			binary, err := cm.Search(query, SearchBinary)
			require.NoError(t, err)
			require.Equal(t, linear.Range, binary.Range, "query %v", query)
			require.Contains(t, binary.Offsets, i)
		}
	}
}

func TestCorpusManager_SearchCache(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "x", "y", "x")

	first, err := cm.Search([]string{"x"}, SearchBinary)
	require.NoError(t, err)
	second, err := cm.Search([]string{"x"}, SearchBinary)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := cm.Search([]string{"x"}, SearchLinear)
	require.NoError(t, err)
	assert.NotSame(t, first, other, "modes are cached separately")

	buildFrom(t, cm, "x", "x", "x")
	rebuilt, err := cm.Search([]string{"x"}, SearchBinary)
	require.NoError(t, err)
	assert.Equal(t, 3, rebuilt.Count, "rebuild drops cached results")
}

func TestCorpusManager_MinimumFrequency(t *testing.T) {
	cm := newTestManager(t, func(cfg *config.Config) {
		cfg.Corpus.MinFrequency = 2
	})
	buildFrom(t, cm, "a", "b", "a", "c", "a")

	stats, err := cm.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TokensRead)
	assert.Equal(t, 2, stats.FilteredTokens)
	assert.Equal(t, int64(2), stats.UnknownOccurrences)
	assert.Equal(t, 2, stats.VocabularySize)

	_, err = cm.Search([]string{"b"}, "")
	assert.ErrorIs(t, err, ErrNotFound)

	result, err := cm.Search([]string{"a", corpus.UnknownToken}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, result.Offsets)

	coocs, err := cm.Cooccurrences(corpus.UnknownToken, 0)
	require.NoError(t, err)
	assert.Equal(t, []Cooccurrence{{Context: "a", Frequency: 2}}, coocs)
}

func TestCorpusManager_ShardedBuild(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e", "f"}
	cm := newTestManager(t, func(cfg *config.Config) {
		cfg.Cooccurrence.Shards = 2
	})
	buildFrom(t, cm, tokens...)

	stats, err := cm.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Shards)
	// Two segments of three tokens evaluate one window each
	assert.Equal(t, int64(2), stats.Windows)

	coocs, err := cm.Cooccurrences("b", 0)
	require.NoError(t, err)
	assert.Equal(t, []Cooccurrence{{Context: "a", Frequency: 1}, {Context: "c", Frequency: 1}}, coocs)

	coocs, err = cm.Cooccurrences("c", 0)
	require.NoError(t, err)
	assert.Empty(t, coocs, "the window centred on c straddles the segment boundary")
}

func TestCorpusManager_NGrams(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "a", "b", "a", "b", "a")

	unigrams, err := cm.NGrams(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []NGramFrequency{
		{Tokens: corpus.NGram{"a"}, Count: 3},
		{Tokens: corpus.NGram{"b"}, Count: 2},
	}, unigrams)

	limited, err := cm.NGrams(1, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	trigrams, err := cm.NGrams(3, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []NGramFrequency{{Tokens: corpus.NGram{"a", "b", "a"}, Count: 2}}, trigrams)

	trigrams, err = cm.NGrams(3, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, trigrams)

	_, err = cm.NGrams(0, 1, 0)
	assert.Error(t, err)
}

type failingSource struct{ err error }

func (f failingSource) Each(ctx context.Context, fn func(string) error) error {
	return f.err
}

func TestCorpusManager_BuildErrorKeepsPreviousCorpus(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "a", "b")

	boom := errors.New("disk on fire")
	err := cm.Build(context.Background(), failingSource{err: boom})
	assert.ErrorIs(t, err, boom)

	result, err := cm.Search([]string{"a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestCorpusManager_ConcurrentQueries(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "a", "b", "a", "c", "a")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%4 == 0 {
					assert.NoError(t, cm.Build(context.Background(), stream.SliceSource{"a", "b", "a", "c", "a"}))
					continue
				}
				result, err := cm.Search([]string{"a"}, SearchMode([]string{"linear", "binary"}[j%2]))
				assert.NoError(t, err)
				assert.Equal(t, 3, result.Count)
			}
		}(i)
	}
	wg.Wait()
}

func TestParseSearchMode(t *testing.T) {
	mode, err := ParseSearchMode("")
	require.NoError(t, err)
	assert.Equal(t, SearchBinary, mode)

	mode, err = ParseSearchMode("linear")
	require.NoError(t, err)
	assert.Equal(t, SearchLinear, mode)

	_, err = ParseSearchMode("fuzzy")
	assert.Error(t, err)
}

func TestCorpusManager_SearchCacheKeepsQueriesApart(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "a", "b", "a\x1fb", "c")

	pair, err := cm.Search([]string{"a", "b"}, SearchBinary)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, pair.Offsets)

	joined, err := cm.Search([]string{"a\x1fb"}, SearchBinary)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, joined.Offsets)
	assert.Equal(t, []string{"a\x1fb"}, joined.Query)

	assert.NotEqual(t, cacheKey(1, []string{"a", "b"}, SearchBinary), cacheKey(1, []string{"a/1:b"}, SearchBinary))
}

func TestCorpusManager_ExportCSVSortsByToken(t *testing.T) {
	cm := newTestManager(t, nil)
	buildFrom(t, cm, "zebra", "apple", "zebra", "mango", "apple")

	var buf bytes.Buffer
	require.NoError(t, cm.ExportCSV(&buf))
	assert.Equal(t, "apple,zebra,1\nmango,apple,1\nmango,zebra,1\nzebra,apple,1\nzebra,mango,1\n", buf.String())
}
