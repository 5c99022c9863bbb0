package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"corpus-go/internal/config"
	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/cooc"
	"corpus-go/internal/service/interner"
	"corpus-go/internal/service/stream"
	"corpus-go/internal/service/suffix"
	"corpus-go/internal/service/vocabulary"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// BuildOptions controls how a token stream becomes a corpus
type BuildOptions struct {
	MinFrequency           int64
	UseBloom               bool
	BloomExpectedItems     uint
	BloomFalsePositiveRate float64
	Backward               int
	Forward                int
	Shards                 int
	Workers                int
}

// BuildOptionsFromConfig extracts the build settings of cfg
func BuildOptionsFromConfig(cfg *config.Config) BuildOptions {
	return BuildOptions{
		MinFrequency:           cfg.Corpus.MinFrequency,
		UseBloom:               cfg.Corpus.UseBloom,
		BloomExpectedItems:     cfg.Corpus.BloomExpectedItems,
		BloomFalsePositiveRate: cfg.Corpus.BloomFalsePositiveRate,
		Backward:               cfg.Cooccurrence.Backward,
		Forward:                cfg.Cooccurrence.Forward,
		Shards:                 cfg.Cooccurrence.Shards,
		Workers:                cfg.Cooccurrence.Workers,
	}
}

// CorpusStats describes the current corpus
type CorpusStats struct {
	Name               string        `json:"name"`
	SnapshotID         string        `json:"snapshot_id"`
	TokensRead         int64         `json:"tokens_read"`
	SequenceLength     int           `json:"sequence_length"`
	VocabularySize     int           `json:"vocabulary_size"`
	FilteredTokens     int           `json:"filtered_tokens"`
	UnknownOccurrences int64         `json:"unknown_occurrences"`
	CooccurrencePairs  int           `json:"cooccurrence_pairs"`
	CooccurrenceTotal  int64         `json:"cooccurrence_total"`
	Windows            int64         `json:"windows"`
	Backward           int           `json:"backward"`
	Forward            int           `json:"forward"`
	Shards             int           `json:"shards"`
	BuildDuration      time.Duration `json:"build_duration"`
	CreatedAt          time.Time     `json:"created_at"`
}

// SearchResult is the outcome of a successful phrase search
type SearchResult struct {
	Query   []string     `json:"query"`
	Mode    SearchMode   `json:"mode"`
	Range   corpus.Range `json:"range"`
	Count   int          `json:"count"`
	Offsets []int        `json:"offsets"`
}

// Cooccurrence is one context of a target token with its frequency
type Cooccurrence struct {
	Context   string `json:"context"`
	Frequency int64  `json:"frequency"`
}

// NGramFrequency is a distinct n-gram of the corpus with its number of occurrences
type NGramFrequency struct {
	Tokens corpus.NGram `json:"tokens"`
	Count  int          `json:"count"`
}

// CorpusManager builds a corpus from a token source and answers queries on it.
// Queries may run concurrently with each other and with a rebuild; a rebuild
// swaps the corpus in atomically once it is complete.
type CorpusManager struct {
	name        string
	options     BuildOptions
	defaultMode SearchMode

	corpus     *Corpus
	table      *cooc.Table
	stats      CorpusStats
	generation uint64 // Incremented on every install, part of the cache key

	cache   *lru.Cache[string, *SearchResult]
	metrics *Metrics
	logger  *zap.Logger
	mu      sync.RWMutex // Protects corpus, table, stats and generation
}

// NewCorpusManager creates an empty manager configured from cfg
func NewCorpusManager(cfg *config.Config, logger *zap.Logger) (*CorpusManager, error) {
	mode, err := ParseSearchMode(cfg.Search.Mode)
	if err != nil {
		return nil, err
	}

	cacheSize := cfg.Search.CacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, *SearchResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	return &CorpusManager{
		name:        cfg.Corpus.Name,
		options:     BuildOptionsFromConfig(cfg),
		defaultMode: mode,
		cache:       cache,
		metrics:     DefaultMetrics(),
		logger:      logger,
	}, nil
}

// WithMetrics replaces the instruments the manager reports to
func (cm *CorpusManager) WithMetrics(metrics *Metrics) *CorpusManager {
	cm.metrics = metrics
	return cm
}

func (cm *CorpusManager) Name() string {
	return cm.name
}

// Build reads src twice. The first pass counts token frequencies and decides
// the vocabulary, the second substitutes unknown tokens, interns them and feeds
// the co-occurrence window. src must yield the same tokens on both passes.
func (cm *CorpusManager) Build(ctx context.Context, src stream.TokenSource) error {
	start := time.Now()
	err := cm.build(ctx, src, start)
	status := "success"
	if err != nil {
		status = "error"
	}
	cm.metrics.BuildsTotal.WithLabelValues(status).Inc()
	cm.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return err
}

func (cm *CorpusManager) build(ctx context.Context, src stream.TokenSource, start time.Time) error {
	opts := cm.options

	var vocab *vocabulary.Vocabulary
	if opts.UseBloom {
		vocab = vocabulary.NewWithBloom(opts.BloomExpectedItems, opts.BloomFalsePositiveRate)
	} else {
		vocab = vocabulary.New()
	}

	if err := src.Each(ctx, func(token string) error {
		vocab.Add(token)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to count token frequencies: %w", err)
	}
	filtered := vocab.FilterByMinimumFrequency(opts.MinFrequency)

	cm.logger.Info("Vocabulary built",
		zap.String("corpus", cm.name),
		zap.Int64("tokens_read", vocab.Total()),
		zap.Int("vocabulary_size", vocab.Len()),
		zap.Int("filtered_tokens", filtered),
		zap.Bool("bloom", vocab.UsesBloom()))

	sharded := opts.Shards > 1
	counter, err := cooc.NewCounter(opts.Backward, opts.Forward)
	if err != nil {
		return err
	}

	in := interner.New()
	seq := make(corpus.Sequence, 0, vocab.Total())
	var unknown int64
	if err := src.Each(ctx, func(token string) error {
		substituted := vocab.Substitute(token)
		if substituted == corpus.UnknownToken {
			unknown++
		}
		code := in.Add(substituted)
		seq = append(seq, code)
		if !sharded {
			counter.Register(code)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to encode token stream: %w", err)
	}

	ix := suffix.New(seq)

	table := counter.Table()
	windows := counter.Windows()
	if sharded {
		segments := cooc.Split(seq, opts.Shards)
		table, err = cooc.CountSharded(ctx, segments, opts.Backward, opts.Forward, opts.Workers)
		if err != nil {
			return fmt.Errorf("failed to count co-occurrences: %w", err)
		}
		windows = windowsIn(segments, counter.Capacity())
	}

	stats := CorpusStats{
		Name:               cm.name,
		SnapshotID:         uuid.New().String(),
		TokensRead:         vocab.Total(),
		SequenceLength:     len(seq),
		VocabularySize:     in.Len(),
		FilteredTokens:     filtered,
		UnknownOccurrences: unknown,
		CooccurrencePairs:  table.Len(),
		CooccurrenceTotal:  table.Total(),
		Windows:            windows,
		Backward:           opts.Backward,
		Forward:            opts.Forward,
		Shards:             max(opts.Shards, 1),
		BuildDuration:      time.Since(start),
		CreatedAt:          time.Now(),
	}

	cm.install(NewCorpus(in, ix), table, stats)

	cm.logger.Info("Corpus built",
		zap.String("corpus", cm.name),
		zap.String("snapshot_id", stats.SnapshotID),
		zap.Int("sequence_length", stats.SequenceLength),
		zap.Int("vocabulary_size", stats.VocabularySize),
		zap.Int("cooccurrence_pairs", stats.CooccurrencePairs),
		zap.Int64("windows", stats.Windows),
		zap.Duration("duration", stats.BuildDuration))

	return nil
}

func windowsIn(segments []corpus.Sequence, capacity int) int64 {
	var n int64
	for _, s := range segments {
		if len(s) >= capacity {
			n += int64(len(s) - capacity + 1)
		}
	}
	return n
}

// install swaps in a complete corpus and drops cached results of the previous one
func (cm *CorpusManager) install(c *Corpus, table *cooc.Table, stats CorpusStats) {
	cm.mu.Lock()
	cm.corpus = c
	cm.table = table
	cm.stats = stats
	cm.generation++
	cm.mu.Unlock()

	cm.cache.Purge()
	cm.metrics.CorpusTokens.Set(float64(stats.SequenceLength))
	cm.metrics.VocabularySize.Set(float64(stats.VocabularySize))
	cm.metrics.CooccurrencePairs.Set(float64(stats.CooccurrencePairs))
}

func (cm *CorpusManager) current() (*Corpus, *cooc.Table, error) {
	c, table, _, err := cm.currentGeneration()
	return c, table, err
}

func (cm *CorpusManager) currentGeneration() (*Corpus, *cooc.Table, uint64, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.corpus == nil {
		return nil, nil, 0, ErrNoCorpus
	}
	return cm.corpus, cm.table, cm.generation, nil
}

// Loaded reports whether a corpus is available for queries
func (cm *CorpusManager) Loaded() bool {
	_, _, err := cm.current()
	return err == nil
}

// Corpus returns the current corpus
func (cm *CorpusManager) Corpus() (*Corpus, error) {
	c, _, err := cm.current()
	return c, err
}

// Stats returns statistics of the current corpus
func (cm *CorpusManager) Stats() (CorpusStats, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.corpus == nil {
		return CorpusStats{}, ErrNoCorpus
	}
	return cm.stats, nil
}

// DefaultMode returns the configured search mode
func (cm *CorpusManager) DefaultMode() SearchMode {
	return cm.defaultMode
}

// cacheKey length-prefixes every token so that no two distinct queries share a key
func cacheKey(generation uint64, tokens []string, mode SearchMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%s", generation, mode)
	for _, token := range tokens {
		fmt.Fprintf(&b, "/%d:%s", len(token), token)
	}
	return b.String()
}

// Search finds every occurrence of the phrase. An empty mode selects the
// configured default. Results are cached until the next build or load.
func (cm *CorpusManager) Search(tokens []string, mode SearchMode) (*SearchResult, error) {
	if mode == "" {
		mode = cm.defaultMode
	}
	c, _, generation, err := cm.currentGeneration()
	if err != nil {
		return nil, err
	}

	key := cacheKey(generation, tokens, mode)
	if result, ok := cm.cache.Get(key); ok {
		cm.metrics.CacheHits.Inc()
		cm.metrics.SearchesTotal.WithLabelValues(string(mode), "cached").Inc()
		return result, nil
	}

	start := time.Now()
	r, found := c.Search(tokens, mode)
	cm.metrics.SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if !found {
		cm.metrics.SearchesTotal.WithLabelValues(string(mode), "not_found").Inc()
		return nil, fmt.Errorf("phrase %q: %w", strings.Join(tokens, " "), ErrNotFound)
	}
	cm.metrics.SearchesTotal.WithLabelValues(string(mode), "found").Inc()

	offsets := c.Index().Offsets(r)
	slices.Sort(offsets)
	result := &SearchResult{
		Query:   slices.Clone(tokens),
		Mode:    mode,
		Range:   r,
		Count:   r.Len(),
		Offsets: offsets,
	}
	cm.cache.Add(key, result)

	cm.logger.Debug("Phrase search",
		zap.Strings("query", tokens),
		zap.String("mode", string(mode)),
		zap.Int("count", result.Count))

	return result, nil
}

// Cooccurrences returns the contexts of target, most frequent first.
// A limit of zero or less returns every context.
func (cm *CorpusManager) Cooccurrences(target string, limit int) ([]Cooccurrence, error) {
	c, table, err := cm.current()
	if err != nil {
		return nil, err
	}

	code, ok := c.Interner().Get(target)
	if !ok {
		return nil, fmt.Errorf("token %q: %w", target, ErrNotFound)
	}

	row := table.Row(code, limit)
	results := make([]Cooccurrence, 0, len(row))
	for _, entry := range row {
		token, _ := c.Token(entry.Context)
		results = append(results, Cooccurrence{Context: token, Frequency: entry.Frequency})
	}
	return results, nil
}

// NGrams returns the distinct n-grams occurring at least minCount times,
// most frequent first, ties in lexicographic code order.
// A limit of zero or less returns every n-gram.
func (cm *CorpusManager) NGrams(n, minCount, limit int) ([]NGramFrequency, error) {
	c, _, err := cm.current()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("n-gram size must be at least 1, got %d", n)
	}

	counts := c.Index().NGrams(n, minCount)
	slices.SortStableFunc(counts, func(a, b corpus.NGramCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}

	results := make([]NGramFrequency, 0, len(counts))
	for _, nc := range counts {
		results = append(results, NGramFrequency{Tokens: c.Resolve(nc.Codes), Count: nc.Count})
	}
	return results, nil
}

// Entries returns the co-occurrence table sorted by target then context
func (cm *CorpusManager) Entries() ([]corpus.Entry, error) {
	_, table, err := cm.current()
	if err != nil {
		return nil, err
	}
	return table.Entries(), nil
}

// ExportCSV writes the co-occurrence table as target,context,frequency rows
func (cm *CorpusManager) ExportCSV(w io.Writer) error {
	c, table, err := cm.current()
	if err != nil {
		return err
	}
	if err := cooc.WriteCSV(w, table.Entries(), c.Interner()); err != nil {
		return fmt.Errorf("failed to export co-occurrences: %w", err)
	}
	return nil
}
