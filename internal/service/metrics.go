package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the corpus build and query instruments
type Metrics struct {
	BuildsTotal       *prometheus.CounterVec
	BuildDuration     prometheus.Histogram
	CorpusTokens      prometheus.Gauge
	VocabularySize    prometheus.Gauge
	CooccurrencePairs prometheus.Gauge
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	CacheHits         prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_builds_total",
				Help: "Number of corpus builds by outcome",
			},
			[]string{"status"},
		),
		BuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_build_duration_seconds",
				Help:    "Time spent building a corpus",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		CorpusTokens: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_sequence_tokens",
				Help: "Length of the current token sequence",
			},
		),
		VocabularySize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_vocabulary_size",
				Help: "Number of distinct interned tokens",
			},
		),
		CooccurrencePairs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_cooccurrence_pairs",
				Help: "Number of distinct (target, context) pairs",
			},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_searches_total",
				Help: "Number of phrase searches by mode and result",
			},
			[]string{"mode", "result"},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_search_duration_seconds",
				Help:    "Phrase search latency",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"mode"},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_search_cache_hits_total",
				Help: "Number of searches answered from the result cache",
			},
		),
	}
}

// DefaultMetrics returns the process-wide instruments registered with the
// default prometheus registry
var DefaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
})
