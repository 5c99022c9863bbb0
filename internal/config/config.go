package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	SearchModeLinear = "linear"
	SearchModeBinary = "binary"

	GraphBackendNone  = ""
	GraphBackendKuzu  = "kuzu"
	GraphBackendNeo4j = "neo4j"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Corpus       CorpusConfig       `yaml:"corpus"`
	Cooccurrence CooccurrenceConfig `yaml:"cooccurrence"`
	Search       SearchConfig       `yaml:"search"`
	Kuzu         KuzuConfig         `yaml:"kuzu"`
	Neo4j        Neo4jConfig        `yaml:"neo4j"`
	Graph        GraphConfig        `yaml:"graph"`
	Mcp          McpConfig          `yaml:"mcp"`
}

type AppConfig struct {
	Port     int    `yaml:"port"`
	WorkDir  string `yaml:"workdir"`
	LogLevel string `yaml:"log_level"`
}

// CorpusConfig controls how raw text becomes a token sequence
type CorpusConfig struct {
	Name                   string  `yaml:"name"`
	Root                   string  `yaml:"root"`
	Splitter               string  `yaml:"splitter"` // fields | words
	MinFrequency           int64   `yaml:"min_frequency"`
	UseBloom               bool    `yaml:"use_bloom"`
	BloomExpectedItems     uint    `yaml:"bloom_expected_items"`
	BloomFalsePositiveRate float64 `yaml:"bloom_false_positive_rate"`
}

type CooccurrenceConfig struct {
	Backward int `yaml:"backward"`
	Forward  int `yaml:"forward"`
	// Shards > 1 recounts the built sequence in parallel segments; windows
	// crossing a segment boundary are not counted
	Shards  int `yaml:"shards"`
	Workers int `yaml:"workers"`
}

type SearchConfig struct {
	Mode      string `yaml:"mode"`
	CacheSize int    `yaml:"cache_size"`
}

type KuzuConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type GraphConfig struct {
	Backend string `yaml:"backend"`
	// MaxEdges caps how many co-occurrence entries are exported, 0 means all
	MaxEdges int `yaml:"max_edges"`
}

type McpConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads a YAML file, applies defaults and validates the result.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.WorkDir == "" {
		c.App.WorkDir = "./data"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Corpus.Name == "" {
		c.Corpus.Name = "default"
	}
	if c.Corpus.Splitter == "" {
		c.Corpus.Splitter = "fields"
	}
	if c.Corpus.MinFrequency == 0 {
		c.Corpus.MinFrequency = 1
	}
	if c.Corpus.BloomExpectedItems == 0 {
		c.Corpus.BloomExpectedItems = 1_000_000
	}
	if c.Corpus.BloomFalsePositiveRate == 0 {
		c.Corpus.BloomFalsePositiveRate = 0.001
	}
	if c.Cooccurrence.Backward == 0 && c.Cooccurrence.Forward == 0 {
		c.Cooccurrence.Backward = 2
		c.Cooccurrence.Forward = 2
	}
	if c.Cooccurrence.Shards == 0 {
		c.Cooccurrence.Shards = 1
	}
	if c.Cooccurrence.Workers == 0 {
		c.Cooccurrence.Workers = 2
	}
	if c.Search.Mode == "" {
		c.Search.Mode = SearchModeBinary
	}
	if c.Search.CacheSize == 0 {
		c.Search.CacheSize = 1024
	}
	if c.Kuzu.Path == "" {
		c.Kuzu.Path = ":memory:"
	}
}

// Validate rejects settings the corpus build cannot honor
func (c *Config) Validate() error {
	if c.App.Port < 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port: %d", c.App.Port)
	}
	if c.Corpus.Splitter != "fields" && c.Corpus.Splitter != "words" {
		return fmt.Errorf("invalid corpus splitter: %s", c.Corpus.Splitter)
	}
	if c.Corpus.MinFrequency < 1 {
		return fmt.Errorf("corpus min_frequency must be at least 1, got %d", c.Corpus.MinFrequency)
	}
	if c.Corpus.BloomFalsePositiveRate <= 0 || c.Corpus.BloomFalsePositiveRate >= 1 {
		return fmt.Errorf("bloom_false_positive_rate must be in (0, 1), got %f", c.Corpus.BloomFalsePositiveRate)
	}
	if c.Cooccurrence.Backward < 0 || c.Cooccurrence.Forward < 0 {
		return fmt.Errorf("cooccurrence window widths must be non-negative, got backward=%d forward=%d",
			c.Cooccurrence.Backward, c.Cooccurrence.Forward)
	}
	if c.Cooccurrence.Shards < 1 || c.Cooccurrence.Workers < 1 {
		return fmt.Errorf("cooccurrence shards and workers must be at least 1")
	}
	if c.Search.Mode != SearchModeLinear && c.Search.Mode != SearchModeBinary {
		return fmt.Errorf("invalid search mode: %s", c.Search.Mode)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search cache_size must be non-negative, got %d", c.Search.CacheSize)
	}
	switch c.Graph.Backend {
	case GraphBackendNone, GraphBackendKuzu:
	case GraphBackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j graph backend requires neo4j.uri")
		}
	default:
		return fmt.Errorf("invalid graph backend: %s", c.Graph.Backend)
	}
	if c.Graph.MaxEdges < 0 {
		return fmt.Errorf("graph max_edges must be non-negative, got %d", c.Graph.MaxEdges)
	}
	return nil
}
