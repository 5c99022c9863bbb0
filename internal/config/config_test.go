package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "fields", cfg.Corpus.Splitter)
	assert.Equal(t, int64(1), cfg.Corpus.MinFrequency)
	assert.Equal(t, 2, cfg.Cooccurrence.Backward)
	assert.Equal(t, 2, cfg.Cooccurrence.Forward)
	assert.Equal(t, SearchModeBinary, cfg.Search.Mode)
	assert.Equal(t, ":memory:", cfg.Kuzu.Path)
	assert.Equal(t, GraphBackendNone, cfg.Graph.Backend)
}

func TestLoadConfig_Parsing(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 9090
  workdir: /tmp/corpus
corpus:
  name: books
  root: /data/books
  splitter: words
  min_frequency: 3
  use_bloom: true
cooccurrence:
  backward: 1
  forward: 0
  shards: 4
search:
  mode: linear
  cache_size: 16
kuzu:
  path: /path/to/kuzu.db
graph:
  backend: kuzu
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "/tmp/corpus", cfg.App.WorkDir)
	assert.Equal(t, "books", cfg.Corpus.Name)
	assert.Equal(t, "words", cfg.Corpus.Splitter)
	assert.Equal(t, int64(3), cfg.Corpus.MinFrequency)
	assert.True(t, cfg.Corpus.UseBloom)
	assert.Equal(t, 1, cfg.Cooccurrence.Backward)
	assert.Equal(t, 0, cfg.Cooccurrence.Forward, "explicit zero width kept when the other side is set")
	assert.Equal(t, 4, cfg.Cooccurrence.Shards)
	assert.Equal(t, SearchModeLinear, cfg.Search.Mode)
	assert.Equal(t, 16, cfg.Search.CacheSize)
	assert.Equal(t, "/path/to/kuzu.db", cfg.Kuzu.Path)
	assert.Equal(t, GraphBackendKuzu, cfg.Graph.Backend)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "app: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad splitter", func(c *Config) { c.Corpus.Splitter = "regex" }},
		{"negative window", func(c *Config) { c.Cooccurrence.Backward = -1 }},
		{"bad search mode", func(c *Config) { c.Search.Mode = "fuzzy" }},
		{"neo4j without uri", func(c *Config) { c.Graph.Backend = GraphBackendNeo4j }},
		{"unknown graph backend", func(c *Config) { c.Graph.Backend = "postgres" }},
		{"zero workers", func(c *Config) { c.Cooccurrence.Workers = 0 }},
		{"bad port", func(c *Config) { c.App.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
