package coocgraph

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"corpus-go/internal/config"
	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/cooc"

	"go.uber.org/zap"
)

// Neighbor is a context token read back from the graph
type Neighbor struct {
	Context   string `json:"context"`
	Frequency int64  `json:"frequency"`
}

// ExportSummary counts what an export wrote
type ExportSummary struct {
	Tokens int `json:"tokens"`
	Edges  int `json:"edges"`
}

type CoocGraph struct {
	db     GraphDatabase
	logger *zap.Logger
}

func NewCoocGraph(db GraphDatabase, logger *zap.Logger) *CoocGraph {
	return &CoocGraph{
		db:     db,
		logger: logger,
	}
}

// NewCoocGraphFromConfig opens the configured graph backend and verifies it is reachable
func NewCoocGraphFromConfig(cfg *config.Config, logger *zap.Logger) (*CoocGraph, error) {
	var db GraphDatabase
	var err error

	switch cfg.Graph.Backend {
	case config.GraphBackendKuzu:
		databasePath := cfg.Kuzu.Path
		if databasePath == "" {
			databasePath = ":memory:"
			logger.Info("No Kuzu database path configured, using in-memory database")
		}
		db, err = NewKuzuDatabase(databasePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kuzu database: %w", err)
		}
	case config.GraphBackendNeo4j:
		db, err = NewNeo4jDatabase(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Neo4j database: %w", err)
		}
	default:
		return nil, fmt.Errorf("no graph backend configured")
	}

	if err := db.VerifyConnectivity(context.Background()); err != nil {
		db.Close(context.Background())
		return nil, fmt.Errorf("failed to verify database connectivity: %w", err)
	}

	return NewCoocGraph(db, logger), nil
}

func (g *CoocGraph) Close(ctx context.Context) error {
	return g.db.Close(ctx)
}

// Clear removes every Token node and its edges
func (g *CoocGraph) Clear(ctx context.Context) error {
	if _, err := g.db.ExecuteWrite(ctx, "MATCH (t:Token) DETACH DELETE t", nil); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	return nil
}

// Export replaces the graph with the given entries. When maxEdges is positive
// only the maxEdges most frequent entries are written.
func (g *CoocGraph) Export(ctx context.Context, entries []corpus.Entry, resolver cooc.Resolver, maxEdges int) (ExportSummary, error) {
	if maxEdges > 0 && len(entries) > maxEdges {
		entries = slices.Clone(entries)
		slices.SortStableFunc(entries, func(a, b corpus.Entry) int {
			return cmp.Compare(b.Frequency, a.Frequency)
		})
		entries = entries[:maxEdges]
	}

	if err := g.Clear(ctx); err != nil {
		return ExportSummary{}, err
	}

	codes := make(map[corpus.Code]struct{})
	for _, e := range entries {
		codes[e.Target] = struct{}{}
		codes[e.Context] = struct{}{}
	}
	sorted := make([]corpus.Code, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	slices.Sort(sorted)

	for _, code := range sorted {
		text, ok := resolver.Token(code)
		if !ok {
			return ExportSummary{}, fmt.Errorf("no token for code %d", code)
		}
		_, err := g.db.ExecuteWrite(ctx,
			"MERGE (t:Token {code: $code}) SET t.text = $text",
			map[string]any{"code": int64(code), "text": text})
		if err != nil {
			return ExportSummary{}, fmt.Errorf("failed to write token %q: %w", text, err)
		}
	}

	for _, e := range entries {
		_, err := g.db.ExecuteWrite(ctx,
			`MATCH (a:Token {code: $target}), (b:Token {code: $context})
			MERGE (a)-[r:COOCCURS]->(b)
			SET r.frequency = $frequency`,
			map[string]any{
				"target":    int64(e.Target),
				"context":   int64(e.Context),
				"frequency": e.Frequency,
			})
		if err != nil {
			return ExportSummary{}, fmt.Errorf("failed to write edge %d->%d: %w", e.Target, e.Context, err)
		}
	}

	summary := ExportSummary{Tokens: len(sorted), Edges: len(entries)}
	g.logger.Info("Exported co-occurrence graph",
		zap.Int("tokens", summary.Tokens),
		zap.Int("edges", summary.Edges))
	return summary, nil
}

// Neighbors reads the strongest contexts of token back from the graph.
// A limit of zero or less returns every context.
func (g *CoocGraph) Neighbors(ctx context.Context, token string, limit int) ([]Neighbor, error) {
	query := `MATCH (a:Token {text: $text})-[r:COOCCURS]->(b:Token)
		RETURN b.text AS context, r.frequency AS frequency, b.code AS code
		ORDER BY frequency DESC, code ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	records, err := g.db.ExecuteRead(ctx, query, map[string]any{"text": token})
	if err != nil {
		return nil, fmt.Errorf("failed to read neighbors of %q: %w", token, err)
	}

	neighbors := make([]Neighbor, 0, len(records))
	for _, record := range records {
		text, _ := record["context"].(string)
		neighbors = append(neighbors, Neighbor{
			Context:   text,
			Frequency: convertToInt64(record["frequency"]),
		})
	}
	return neighbors, nil
}

func convertToInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
