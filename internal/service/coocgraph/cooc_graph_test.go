package coocgraph

import (
	"context"
	"testing"

	"corpus-go/internal/config"
	"corpus-go/internal/model/corpus"

	"go.uber.org/zap"
)

type tokenTable []string

func (tt tokenTable) Token(code corpus.Code) (string, bool) {
	if int(code) >= len(tt) {
		return "", false
	}
	return tt[code], true
}

func newKuzuGraph(t *testing.T) *CoocGraph {
	t.Helper()
	cfg := config.Default()
	cfg.Graph.Backend = config.GraphBackendKuzu

	g, err := NewCoocGraphFromConfig(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create co-occurrence graph with Kuzu: %v", err)
	}
	t.Cleanup(func() { g.Close(context.Background()) })
	return g
}

func TestKuzuDatabase_BasicFunctionality(t *testing.T) {
	db, err := NewKuzuDatabase(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	defer db.Close(context.Background())

	ctx := context.Background()
	if err := db.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("Failed to verify connectivity: %v", err)
	}

	records, err := db.ExecuteRead(ctx, "RETURN 1 as test", nil)
	if err != nil {
		t.Fatalf("Failed to execute simple query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0]["test"] != int64(1) {
		t.Fatalf("Expected test=1, got %v", records[0]["test"])
	}
}

func TestKuzuDatabase_QueryErrors(t *testing.T) {
	db, err := NewKuzuDatabase(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create Kuzu database: %v", err)
	}
	defer db.Close(context.Background())
	ctx := context.Background()

	if _, err := db.ExecuteRead(ctx, "MATCH (n:Missing) RETURN n", nil); err == nil {
		t.Error("Expected an error for an unknown table")
	}
	if _, err := db.ExecuteRead(ctx, "MATCH (n:Missing) WHERE n.code = $code RETURN n", map[string]any{"code": int64(1)}); err == nil {
		t.Error("Expected an error preparing a query on an unknown table")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := db.ExecuteRead(cancelled, "RETURN 1", nil); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

func TestCoocGraph_ExportAndNeighbors(t *testing.T) {
	g := newKuzuGraph(t)
	ctx := context.Background()

	tokens := tokenTable{"a", "b", "c"}
	entries := []corpus.Entry{
		{Target: 0, Context: 1, Frequency: 1},
		{Target: 0, Context: 2, Frequency: 4},
		{Target: 1, Context: 0, Frequency: 1},
		{Target: 2, Context: 2, Frequency: 2},
	}

	summary, err := g.Export(ctx, entries, tokens, 0)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	if summary.Tokens != 3 || summary.Edges != 4 {
		t.Fatalf("Unexpected export summary: %+v", summary)
	}

	neighbors, err := g.Neighbors(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Failed to read neighbors: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("Expected 2 neighbors, got %d", len(neighbors))
	}
	if neighbors[0] != (Neighbor{Context: "c", Frequency: 4}) {
		t.Fatalf("Expected strongest neighbor c=4, got %+v", neighbors[0])
	}

	selfLoop, err := g.Neighbors(ctx, "c", 1)
	if err != nil {
		t.Fatalf("Failed to read neighbors: %v", err)
	}
	if len(selfLoop) != 1 || selfLoop[0].Context != "c" {
		t.Fatalf("Expected c to be its own context, got %+v", selfLoop)
	}

	missing, err := g.Neighbors(ctx, "zzz", 0)
	if err != nil {
		t.Fatalf("Failed to read neighbors of unknown token: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("Expected no neighbors, got %+v", missing)
	}
}

func TestCoocGraph_ExportReplacesAndCaps(t *testing.T) {
	g := newKuzuGraph(t)
	ctx := context.Background()
	tokens := tokenTable{"a", "b", "c"}

	if _, err := g.Export(ctx, []corpus.Entry{{Target: 0, Context: 1, Frequency: 9}}, tokens, 0); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	entries := []corpus.Entry{
		{Target: 0, Context: 2, Frequency: 1},
		{Target: 1, Context: 2, Frequency: 5},
	}
	summary, err := g.Export(ctx, entries, tokens, 1)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	if summary.Edges != 1 || summary.Tokens != 2 {
		t.Fatalf("Unexpected export summary: %+v", summary)
	}

	neighbors, err := g.Neighbors(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Failed to read neighbors: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("Expected previous export to be replaced, got %+v", neighbors)
	}

	neighbors, err = g.Neighbors(ctx, "b", 0)
	if err != nil {
		t.Fatalf("Failed to read neighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Frequency != 5 {
		t.Fatalf("Expected only the strongest edge, got %+v", neighbors)
	}
}

func TestCoocGraph_ExportUnknownCode(t *testing.T) {
	g := newKuzuGraph(t)

	_, err := g.Export(context.Background(), []corpus.Entry{{Target: 7, Context: 0, Frequency: 1}}, tokenTable{"a"}, 0)
	if err == nil {
		t.Fatal("Expected error for unresolvable code, got nil")
	}
}

func TestNewCoocGraphFromConfig_NoBackend(t *testing.T) {
	if _, err := NewCoocGraphFromConfig(config.Default(), zap.NewNop()); err == nil {
		t.Fatal("Expected error without a graph backend, got nil")
	}
}
