// Package coocgraph stores a co-occurrence table as a property graph of Token
// nodes connected by weighted COOCCURS edges.
package coocgraph

import "context"

// GraphDatabase is the subset of a Cypher database the co-occurrence graph needs.
// Records are returned as column name to value maps.
type GraphDatabase interface {
	VerifyConnectivity(ctx context.Context) error
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	Close(ctx context.Context) error
}
