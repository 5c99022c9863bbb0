package coocgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jDatabase implements the GraphDatabase interface against a Neo4j server
type Neo4jDatabase struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jDatabase creates a driver for uri. Connectivity is not checked until
// VerifyConnectivity is called.
func NewNeo4jDatabase(uri, username, password string, logger *zap.Logger) (*Neo4jDatabase, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	return &Neo4jDatabase{
		driver: driver,
		logger: logger,
	}, nil
}

// VerifyConnectivity checks the server is reachable and creates the uniqueness constraint on Token codes
func (db *Neo4jDatabase) VerifyConnectivity(ctx context.Context) error {
	if err := db.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	_, err := db.ExecuteWrite(ctx,
		"CREATE CONSTRAINT token_code IF NOT EXISTS FOR (t:Token) REQUIRE t.code IS UNIQUE", nil)
	return err
}

func (db *Neo4jDatabase) Close(ctx context.Context) error {
	return db.driver.Close(ctx)
}

// ExecuteRead executes a read-only Cypher query and returns the raw records
func (db *Neo4jDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, neo4j.AccessModeRead, query, params)
}

// ExecuteWrite executes a write Cypher query and returns the raw records
func (db *Neo4jDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, neo4j.AccessModeWrite, query, params)
}

func (db *Neo4jDatabase) execute(ctx context.Context, mode neo4j.AccessMode, query string, params map[string]any) ([]map[string]any, error) {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	}

	var rows any
	var err error
	if mode == neo4j.AccessModeRead {
		rows, err = session.ExecuteRead(ctx, work)
	} else {
		rows, err = session.ExecuteWrite(ctx, work)
	}
	if err != nil {
		db.logger.Error("Failed to execute Neo4j query",
			zap.String("query", query),
			zap.Bool("isWrite", mode == neo4j.AccessModeWrite),
			zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows.([]map[string]any), nil
}
