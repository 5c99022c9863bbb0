package coocgraph

import (
	"context"
	"fmt"

	"github.com/kuzudb/go-kuzu"
	"go.uber.org/zap"
)

// KuzuDatabase implements the GraphDatabase interface using embedded Kuzu
type KuzuDatabase struct {
	db     *kuzu.Database
	conn   *kuzu.Connection
	logger *zap.Logger
}

// NewKuzuDatabase opens a Kuzu database; ":memory:" or an empty path opens an in-memory one
func NewKuzuDatabase(databasePath string, logger *zap.Logger) (*KuzuDatabase, error) {
	open := func() (*kuzu.Database, error) {
		return kuzu.OpenDatabase(databasePath, kuzu.DefaultSystemConfig())
	}
	if databasePath == ":memory:" || databasePath == "" {
		open = func() (*kuzu.Database, error) {
			return kuzu.OpenInMemoryDatabase(kuzu.DefaultSystemConfig())
		}
	}
	db, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open Kuzu database at %q: %w", databasePath, err)
	}

	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Kuzu connection: %w", err)
	}

	kuzuDB := &KuzuDatabase{
		db:     db,
		conn:   conn,
		logger: logger,
	}

	if err := kuzuDB.initializeSchema(); err != nil {
		kuzuDB.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize Kuzu schema: %w", err)
	}

	return kuzuDB, nil
}

// VerifyConnectivity checks if the database connection is working
func (db *KuzuDatabase) VerifyConnectivity(ctx context.Context) error {
	result, err := db.conn.Query("RETURN 1")
	if err != nil {
		return fmt.Errorf("failed to verify Kuzu connectivity: %w", err)
	}
	result.Close()
	return nil
}

// Close closes the database connection
func (db *KuzuDatabase) Close(ctx context.Context) error {
	if db.conn != nil {
		db.conn.Close()
	}
	if db.db != nil {
		db.db.Close()
	}
	return nil
}

// ExecuteRead executes a read-only Cypher query and returns the raw records
func (db *KuzuDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, false)
}

// ExecuteWrite executes a write Cypher query and returns the raw records
func (db *KuzuDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.executeQuery(ctx, query, params, true)
}

func (db *KuzuDatabase) executeQuery(ctx context.Context, query string, params map[string]any, isWrite bool) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := db.run(query, params)
	if err != nil {
		db.logger.Error("Kuzu query failed",
			zap.String("query", query),
			zap.Bool("isWrite", isWrite),
			zap.Error(err))
		return nil, err
	}
	defer result.Close()

	var records []map[string]any
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read result row: %w", err)
		}
		row, err := tuple.GetAsMap()
		if err != nil {
			return nil, fmt.Errorf("failed to decode result row: %w", err)
		}
		for key, value := range row {
			row[key] = convertKuzuValue(value)
		}
		records = append(records, row)
	}
	return records, nil
}

// run sends query as is, or through a prepared statement when it carries parameters
func (db *KuzuDatabase) run(query string, params map[string]any) (*kuzu.QueryResult, error) {
	if len(params) == 0 {
		result, err := db.conn.Query(query)
		if err != nil {
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}
		return result, nil
	}

	stmt, err := db.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	result, err := db.conn.Execute(stmt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return result, nil
}

// convertKuzuValue flattens Kuzu nodes to their properties
func convertKuzuValue(value any) any {
	if node, ok := value.(kuzu.Node); ok {
		return node.Properties
	}
	return value
}

// initializeSchema creates the Token node table and the COOCCURS relationship table
func (db *KuzuDatabase) initializeSchema() error {
	schemas := []string{
		`CREATE NODE TABLE IF NOT EXISTS Token (
			code INT64,
			text STRING,
			PRIMARY KEY (code)
		)`,
		`CREATE REL TABLE IF NOT EXISTS COOCCURS (
			FROM Token TO Token,
			frequency INT64
		)`,
	}

	for _, schema := range schemas {
		result, err := db.conn.Query(schema)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		result.Close()
	}

	db.logger.Debug("Kuzu co-occurrence schema ready")
	return nil
}
