// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/models"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ResultSet is a query result in column order. Rows past MaxRows are dropped and
// Truncated is set.
type ResultSet struct {
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	Truncated bool                     `json:"truncated,omitempty"`
}

// InventoryStore is the read-only view of the inventory database used by the translator
// and the query worker.
type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// SampleRow reads one row of table. Values keep their driver types so the introspector
// can classify them. A table with no rows yields (nil, nil).
func (s *InventoryStore) SampleRow(ctx context.Context, table string) (*models.Row, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 1", pq.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sample %s: columns: %w", table, err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sample %s: %w", table, err)
		}
		return nil, nil
	}

	values, err := scanValues(rows, len(cols))
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	return &models.Row{Columns: cols, Values: values}, nil
}

// Query runs a read query and collects at most maxRows rows. maxRows <= 0 means no cap.
// Byte slices are returned as strings so the result serializes as JSON text.
//
// The query is always prepared first: the extended protocol carries exactly one
// statement, so the server refuses stacked commands even without bind arguments.
func (s *InventoryStore) Query(ctx context.Context, maxRows int, query string, args ...interface{}) (*ResultSet, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare query: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols, Rows: []map[string]interface{}{}}
	for rows.Next() {
		if maxRows > 0 && len(rs.Rows) == maxRows {
			rs.Truncated = true
			break
		}
		values, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		rs.Rows = append(rs.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func scanValues(rows *sql.Rows, n int) ([]interface{}, error) {
	values := make([]interface{}, n)
	ptrs := make([]interface{}, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}
