// Package db wraps the PostgreSQL connection and the upload metadata
// queries. Redacted documents themselves live in object storage; rows here
// only describe them.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps a PostgreSQL database connection.
type DB struct {
	conn *sql.DB
}

// Connect establishes a connection to PostgreSQL.
func Connect(dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(20 * time.Minute)

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying *sql.DB, for migrations and the analytics
// store.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Exec executes a statement without returning rows (used by tests).
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}
