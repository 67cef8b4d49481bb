// Package duckdb persists clustering runs in DuckDB: the run settings, the
// fingerprints of the input files, each sample's mutation identities and the
// pairwise distances. Every run is keyed by a random UUID so several runs can
// share one database file and be queried side by side.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding run results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for an in-memory database.
func (s *Store) Path() string {
	return s.path
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		input_dir VARCHAR,
		qc_filter VARCHAR,
		indel_expansion BOOLEAN,
		snps_only BOOLEAN,
		multiallelic_het VARCHAR,
		metric VARCHAR,
		method VARCHAR,
		num_samples INTEGER,
		num_identities INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS run_inputs (
		run_id VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sample_mutations (
		run_id VARCHAR,
		sample VARCHAR,
		identity VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		allele VARCHAR,
		variant_type VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS distances (
		run_id VARCHAR,
		sample_a VARCHAR,
		sample_b VARCHAR,
		distance DOUBLE
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// appendRows bulk-inserts into table using the Appender API.
func (s *Store) appendRows(ctx context.Context, table string, fn func(a *goduckdb.Appender) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender for %s: %w", table, err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}
