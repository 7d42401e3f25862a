// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package history

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb sql driver
)

// OpenDB opens the DuckDB database at path. An empty path opens an
// in-memory database, useful for tests and stateless deployments.
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	// Auto-install/auto-load disabled to avoid network access on open.
	connStr := fmt.Sprintf("%s?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false", path)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// DuckDB is an in-process database; a single writer connection
	// avoids transaction conflicts under concurrent ingest.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}

	return db, nil
}
