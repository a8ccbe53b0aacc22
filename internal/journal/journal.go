// Package journal persists a history of batch scrape runs in a local
// sqlite database, one row per system per run.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	createRunTableSQL = `
CREATE TABLE IF NOT EXISTS scrape_run_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	system_id VARCHAR(64) NOT NULL,
	provider VARCHAR(32) NOT NULL,
	processed INTEGER NOT NULL,
	created INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	start_time BIGINT NOT NULL,
	end_time BIGINT NOT NULL,
	ext_info VARCHAR(8192) NOT NULL
);`

	createRunIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_scrape_run_tab_system
ON scrape_run_tab(system_id);`
)

// Journal wraps the sqlite connection holding the scrape run history.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path and ensures
// the schema exists.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db %s: %w", path, err)
	}
	j := &Journal{db: db}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, createRunTableSQL); err != nil {
		return fmt.Errorf("create run table: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, createRunIndexSQL); err != nil {
		return fmt.Errorf("create run index: %w", err)
	}
	return nil
}
