package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version of the SQLite store.
const SchemaVersion = 1

// schemaV1 is the initial schema. seq preserves insertion order.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS points (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    voltage REAL NOT NULL,
    current REAL NOT NULL,
    error REAL NOT NULL,
    wavelength REAL NOT NULL,
    intensity REAL NOT NULL,
    material TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    raw TEXT NOT NULL  -- JSON array of samples
);
CREATE INDEX IF NOT EXISTS idx_points_group ON points(material, wavelength);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the tables if they do not exist and records the version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
