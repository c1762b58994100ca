package metrics

import (
	"database/sql"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sessions (
	       session_id       TEXT PRIMARY KEY,
	       framework        TEXT NOT NULL,
	       started_at       INTEGER NOT NULL,
	       mean_fps         INTEGER NOT NULL CHECK (typeof(mean_fps) = 'integer'),
	       mean_memory_mb   INTEGER NOT NULL CHECK (typeof(mean_memory_mb) = 'integer'),
	       load_time_ms     INTEGER NOT NULL CHECK (typeof(load_time_ms) = 'integer'),
	       mean_latency_ms  INTEGER NOT NULL CHECK (typeof(mean_latency_ms) = 'integer')
	   );`

	insertSessionSQL = `
    INSERT OR REPLACE INTO sessions (
        session_id, framework, started_at,
        mean_fps, mean_memory_mb, load_time_ms, mean_latency_ms
    ) VALUES (?, ?, ?, ?, ?, ?, ?)`
)

func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	return nil
}
