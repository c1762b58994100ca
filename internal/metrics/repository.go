package metrics

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// SessionStore persists completed collection sessions
type SessionStore interface {
	Record(summary *Summary) error
	Close() error
}

type repository struct {
	db *sql.DB
}

// No-op store used when persistence is disabled
type noopStore struct{}

func (*noopStore) Record(*Summary) error { return nil }
func (*noopStore) Close() error          { return nil }

// NewStore opens the sqlite session store, or a no-op store when
// persistence is disabled
func NewStore(cfg Config) (SessionStore, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Session persistence disabled, using no-op store")
		return &noopStore{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", cfg.DBPath).Msg("Metrics session store initialized")

	return &repository{db: db}, nil
}

func (r *repository) Record(summary *Summary) error {
	errFactory := errors.New()

	if summary == nil || summary.SessionID == "" {
		return errFactory.New(ErrInvalidSession)
	}

	_, err := r.db.Exec(insertSessionSQL,
		summary.SessionID,
		summary.Framework,
		summary.StartedAt.Unix(),
		int64(summary.MeanFPS),
		int64(summary.MeanMemoryMB),
		int64(summary.LoadTimeMS),
		int64(summary.MeanLatencyMS),
	)
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Debug().Str("session", summary.SessionID).Msg("Session summary persisted")

	return nil
}

func (r *repository) Close() error {
	errFactory := errors.New()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	return nil
}
