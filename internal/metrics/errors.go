package metrics

import "github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"

const (
	// Configuration errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("metrics_invalid_db_path")

	// Schema errors
	ErrSchemaInitFailed  = errors.ErrorCode("metrics_schema_init_failed")
	ErrTransactionFailed = errors.ErrorCode("metrics_transaction_failed")

	// Storage errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed

	// Collection errors
	ErrInvalidSession = errors.ErrorCode("metrics_invalid_session")
	ErrExportFailed   = errors.ErrExportMetrics
)
