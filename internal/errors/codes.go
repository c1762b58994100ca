package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Remote twin errors
	ErrFetchState      ErrorCode = "fetch_state_failed"
	ErrWriteProperty   ErrorCode = "write_property_failed"
	ErrUnexpectedState ErrorCode = "unexpected_status_code"
	ErrDecodeState     ErrorCode = "decode_state_failed"
	ErrThingNotFound   ErrorCode = "thing_not_found"

	// Coordinator errors
	ErrNoSuchFramework ErrorCode = "unknown_framework"
	ErrAdapterLoad     ErrorCode = "adapter_load_failed"
	ErrAdapterCleanup  ErrorCode = "adapter_cleanup_failed"
	ErrNotReady        ErrorCode = "coordinator_not_ready"

	// Scene errors
	ErrSceneManifest ErrorCode = "scene_manifest_invalid"
	ErrUnknownModel  ErrorCode = "unknown_model"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
	ErrExportMetrics  ErrorCode = "export_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrNotImplemented:   "Operation not implemented",
	ErrUnavailable:      "Service unavailable",
	ErrInvalidConfig:    "Invalid configuration",
	ErrMissingConfig:    "Missing configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read config file",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrFetchState:       "Failed to fetch twin state",
	ErrWriteProperty:    "Failed to write twin property",
	ErrUnexpectedState:  "Unexpected HTTP status from backend",
	ErrDecodeState:      "Failed to decode twin state",
	ErrThingNotFound:    "Thing not found on backend",
	ErrNoSuchFramework:  "No such rendering framework registered",
	ErrAdapterLoad:      "Failed to load framework adapter",
	ErrAdapterCleanup:   "Failed to clean up framework adapter",
	ErrNotReady:         "Coordinator is not ready",
	ErrSceneManifest:    "Invalid scene manifest",
	ErrUnknownModel:     "Unknown model identifier",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInvalidOperation: "Invalid operation",
	ErrInitMetrics:      "Failed to initialize metrics",
	ErrCollectMetrics:   "Failed to collect metrics data",
	ErrCloseMetrics:     "Failed to close metrics connection",
	ErrExportMetrics:    "Failed to export metrics",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
