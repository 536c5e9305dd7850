package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Storage errors
	ErrStorageRead  ErrorCode = "storage_read_failed"
	ErrStorageWrite ErrorCode = "storage_write_failed"

	// Resource errors
	ErrResourceNotFound ErrorCode = "resource_not_found"

	// Request errors
	ErrValidation           ErrorCode = "validation_failed"
	ErrConfirmationRequired ErrorCode = "confirmation_required"
	ErrUnsupportedFormat    ErrorCode = "unsupported_format"

	// Collaborator errors
	ErrUpstream ErrorCode = "upstream_failed"
	ErrTimeout  ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:             "Internal error occurred",
	ErrInvalidArgument:      "Invalid argument provided",
	ErrUnavailable:          "Service unavailable",
	ErrInvalidConfig:        "Invalid configuration",
	ErrReadConfig:           "Failed to read configuration",
	ErrInvalidInterval:      "Invalid interval value",
	ErrInvalidLogLevel:      "Invalid log level",
	ErrInitFailed:           "Initialization failed",
	ErrShutdownFailed:       "Shutdown failed",
	ErrStorageRead:          "Failed to read stored records",
	ErrStorageWrite:         "Failed to write records",
	ErrResourceNotFound:     "Resource not found",
	ErrValidation:           "Validation failed",
	ErrConfirmationRequired: "Explicit confirmation required",
	ErrUnsupportedFormat:    "Unsupported format",
	ErrUpstream:             "Upstream request failed",
	ErrTimeout:              "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
