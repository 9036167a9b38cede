package errors

// Common error codes
const (
	// System errors
	ErrInternal       ErrorCode = "internal_error"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig    ErrorCode = "invalid_configuration"
	ErrBindFlags        ErrorCode = "bind_flags_failed"
	ErrReadConfig       ErrorCode = "read_config_failed"
	ErrInvalidInterval  ErrorCode = "invalid_interval"
	ErrInvalidDuration  ErrorCode = "invalid_duration"
	ErrInvalidWriteMode ErrorCode = "invalid_write_mode"
	ErrInvalidPolicy    ErrorCode = "invalid_error_policy"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"
	ErrInvalidLogStyle ErrorCode = "invalid_log_style"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Sampling errors
	ErrSensorUnavailable ErrorCode = "sensor_unavailable"
	ErrWriteFailed       ErrorCode = "write_failed"
	ErrReadFailed        ErrorCode = "read_failed"
	ErrLoopFailed        ErrorCode = "loop_failed"

	// Load generation errors
	ErrInvalidLoad    ErrorCode = "invalid_load"
	ErrInvalidCore    ErrorCode = "invalid_core"
	ErrInvalidProfile ErrorCode = "invalid_profile"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrInvalidConfig:     "Invalid configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read config file",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidDuration:   "Invalid duration value",
	ErrInvalidWriteMode:  "Invalid write mode",
	ErrInvalidPolicy:     "Invalid write error policy",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInvalidLogStyle:   "Invalid log style",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrSensorUnavailable: "Sensor reading unavailable",
	ErrWriteFailed:       "Failed to write samples",
	ErrReadFailed:        "Failed to read samples",
	ErrLoopFailed:        "Sampling loop failed",
	ErrInvalidLoad:       "Load target out of range",
	ErrInvalidCore:       "No such CPU core",
	ErrInvalidProfile:    "Invalid load profile",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
