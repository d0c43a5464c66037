package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter       ErrorCode = 100
	ErrCodeInvalidConfiguration   ErrorCode = 101
	ErrCodeMissingParameter       ErrorCode = 102
	ErrCodeUnsupportedGranularity ErrorCode = 103
	ErrCodeInvalidProvider        ErrorCode = 104
	ErrCodeInvalidSink            ErrorCode = 105

	// Source errors (200-299)
	ErrCodeSourceUnavailable ErrorCode = 200
	ErrCodeMalformedRecord   ErrorCode = 201
	ErrCodeQueryFailed       ErrorCode = 202

	// Persistence errors (300-399)
	ErrCodeMarketDataWriteFailed ErrorCode = 300
	ErrCodePersistFailed         ErrorCode = 301
	ErrCodeMarketDataReadFailed  ErrorCode = 302
)

// String returns the taxonomy name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidParameter, ErrCodeMissingParameter:
		return "InvalidParameter"
	case ErrCodeInvalidConfiguration:
		return "ConfigurationError"
	case ErrCodeUnsupportedGranularity:
		return "UnsupportedGranularity"
	case ErrCodeInvalidProvider:
		return "InvalidProvider"
	case ErrCodeInvalidSink:
		return "InvalidSink"
	case ErrCodeSourceUnavailable:
		return "SourceUnavailable"
	case ErrCodeMalformedRecord:
		return "MalformedRecord"
	case ErrCodeQueryFailed:
		return "QueryFailed"
	case ErrCodeMarketDataWriteFailed:
		return "WriteError"
	case ErrCodePersistFailed:
		return "PersistError"
	case ErrCodeMarketDataReadFailed:
		return "ReadError"
	default:
		return "Unknown"
	}
}
