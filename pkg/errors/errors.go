package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Format errors. Any of these aborts the whole load; nothing partial is returned.
	ErrCorruptHeader            ErrorCode = "CORRUPT_HEADER"
	ErrShortRead                ErrorCode = "SHORT_READ"
	ErrDecompressionFailed      ErrorCode = "DECOMPRESSION_FAILED"
	ErrEntryCountMismatch       ErrorCode = "ENTRY_COUNT_MISMATCH"
	ErrInvalidTypeID            ErrorCode = "INVALID_TYPE_ID"
	ErrInvalidBoolEncoding      ErrorCode = "INVALID_BOOL_ENCODING"
	ErrUTF8Decode               ErrorCode = "UTF8_DECODE"
	ErrUnsupportedSchemaVersion ErrorCode = "UNSUPPORTED_SCHEMA_VERSION"
	ErrCompressionFailed        ErrorCode = "COMPRESSION_FAILED"
	ErrModConfigParse           ErrorCode = "MOD_CONFIG_PARSE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// NmmError represents a structured error with code and details
type NmmError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *NmmError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *NmmError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *NmmError) Is(target error) bool {
	var targetErr *NmmError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new NmmError with the given code and message
func New(code ErrorCode, message string) *NmmError {
	return &NmmError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new NmmError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *NmmError {
	return &NmmError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a NmmError
func Wrap(err error, code ErrorCode, message string) *NmmError {
	if err == nil {
		return nil
	}
	return &NmmError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *NmmError {
	if err == nil {
		return nil
	}
	return &NmmError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Context wraps err with a message while keeping the code of the innermost
// NmmError, so a chain like "loading pack" -> "reading setting" -> INVALID_TYPE_ID
// still reports INVALID_TYPE_ID. Plain errors get ErrUnknown.
func Context(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrapf(err, RootCode(err), format, args...)
}

// WithDetail adds a detail to the error
func (e *NmmError) WithDetail(key string, value interface{}) *NmmError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *NmmError) WithDetails(details map[string]interface{}) *NmmError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error, or any NmmError it wraps, has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var nmmErr *NmmError
		if !errors.As(err, &nmmErr) {
			return false
		}
		if nmmErr.Code == code {
			return true
		}
		err = nmmErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a NmmError
func GetErrorCode(err error) ErrorCode {
	var nmmErr *NmmError
	if errors.As(err, &nmmErr) {
		return nmmErr.Code
	}
	return ErrUnknown
}

// RootCode returns the code of the innermost NmmError in the chain.
func RootCode(err error) ErrorCode {
	code := ErrUnknown
	for err != nil {
		var nmmErr *NmmError
		if !errors.As(err, &nmmErr) {
			break
		}
		code = nmmErr.Code
		err = nmmErr.Wrapped
	}
	return code
}

// GetErrorDetails returns the details from an error, or nil if not a NmmError
func GetErrorDetails(err error) map[string]interface{} {
	var nmmErr *NmmError
	if errors.As(err, &nmmErr) {
		return nmmErr.Details
	}
	return nil
}
