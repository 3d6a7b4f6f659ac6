package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code and message, so sentinel
// errors keep matching after being wrapped with a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches a cause to a sentinel error, keeping its code and message.
func Wrap(sentinel *DomainError, err error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, err)
}

// Code returns the domain code carried by err, or "" when err is not a DomainError.
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeConfig           = "CONFIG_ERROR"
	ErrCodeIO               = "IO_ERROR"
	ErrCodeCompute          = "COMPUTE_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrUnsupportedFileType = NewDomainError(ErrCodeValidation, "unsupported file type, expected one of .pdf .txt .docx")
	ErrInvalidFilename     = NewDomainError(ErrCodeValidation, "invalid file name")
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrUnknownModel        = NewDomainError(ErrCodeValidation, "unknown model")
	ErrEmptyDocument       = NewDomainError(ErrCodeValidation, "document contains no text")
)

// Not found errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
	ErrCacheMiss       = NewDomainError(ErrCodeNotFound, "cache entry not found")
)

// State errors
var (
	ErrNoDocument      = NewDomainError(ErrCodeConfig, "no document uploaded")
	ErrTurnInProgress  = NewDomainError(ErrCodeInvalidOperation, "a response is already streaming")
	ErrNotStreaming    = NewDomainError(ErrCodeInvalidOperation, "no response is streaming")
	ErrStaleTurn       = NewDomainError(ErrCodeInvalidOperation, "response belongs to an abandoned turn")
	ErrInvalidSettings = NewDomainError(ErrCodeConfig, "invalid settings")
)

// IO errors
var (
	ErrCacheWrite = NewDomainError(ErrCodeIO, "failed to write cache")
	ErrCacheRead  = NewDomainError(ErrCodeIO, "failed to read cache")
	ErrIndexStore = NewDomainError(ErrCodeIO, "vector index storage failed")
)

// Compute errors
var (
	ErrEmbedding = NewDomainError(ErrCodeCompute, "embedding request failed")
	ErrChat      = NewDomainError(ErrCodeCompute, "chat request failed")
	ErrExtract   = NewDomainError(ErrCodeCompute, "text extraction failed")

	ErrDimensionMismatch = NewDomainError(ErrCodeCompute, "embedding dimensions do not match the index")
)
