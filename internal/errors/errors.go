// Package errors provides the structured error type used across the
// retrieval engine. Errors carry a stable code, a category, and a
// retryability flag so the orchestrator can decide between surfacing,
// degrading, and retrying without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// EngineError is the structured error type for the retrieval engine.
type EngineError struct {
	// Code is the stable error code (e.g. "ERR_101_EMPTY_CORPUS").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category derived from the code.
	Category Category

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates whether the failed operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the caller.
	Suggestion string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel EngineErrors.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithSuggestion attaches an actionable suggestion and returns the error
// for chaining.
func (e *EngineError) WithSuggestion(s string) *EngineError {
	e.Suggestion = s
	return e
}

// New creates an EngineError with the given code and message. Category and
// retryability are derived from the code.
func New(code, message string, cause error) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates an EngineError with a formatted message and no cause.
func Newf(code, format string, args ...any) *EngineError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an EngineError from an existing error, preserving it as the
// cause. Returns nil when err is nil.
func Wrap(code string, err error) *EngineError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// EmptyCorpus creates the error returned when building a lexical index over
// zero valid documents or tokens.
func EmptyCorpus(scope string) *EngineError {
	return Newf(ErrCodeEmptyCorpus, "no indexable documents in scope %s", scope).
		WithSuggestion("ingest course material for this scope, then rebuild the index")
}

// InvalidQuery creates the error for queries that normalize to nothing.
func InvalidQuery(message string) *EngineError {
	return New(ErrCodeInvalidQuery, message, nil).
		WithSuggestion("refine the search with longer, more specific terms")
}

// ChannelUnavailable creates the internal error for a failed retrieval
// channel. Callers degrade rather than surface it.
func ChannelUnavailable(channel string, cause error) *EngineError {
	return &EngineError{
		Code:      ErrCodeChannelUnavailable,
		Message:   fmt.Sprintf("%s retrieval channel unavailable", channel),
		Category:  CategoryChannel,
		Cause:     cause,
		Retryable: true,
	}
}

// CacheUnavailable creates the internal error for an unreachable cache.
func CacheUnavailable(cause error) *EngineError {
	return &EngineError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "result cache unavailable, proceeding uncached",
		Category:  CategoryCache,
		Cause:     cause,
		Retryable: true,
	}
}

// GetCode extracts the error code, or "" if err is not an EngineError.
func GetCode(err error) string {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code
	}
	return ""
}

// IsRetryable reports whether err is a retryable EngineError.
func IsRetryable(err error) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Retryable
	}
	return false
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code string) bool {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
