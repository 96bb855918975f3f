package service

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable identifier for a failure condition.
type ErrorCode string

const (
	// LookupMiss: a sector name is not in the sector table. Never fatal.
	LookupMiss ErrorCode = "LOOKUP_MISS"
	// MalformedSectorExpr: a row's sector cell fits none of the grammars.
	MalformedSectorExpr ErrorCode = "MALFORMED_SECTOR_EXPR"
	// SchemaViolation: a required dataset column is absent.
	SchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	// InvalidPersistedFile: a settings or Q&A file is malformed or incomplete.
	InvalidPersistedFile ErrorCode = "INVALID_PERSISTED_FILE"
	// AliasCycle: the sector alias table maps a code back onto itself.
	AliasCycle ErrorCode = "ALIAS_CYCLE"
	// SessionNotFound: no review session with that id.
	SessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// QuestionNotFound: the question is neither in the cache nor the filtered view.
	QuestionNotFound ErrorCode = "QUESTION_NOT_FOUND"
	// AnswerTooLong: an answer exceeds the configured character limit.
	AnswerTooLong ErrorCode = "ANSWER_TOO_LONG"
	// SuggesterUnavailable: no LLM provider is configured or it failed.
	SuggesterUnavailable ErrorCode = "SUGGESTER_UNAVAILABLE"
	// SnapshotNotFound: no stored snapshot with that id.
	SnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// StoreUnavailable: snapshot storage is disabled or failing.
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

// Error is a named failure returned by the review core and workflow.
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// NewError creates an Error with an optional cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches machine-readable details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
