package core

// errors.go defines the request-level error taxonomy of the import pipeline.
//
// Structural errors (ValidationError, AuthorizationError) short-circuit before
// any row is normalized. SubmissionError is terminal for the whole batch.
// Row-level problems are FieldError values, never Go errors.

import (
	"errors"
	"fmt"
)

// ErrTooManyImports is returned when all import slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// ValidationReason classifies a request-shape failure.
type ValidationReason string

const (
	ReasonUnknownTable ValidationReason = "unknown_table"
	ReasonNoRows       ValidationReason = "no_rows"
	ReasonTooManyRows  ValidationReason = "too_many_rows"
	ReasonMalformed    ValidationReason = "malformed_request"
)

// ValidationError reports a malformed request: unknown table type, missing or
// empty rows, or a row count over the ceiling.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid import request: " + e.Message
}

// AuthorizationError reports a missing or mismatched caller secret.
type AuthorizationError struct {
	Missing bool
}

func (e *AuthorizationError) Error() string {
	if e.Missing {
		return "unauthorized: caller secret missing"
	}
	return "unauthorized: caller secret mismatch"
}

// SubmissionError reports that the downstream collaborator failed, timed out,
// or rejected the batch. No row of the batch is considered inserted.
type SubmissionError struct {
	BatchID string
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	msg := "submission failed"
	if e.BatchID != "" {
		msg += fmt.Sprintf(" (batch %s)", e.BatchID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Detail is the collaborator's own reason for the failure: the message it
// returned, or the transport error when it never answered.
func (e *SubmissionError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthorization reports whether err is (or wraps) an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// IsSubmission reports whether err is (or wraps) a SubmissionError.
func IsSubmission(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
