// Package core provides the business logic for bulk record imports.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Callers receive the code alongside the message for any import that is rejected
// as a whole. Row-level problems never produce a code; they are itemized in
// ImportResult.Errors instead.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Unknown table type
//	         Action: Use one of the table types listed by GET /import
//	         Patterns: "unknown table type"
//
//	VAL002 - No rows: rows missing, not an array, or empty
//	         Action: Send at least one row in the rows array
//	         Patterns: "non-empty array"
//
//	VAL003 - Too many rows: request exceeds the row ceiling
//	         Action: Split the import into smaller batches
//	         Patterns: "too many rows"
//
//	VAL004 - Malformed body: request body is not valid JSON
//	         Action: Send a JSON object with tableType and rows
//	         Patterns: "malformed"
//
//	VAL005 - Body too large: request body exceeds the size limit
//	         Action: Split the import into smaller batches
//	         Patterns: "request body too large"
//
// # Authorization Errors (AUTH001-AUTH099)
//
//	AUTH001 - Secret missing
//	AUTH002 - Secret mismatch
//
// # Submission Errors (SUB001-SUB099)
//
//	SUB002 - Downstream timeout. Patterns: "deadline exceeded", "timeout"
//	SUB003 - Downstream unreachable. Patterns: "connection refused", "no such host"
//	SUB001 - Downstream rejected the batch. Patterns: "submission failed"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy. Patterns: "too many concurrent imports"
//	IMP002 - Request cancelled. Patterns: "context canceled"
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check the
// application logs (by request_id) for the original technical error.
//
// # Pattern Matching
//
// Typed errors pick their code family first: a ValidationError only maps to
// VAL codes, an AuthorizationError to AUTH and a SubmissionError to SUB, so
// text reported by the records service can never borrow a request code.
// Within a family, and for untyped errors, patterns are matched
// case-insensitively using strings.Contains. The first matching pattern
// wins, so more specific patterns come first.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Detail  string // Reason given by the records service, SUB codes only
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: a submission timeout must hit SUB002 before the generic SUB001.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Request validation (VAL)
	// =========================================================================
	{
		pattern: "unknown table type",
		msg: UserMessage{
			Message: "Unknown table type",
			Action:  "Use one of the table types listed by GET /import",
			Code:    "VAL001",
		},
	},
	{
		pattern: "non-empty array",
		msg: UserMessage{
			Message: "No rows to import",
			Action:  "Send at least one row in the rows array",
			Code:    "VAL002",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "Too many rows in one import",
			Action:  "Split the import into smaller batches",
			Code:    "VAL003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Request body is too large",
			Action:  "Split the import into smaller batches",
			Code:    "VAL005",
		},
	},
	{
		pattern: "malformed",
		msg: UserMessage{
			Message: "Request body is not valid JSON",
			Action:  "Send a JSON object with tableType and rows",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// Authorization (AUTH)
	// =========================================================================
	{
		pattern: "caller secret missing",
		msg: UserMessage{
			Message: "Import secret is required",
			Action:  "Provide callerSecret in the request body",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "caller secret mismatch",
		msg: UserMessage{
			Message: "Import secret is not valid",
			Action:  "Check the configured import secret",
			Code:    "AUTH002",
		},
	},

	// =========================================================================
	// Downstream submission (SUB)
	// =========================================================================
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The records service did not respond in time",
			Action:  "No rows were saved. Try again or import a smaller batch",
			Code:    "SUB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The records service did not respond in time",
			Action:  "No rows were saved. Try again or import a smaller batch",
			Code:    "SUB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the records service",
			Action:  "No rows were saved. Please try again in a few moments",
			Code:    "SUB003",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the records service",
			Action:  "No rows were saved. Please try again in a few moments",
			Code:    "SUB003",
		},
	},
	{
		pattern: "submission failed",
		msg: UserMessage{
			Message: "The records service rejected the batch",
			Action:  "No rows were saved. Fix the reported problem and try again",
			Code:    "SUB001",
		},
	},

	// =========================================================================
	// Import processing (IMP)
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// familyFallback is returned for a typed error whose text matches none of
// its family's patterns.
var familyFallback = map[string]UserMessage{
	"VAL": {
		Message: "Invalid import request",
		Action:  "Send a JSON object with tableType and a non-empty rows array",
		Code:    "VAL000",
	},
	"AUTH": {
		Message: "Import secret is not valid",
		Action:  "Check the configured import secret",
		Code:    "AUTH002",
	},
	"SUB": {
		Message: "The records service rejected the batch",
		Action:  "No rows were saved. Fix the reported problem and try again",
		Code:    "SUB001",
	},
}

// MapError converts a technical error to a user-friendly message.
// A typed error is matched only against the patterns of its own code
// family; anything else is matched against every pattern. If nothing
// matches, the family fallback or the generic ERR000 message is returned.
//
// Example:
//
//	msg := MapError(&ValidationError{Message: "unknown table type \"x\""})
//	// msg.Code == "VAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		ve *ValidationError
		ae *AuthorizationError
		se *SubmissionError
	)
	switch {
	case errors.As(err, &se):
		// A rejection has no transport cause and is SUB001 whatever the
		// records service wrote.
		msg := familyFallback["SUB"]
		if se.Err != nil {
			msg = matchFamily("SUB", se.Err.Error())
		}
		msg.Detail = se.Detail()
		return msg
	case errors.As(err, &ae):
		return matchFamily("AUTH", ae.Error())
	case errors.As(err, &ve):
		return matchFamily("VAL", ve.Message)
	}

	return matchFamily("", err.Error())
}

// matchFamily returns the first pattern of the given code family found in
// text. An empty family searches every pattern.
func matchFamily(family, text string) UserMessage {
	errStr := strings.ToLower(text)

	for _, ep := range errorPatterns {
		if family != "" && !strings.HasPrefix(ep.msg.Code, family) {
			continue
		}
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if msg, ok := familyFallback[family]; ok {
		return msg
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action", followed by the records
// service's reason when there is one.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	out := fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
	if msg.Detail != "" {
		out += ": " + msg.Detail
	}
	return out
}
