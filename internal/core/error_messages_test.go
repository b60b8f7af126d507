package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unknown table type",
			err:         &ValidationError{Reason: ReasonUnknownTable, Message: `unknown table type "cattle"`},
			wantCode:    "VAL001",
			wantMessage: "Unknown table type",
		},
		{
			name:        "empty rows",
			err:         &ValidationError{Reason: ReasonNoRows, Message: "rows must be a non-empty array"},
			wantCode:    "VAL002",
			wantMessage: "No rows to import",
		},
		{
			name:        "too many rows",
			err:         &ValidationError{Reason: ReasonTooManyRows, Message: "too many rows: 50001 exceeds the limit of 50000"},
			wantCode:    "VAL003",
			wantMessage: "Too many rows in one import",
		},
		{
			name:        "malformed body",
			err:         &ValidationError{Reason: ReasonMalformed, Message: "malformed JSON body"},
			wantCode:    "VAL004",
			wantMessage: "Request body is not valid JSON",
		},
		{
			name:        "missing secret",
			err:         &AuthorizationError{Missing: true},
			wantCode:    "AUTH001",
			wantMessage: "Import secret is required",
		},
		{
			name:        "secret mismatch",
			err:         &AuthorizationError{},
			wantCode:    "AUTH002",
			wantMessage: "Import secret is not valid",
		},
		{
			name:        "submission timeout beats generic submission failure",
			err:         &SubmissionError{BatchID: "b1", Err: context.DeadlineExceeded},
			wantCode:    "SUB002",
			wantMessage: "The records service did not respond in time",
		},
		{
			name:        "submission connection refused",
			err:         &SubmissionError{BatchID: "b1", Err: errors.New("dial tcp 127.0.0.1:3000: connect: connection refused")},
			wantCode:    "SUB003",
			wantMessage: "Unable to reach the records service",
		},
		{
			name:        "submission rejected",
			err:         &SubmissionError{BatchID: "b1", Message: "duplicate batch"},
			wantCode:    "SUB001",
			wantMessage: "The records service rejected the batch",
		},
		{
			name:        "too many imports",
			err:         ErrTooManyImports,
			wantCode:    "IMP001",
			wantMessage: "Too many imports in progress",
		},
		{
			name:        "wrapped cancellation",
			err:         fmt.Errorf("normalize: %w", context.Canceled),
			wantCode:    "IMP002",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("UNKNOWN TABLE TYPE"),
			wantCode:    "VAL001",
			wantMessage: "Unknown table type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyImports)

	expected := "Too many imports in progress (Code: IMP001). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestMapError_TypedFamilyWins(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantDetail string
	}{
		{
			name:       "rejection mentioning malformed stays a submission error",
			err:        &SubmissionError{BatchID: "b1", Message: "malformed row 3: bad owner id"},
			wantCode:   "SUB001",
			wantDetail: "malformed row 3: bad owner id",
		},
		{
			name:       "rejection mentioning too many rows stays a submission error",
			err:        fmt.Errorf("import: %w", &SubmissionError{Message: "too many rows for this herd"}),
			wantCode:   "SUB001",
			wantDetail: "too many rows for this herd",
		},
		{
			name:       "rejection mentioning timeout is still a rejection",
			err:        &SubmissionError{Message: "herd lookup timeout on their side"},
			wantCode:   "SUB001",
			wantDetail: "herd lookup timeout on their side",
		},
		{
			name:       "transport cause becomes the detail",
			err:        &SubmissionError{Err: errors.New("downstream returned status 422")},
			wantCode:   "SUB001",
			wantDetail: "downstream returned status 422",
		},
		{
			name:     "validation message mentioning a timeout stays a validation error",
			err:      &ValidationError{Reason: ReasonMalformed, Message: "field timeout is not valid JSON"},
			wantCode: "VAL000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Detail != tt.wantDetail {
				t.Errorf("MapError() detail = %q, want %q", got.Detail, tt.wantDetail)
			}
		})
	}
}

func TestFormatUserError_IncludesDetail(t *testing.T) {
	got := FormatUserError(&SubmissionError{Message: "vaccinationType PPR not in dropdown list"})

	want := "The records service rejected the batch (Code: SUB001). No rows were saved. Fix the reported problem and try again: vaccinationType PPR not in dropdown list"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("import: %w", &SubmissionError{BatchID: "b", Err: errors.New("boom")})

	if !IsSubmission(wrapped) {
		t.Error("IsSubmission() = false for wrapped SubmissionError")
	}
	if IsValidation(wrapped) || IsAuthorization(wrapped) {
		t.Error("SubmissionError misclassified")
	}
	if !IsValidation(&ValidationError{Reason: ReasonNoRows}) {
		t.Error("IsValidation() = false for ValidationError")
	}
	if !IsAuthorization(&AuthorizationError{Missing: true}) {
		t.Error("IsAuthorization() = false for AuthorizationError")
	}

	inner := errors.New("boom")
	if !errors.Is(&SubmissionError{Err: inner}, inner) {
		t.Error("SubmissionError should unwrap to its cause")
	}
}
