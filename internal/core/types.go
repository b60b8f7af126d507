// Package core provides the business logic for bulk record imports.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"time"
)

// TableType identifies which domain schema and downstream endpoint apply to an import.
type TableType string

const (
	TableLab             TableType = "lab"
	TableVaccination     TableType = "vaccination"
	TableParasiteControl TableType = "parasite_control"
	TableMobileClinic    TableType = "mobile_clinic"
	TableEquineHealth    TableType = "equine_health"
)

// Source is the constant tag stamped on every cleaned record and batch id.
const Source = "bulk_import"

// Metadata keys injected into every CleanedRecord.
const (
	FieldImportedAt = "importedAt"
	FieldSource     = "source"
	FieldRowIndex   = "rowIndex"
)

// DefaultMaxRows is the row-count ceiling applied when none is configured.
const DefaultMaxRows = 50000

// RawRecord is one untrusted input row: field name to scalar
// (string, json.Number, float64, bool or nil).
type RawRecord map[string]any

// CleanedRecord is a normalized row ready for submission, including the
// injected importedAt, source and rowIndex metadata.
type CleanedRecord map[string]any

// RowIndex returns the 1-based row index stamped on the record, or 0 if absent.
func (r CleanedRecord) RowIndex() int {
	if v, ok := r[FieldRowIndex].(int); ok {
		return v
	}
	return 0
}

// ImportRequest is one call to the import pipeline.
type ImportRequest struct {
	TableType    TableType   `json:"tableType"`
	Rows         []RawRecord `json:"rows"`
	CallerSecret string      `json:"callerSecret,omitempty"`
}

// FieldError describes one rejected field in one row. It is data, not a Go error:
// rows carrying FieldErrors are excluded from submission without aborting the batch.
type FieldError struct {
	RowIndex      int    `json:"rowIndex"`
	Field         string `json:"field"`
	Message       string `json:"message"`
	OriginalValue any    `json:"originalValue"`
}

// ImportResult is the aggregated outcome of one import.
type ImportResult struct {
	Success       bool         `json:"success"`
	InsertedCount int          `json:"insertedCount"`
	Errors        []FieldError `json:"errors"`
	BatchID       string       `json:"batchId"`
	TotalRows     int          `json:"totalRows"`
	SuccessRate   int          `json:"successRate"`
	ValidRows     int          `json:"validRows"`
	InvalidRows   int          `json:"invalidRows"`
	Message       string       `json:"message,omitempty"`
}

// ImportPhase names a step of the import state machine.
type ImportPhase string

const (
	PhaseReceived        ImportPhase = "received"
	PhaseSecurityChecked ImportPhase = "security_checked"
	PhaseDispatched      ImportPhase = "dispatched"
	PhaseNormalized      ImportPhase = "normalized"
	PhaseSubmitted       ImportPhase = "submitted"
	PhaseResponded       ImportPhase = "responded"

	PhaseRejectedSecurity ImportPhase = "rejected_security"
	PhaseRejectedDispatch ImportPhase = "rejected_dispatch"
	PhaseFailedSubmission ImportPhase = "failed_submission"
)

// ImportEvent is published once per finished import when a Notifier is configured.
type ImportEvent struct {
	BatchID       string      `json:"batchId"`
	TableType     TableType   `json:"tableType"`
	Phase         ImportPhase `json:"phase"`
	TotalRows     int         `json:"totalRows"`
	InsertedCount int         `json:"insertedCount"`
	InvalidRows   int         `json:"invalidRows"`
	SuccessRate   int         `json:"successRate"`
	Error         string      `json:"error,omitempty"`
	FinishedAt    time.Time   `json:"finishedAt"`
	DurationMs    int64       `json:"durationMs"`
}
