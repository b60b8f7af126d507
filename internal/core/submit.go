package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmitRequest is the payload sent to the downstream persistence collaborator.
type SubmitRequest struct {
	TableType    TableType       `json:"tableType"`
	Rows         []CleanedRecord `json:"rows"`
	CallerSecret string          `json:"callerSecret,omitempty"`
	BatchID      string          `json:"batchId"`
}

// SubmitResponse is what the collaborator reports back. InsertedCount is nil
// when the collaborator did not say.
type SubmitResponse struct {
	Success       bool   `json:"success"`
	InsertedCount *int   `json:"insertedCount,omitempty"`
	BatchID       string `json:"batchId,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Submitter persists one batch of valid rows. Implementations make exactly
// one attempt; the pipeline treats any error as terminal for the batch.
type Submitter interface {
	Submit(ctx context.Context, def TableDefinition, req SubmitRequest) (SubmitResponse, error)
}

// Notifier is told about every finished import. Errors are logged by the
// caller and never change the import outcome.
type Notifier interface {
	Notify(ctx context.Context, event ImportEvent) error
}

// RequestBatchID is the correlation id sent with a submission:
// "<source>_batch_<unix-ms>".
func RequestBatchID(now time.Time) string {
	return fmt.Sprintf("%s_batch_%d", Source, now.UnixMilli())
}

// LocalBatchID is synthesized when the collaborator returns no batch id or
// submission was skipped: "<source>_<tableType>_<unix-ms>_<suffix>".
func LocalBatchID(t TableType, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%d_%s", Source, t, now.UnixMilli(), suffix)
}

// submitBatch sends the valid rows, if any, and returns the collaborator's
// answer with BatchID always populated. A collaborator-reported failure or a
// transport error becomes a SubmissionError.
func submitBatch(ctx context.Context, sub Submitter, def TableDefinition, rows []CleanedRecord, secret string, now time.Time) (SubmitResponse, error) {
	if len(rows) == 0 {
		return SubmitResponse{Success: true, BatchID: LocalBatchID(def.Type, now)}, nil
	}

	req := SubmitRequest{
		TableType:    def.Type,
		Rows:         rows,
		CallerSecret: secret,
		BatchID:      RequestBatchID(now),
	}

	resp, err := sub.Submit(ctx, def, req)
	if err != nil {
		return SubmitResponse{}, &SubmissionError{BatchID: req.BatchID, Err: err}
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "downstream reported failure"
		}
		return SubmitResponse{}, &SubmissionError{BatchID: req.BatchID, Message: msg}
	}

	if resp.BatchID == "" {
		resp.BatchID = LocalBatchID(def.Type, now)
	}
	return resp, nil
}
