package core

import (
	"context"

	"github.com/JonMunkholm/vetimport/internal/logging"
)

// MaxPreviewSamples caps how many cleaned records a preview returns.
const MaxPreviewSamples = 10

// PreviewResult shows what an import would do without submitting anything.
type PreviewResult struct {
	TableType   TableType       `json:"tableType"`
	TotalRows   int             `json:"totalRows"`
	ValidRows   int             `json:"validRows"`
	InvalidRows int             `json:"invalidRows"`
	Errors      []FieldError    `json:"errors"`
	Samples     []CleanedRecord `json:"samples"`
}

// Preview runs the gate, dispatch and normalization steps of Import and
// reports the outcome. Nothing is sent downstream and no event is published.
func (s *Service) Preview(ctx context.Context, req ImportRequest) (*PreviewResult, error) {
	if err := s.gate.Check(ctx, req.CallerSecret); err != nil {
		return nil, err
	}

	def, err := Dispatch(req.TableType, len(req.Rows), s.maxRows)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	valid, fieldErrs, err := s.normalizeRows(ctx, req.Rows, def, s.now())
	if err != nil {
		return nil, err
	}

	samples := valid
	if len(samples) > MaxPreviewSamples {
		samples = samples[:MaxPreviewSamples]
	}

	logging.FromContext(ctx).Debug("import preview",
		"table_type", def.Type,
		"rows", len(req.Rows),
		"valid_rows", len(valid),
	)

	return &PreviewResult{
		TableType:   def.Type,
		TotalRows:   len(req.Rows),
		ValidRows:   len(valid),
		InvalidRows: len(req.Rows) - len(valid),
		Errors:      fieldErrs,
		Samples:     samples,
	}, nil
}
