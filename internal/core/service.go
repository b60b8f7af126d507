package core

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/logging"
)

// minRowsPerWorker keeps small imports on a single goroutine.
const minRowsPerWorker = 256

// DefaultNotifyTimeout bounds a single completion notification.
const DefaultNotifyTimeout = 5 * time.Second

// Service runs the import pipeline: security gate, dispatch, normalization,
// submission and aggregation. It is safe for concurrent use; imports share
// nothing but the limiter.
type Service struct {
	submitter     Submitter
	gate          SecurityGate
	resolver      DateResolver
	limiter       *ImportLimiter
	maxRows       int
	workers       int
	notifier      Notifier
	notifyTimeout time.Duration
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes an ImportEvent for every finished import.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock replaces time.Now for timestamps, batch ids and the date
// resolver's upper year bound.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service that submits through sub.
func NewService(sub Submitter, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		submitter:     sub,
		gate:          NewSecurityGate(cfg.Security.ImportSecret),
		limiter:       NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		maxRows:       cfg.Import.MaxRows,
		workers:       cfg.Import.Workers,
		notifyTimeout: cfg.Events.Timeout,
		now:           time.Now,
	}
	if s.maxRows <= 0 {
		s.maxRows = DefaultMaxRows
	}
	if s.workers <= 0 {
		s.workers = 1
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = DefaultNotifyTimeout
	}

	for _, opt := range opts {
		opt(s)
	}

	s.resolver = NewDateResolver(s.now)
	return s
}

// MaxRows returns the configured row-count ceiling.
func (s *Service) MaxRows() int {
	return s.maxRows
}

// ListTables returns every registered table definition.
func (s *Service) ListTables() []TableDefinition {
	return All()
}

// Resolver returns the date resolver the service normalizes with.
func (s *Service) Resolver() DateResolver {
	return s.resolver
}

// LimiterStatus reports how many imports are in flight.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until every in-flight import finishes or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Import runs one request through the pipeline.
//
// Row-level problems never fail the import: invalid rows are reported in
// ImportResult.Errors and left out of the submission. A non-nil error means
// the request was rejected (AuthorizationError, ValidationError), could not
// get a slot (ErrTooManyImports), or the downstream submission failed
// (SubmissionError). No rows are persisted by this service when an error is
// returned before submission.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	start := s.now()
	logger := logging.WithFields(ctx,
		"table_type", req.TableType,
		"rows", len(req.Rows),
	)
	logger.Debug("import phase", "phase", PhaseReceived)

	if err := s.gate.Check(ctx, req.CallerSecret); err != nil {
		s.notify(ctx, s.failureEvent(req, PhaseRejectedSecurity, err, start))
		return nil, err
	}
	logger.Debug("import phase", "phase", PhaseSecurityChecked)

	def, err := Dispatch(req.TableType, len(req.Rows), s.maxRows)
	if err != nil {
		logger.Info("import rejected", "error", err)
		s.notify(ctx, s.failureEvent(req, PhaseRejectedDispatch, err, start))
		return nil, err
	}
	logger.Debug("import phase", "phase", PhaseDispatched, "endpoint", def.Endpoint)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("import slot unavailable", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	valid, fieldErrs, err := s.normalizeRows(ctx, req.Rows, def, start)
	if err != nil {
		return nil, err
	}
	logger.Debug("import phase", "phase", PhaseNormalized,
		"valid_rows", len(valid),
		"field_errors", len(fieldErrs),
	)

	resp, err := submitBatch(ctx, s.submitter, def, valid, req.CallerSecret, start)
	if err != nil {
		logger.Error("import submission failed", "error", err)
		s.notify(ctx, s.failureEvent(req, PhaseFailedSubmission, err, start))
		return nil, err
	}
	logger.Debug("import phase", "phase", PhaseSubmitted, "batch_id", resp.BatchID)

	result := aggregate(len(req.Rows), valid, fieldErrs, resp)

	logger.Info("import completed",
		"batch_id", result.BatchID,
		"inserted", result.InsertedCount,
		"invalid_rows", result.InvalidRows,
		"success_rate", result.SuccessRate,
		"duration", s.now().Sub(start),
	)

	s.notify(ctx, ImportEvent{
		BatchID:       result.BatchID,
		TableType:     def.Type,
		Phase:         PhaseResponded,
		TotalRows:     result.TotalRows,
		InsertedCount: result.InsertedCount,
		InvalidRows:   result.InvalidRows,
		SuccessRate:   result.SuccessRate,
		FinishedAt:    s.now().UTC(),
		DurationMs:    s.now().Sub(start).Milliseconds(),
	})

	return result, nil
}

// rowOutcome is the normalization result for one row, kept in its input slot
// so results fold back in order regardless of which worker produced them.
type rowOutcome struct {
	record CleanedRecord
	errs   []FieldError
}

// normalizeRows cleans every row, splitting the work across s.workers
// goroutines. Valid records keep input order and errors are grouped by row
// in input order, so the output matches a sequential pass exactly.
func (s *Service) normalizeRows(ctx context.Context, rows []RawRecord, def TableDefinition, importedAt time.Time) ([]CleanedRecord, []FieldError, error) {
	normalizer := NewNormalizer(s.resolver, importedAt)
	outcomes := make([]rowOutcome, len(rows))

	workers := s.workers
	if limit := (len(rows) + minRowsPerWorker - 1) / minRowsPerWorker; workers > limit {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(rows) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for lo := 0; lo < len(rows); lo += chunk {
		hi := min(lo+chunk, len(rows))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%minRowsPerWorker == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				rec, errs := normalizer.Normalize(rows[i], i+1, def)
				outcomes[i] = rowOutcome{record: rec, errs: errs}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	valid := make([]CleanedRecord, 0, len(rows))
	fieldErrs := make([]FieldError, 0)
	for _, o := range outcomes {
		if len(o.errs) == 0 {
			valid = append(valid, o.record)
			continue
		}
		fieldErrs = append(fieldErrs, o.errs...)
	}

	return valid, fieldErrs, nil
}

// aggregate builds the caller-facing result. InsertedCount defaults to the
// number of valid rows submitted when the collaborator does not report one.
func aggregate(total int, valid []CleanedRecord, fieldErrs []FieldError, resp SubmitResponse) *ImportResult {
	inserted := len(valid)
	if resp.InsertedCount != nil {
		inserted = *resp.InsertedCount
	}
	if fieldErrs == nil {
		fieldErrs = []FieldError{}
	}

	result := &ImportResult{
		Success:       true,
		InsertedCount: inserted,
		Errors:        fieldErrs,
		BatchID:       resp.BatchID,
		TotalRows:     total,
		SuccessRate:   SuccessRate(inserted, total),
		ValidRows:     len(valid),
		InvalidRows:   total - len(valid),
		Message:       resp.Message,
	}
	return result
}

// SuccessRate is inserted/total as a whole percentage, rounded half away
// from zero. It is 0 when total is 0.
func SuccessRate(inserted, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(inserted) / float64(total) * 100))
}

func (s *Service) failureEvent(req ImportRequest, phase ImportPhase, err error, start time.Time) ImportEvent {
	ev := ImportEvent{
		TableType:  req.TableType,
		Phase:      phase,
		TotalRows:  len(req.Rows),
		Error:      err.Error(),
		FinishedAt: s.now().UTC(),
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		ev.BatchID = subErr.BatchID
	}
	return ev
}

// notify publishes ev if a Notifier is configured. Failures are logged and
// never change the import outcome.
func (s *Service) notify(ctx context.Context, ev ImportEvent) {
	if s.notifier == nil {
		return
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(nctx, ev); err != nil {
		logging.FromContext(ctx).Warn("import notification failed",
			"phase", ev.Phase,
			"batch_id", ev.BatchID,
			"error", err,
		)
	}
}
