// Package pgstore persists import batches directly into PostgreSQL.
//
// It is the DOWNSTREAM_MODE=postgres alternative to the HTTP records service.
// Every batch is written with a single COPY inside one transaction, so a
// batch is either fully stored or not stored at all.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/core"
	"github.com/JonMunkholm/vetimport/internal/logging"
)

// TableName is the staging table every batch is copied into.
const TableName = "import_rows"

var copyColumns = []string{"batch_id", "table_type", "row_index", "imported_at", "payload"}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS import_rows (
    id          BIGSERIAL PRIMARY KEY,
    batch_id    TEXT        NOT NULL,
    table_type  TEXT        NOT NULL,
    row_index   INTEGER     NOT NULL,
    imported_at TIMESTAMPTZ NOT NULL,
    payload     JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS import_rows_batch_id_idx ON import_rows (batch_id);
CREATE INDEX IF NOT EXISTS import_rows_table_type_idx ON import_rows (table_type, imported_at);
`

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements core.Submitter on top of a pgx pool.
type Store struct {
	db DB
}

// New wraps db.
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool from the database configuration and verifies it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the staging table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Submit implements core.Submitter. The reported InsertedCount is the number
// of rows COPY wrote.
func (s *Store) Submit(ctx context.Context, def core.TableDefinition, req core.SubmitRequest) (core.SubmitResponse, error) {
	rows, err := copyRows(req)
	if err != nil {
		return core.SubmitResponse{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return core.SubmitResponse{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{TableName}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return core.SubmitResponse{}, fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return core.SubmitResponse{}, fmt.Errorf("commit transaction: %w", err)
	}

	logging.FromContext(ctx).Debug("batch stored",
		"table_type", def.Type,
		"batch_id", req.BatchID,
		"rows", copied,
	)

	inserted := int(copied)
	return core.SubmitResponse{
		Success:       true,
		InsertedCount: &inserted,
		BatchID:       req.BatchID,
	}, nil
}

// copyRows converts cleaned records into COPY tuples.
func copyRows(req core.SubmitRequest) ([][]any, error) {
	rows := make([][]any, len(req.Rows))
	for i, rec := range req.Rows {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", rec.RowIndex(), err)
		}

		importedAt := time.Now().UTC()
		if s, ok := rec[core.FieldImportedAt].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				importedAt = t
			}
		}

		rows[i] = []any{req.BatchID, string(req.TableType), rec.RowIndex(), importedAt, payload}
	}
	return rows, nil
}
