package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// PgxPool is the subset of *pgxpool.Pool the Postgres store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS batches (
	id          UUID PRIMARY KEY,
	input_dir   TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	documents   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS documents (
	document_id           UUID PRIMARY KEY,
	batch_id              UUID NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	document_type         TEXT NOT NULL,
	vendor_name           TEXT,
	client_name           TEXT,
	invoice_number        TEXT,
	contract_number       TEXT,
	issue_date            DATE,
	due_date              DATE,
	total_amount          NUMERIC,
	tax_amount            NUMERIC,
	currency              CHAR(3),
	payment_terms         TEXT,
	reference_number      TEXT,
	raw_text_snapshot     TEXT NOT NULL,
	source_file_name      TEXT NOT NULL,
	processed_timestamp   TIMESTAMPTZ NOT NULL,
	validation_status     TEXT NOT NULL,
	validation_score      DOUBLE PRECISION NOT NULL,
	missing_fields        JSONB NOT NULL,
	is_duplicate          BOOLEAN NOT NULL,
	canonical_document_id UUID,
	violations            JSONB NOT NULL,
	failures              JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_batch ON documents(batch_id);
`

const insertDocumentSQL = `INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
ON CONFLICT (document_id) DO UPDATE SET
	batch_id = EXCLUDED.batch_id,
	validation_status = EXCLUDED.validation_status,
	validation_score = EXCLUDED.validation_score,
	is_duplicate = EXCLUDED.is_duplicate,
	canonical_document_id = EXCLUDED.canonical_document_id,
	violations = EXCLUDED.violations,
	failures = EXCLUDED.failures`

// PostgresStore is a Store backed by a pgx pool.
type PostgresStore struct {
	db     PgxPool
	logger *slog.Logger
}

// NewPostgresStore wraps an open pool. Call EnsureSchema before first use.
func NewPostgresStore(db PgxPool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		s.logger.Error("store.schema.failed", "error", err)
		return common.NewAppError(common.CodeStore, "create schema", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

func (s *PostgresStore) StartBatch(ctx context.Context, b entity.Batch) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO batches (id, input_dir, status, started_at, documents) VALUES ($1, $2, $3, $4, $5)`,
		b.ID.String(), b.InputDir, string(b.Status), b.StartedAt.UTC(), b.Documents,
	)
	if err != nil {
		s.logger.Error("store.batch.start_failed", "batch_id", b.ID, "error", err)
		return common.NewAppError(common.CodeStore, "start batch", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

func (s *PostgresStore) FinishBatch(ctx context.Context, id uuid.UUID, status constants.BatchStatus, finishedAt time.Time, documents int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE batches SET status = $1, finished_at = $2, documents = $3 WHERE id = $4`,
		string(status), finishedAt.UTC(), documents, id.String(),
	)
	if err != nil {
		return common.NewAppError(common.CodeStore, "finish batch", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError(common.CodeStore, fmt.Sprintf("batch %s", id), common.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) SaveDocuments(ctx context.Context, batchID uuid.UUID, docs []entity.ProcessedDocument) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.NewAppError(common.CodeStore, "begin", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warn("store.rollback.failed", "error", err)
		}
	}()

	for _, d := range docs {
		row, err := newDocumentRow(d)
		if err != nil {
			return common.NewAppError(common.CodeStore, "encode document", err)
		}
		if _, err := tx.Exec(ctx, insertDocumentSQL, row.args(batchID)...); err != nil {
			s.logger.Error("store.document.save_failed", "document_id", row.DocumentID, "error", err)
			return common.NewAppError(common.CodeStore, "save document", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return common.NewAppError(common.CodeStore, "commit", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	committed = true
	s.logger.Debug("store.documents.saved", "batch_id", batchID, "count", len(docs))
	return nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, limit int) ([]entity.Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT id::text, input_dir, status, started_at, finished_at, documents FROM batches ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewAppError(common.CodeStore, "list batches", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.Batch
	for rows.Next() {
		var (
			id, status string
			b          entity.Batch
		)
		if err := rows.Scan(&id, &b.InputDir, &status, &b.StartedAt, &b.FinishedAt, &b.Documents); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("batch id %q: %w", id, err)
		}
		b.Status = constants.BatchStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListDocuments(ctx context.Context, batchID uuid.UUID) ([]StoredDocument, error) {
	rows, err := s.db.Query(ctx, `
		SELECT document_id::text, source_file_name, document_type, invoice_number, total_amount::text,
		       currency, validation_status, validation_score, is_duplicate
		FROM documents WHERE batch_id = $1 ORDER BY source_file_name, document_id`, batchID.String())
	if err != nil {
		return nil, common.NewAppError(common.CodeStore, "list documents", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []StoredDocument
	for rows.Next() {
		var (
			id, status string
			d          StoredDocument
		)
		if err := rows.Scan(&id, &d.SourceFileName, &d.DocumentType, &d.InvoiceNumber, &d.TotalAmount,
			&d.Currency, &status, &d.ValidationScore, &d.IsDuplicate); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if d.DocumentID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("document id %q: %w", id, err)
		}
		d.ValidationStatus = constants.ValidationStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
