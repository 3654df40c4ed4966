package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	input_dir   TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	documents   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS documents (
	document_id           TEXT PRIMARY KEY,
	batch_id              TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	document_type         TEXT NOT NULL,
	vendor_name           TEXT,
	client_name           TEXT,
	invoice_number        TEXT,
	contract_number       TEXT,
	issue_date            TEXT,
	due_date              TEXT,
	total_amount          TEXT,
	tax_amount            TEXT,
	currency              TEXT,
	payment_terms         TEXT,
	reference_number      TEXT,
	raw_text_snapshot     TEXT NOT NULL,
	source_file_name      TEXT NOT NULL,
	processed_timestamp   TEXT NOT NULL,
	validation_status     TEXT NOT NULL,
	validation_score      REAL NOT NULL,
	missing_fields        TEXT NOT NULL,
	is_duplicate          INTEGER NOT NULL,
	canonical_document_id TEXT,
	violations            TEXT NOT NULL,
	failures              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_batch ON documents(batch_id);
`

// SQLiteStore is a Store backed by a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps :memory: shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("store.sqlite.open", "path", path)
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStore) StartBatch(ctx context.Context, b entity.Batch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (id, input_dir, status, started_at, documents) VALUES (?, ?, ?, ?, ?)`,
		b.ID.String(), b.InputDir, string(b.Status), b.StartedAt.UTC().Format(time.RFC3339Nano), b.Documents,
	)
	if err != nil {
		s.logger.Error("store.batch.start_failed", "batch_id", b.ID, "error", err)
		return common.NewAppError(common.CodeStore, "start batch", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

func (s *SQLiteStore) FinishBatch(ctx context.Context, id uuid.UUID, status constants.BatchStatus, finishedAt time.Time, documents int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, finished_at = ?, documents = ? WHERE id = ?`,
		string(status), finishedAt.UTC().Format(time.RFC3339Nano), documents, id.String(),
	)
	if err != nil {
		return common.NewAppError(common.CodeStore, "finish batch", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError(common.CodeStore, fmt.Sprintf("batch %s", id), common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SaveDocuments(ctx context.Context, batchID uuid.UUID, docs []entity.ProcessedDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError(common.CodeStore, "begin", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 24), ", ")
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO documents (`+documentColumns+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return common.NewAppError(common.CodeStore, "prepare insert", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer stmt.Close()

	for _, d := range docs {
		row, err := newDocumentRow(d)
		if err != nil {
			return common.NewAppError(common.CodeStore, "encode document", err)
		}
		if _, err := stmt.ExecContext(ctx, row.args(batchID)...); err != nil {
			s.logger.Error("store.document.save_failed", "document_id", row.DocumentID, "error", err)
			return common.NewAppError(common.CodeStore, "save document", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError(common.CodeStore, "commit", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	s.logger.Debug("store.documents.saved", "batch_id", batchID, "count", len(docs))
	return nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]entity.Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_dir, status, started_at, finished_at, documents FROM batches ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError(common.CodeStore, "list batches", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.Batch
	for rows.Next() {
		var (
			id, dir, status, started string
			finished                 sql.NullString
			b                        entity.Batch
		)
		if err := rows.Scan(&id, &dir, &status, &started, &finished, &b.Documents); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("batch id %q: %w", id, err)
		}
		b.InputDir = dir
		b.Status = constants.BatchStatus(status)
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339Nano, finished.String); err == nil {
				b.FinishedAt = &t
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, batchID uuid.UUID) ([]StoredDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, source_file_name, document_type, invoice_number, total_amount,
		       currency, validation_status, validation_score, is_duplicate
		FROM documents WHERE batch_id = ? ORDER BY source_file_name, document_id`, batchID.String())
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}
