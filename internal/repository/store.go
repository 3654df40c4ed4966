package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Store persists batches and their processed documents.
type Store interface {
	StartBatch(ctx context.Context, b entity.Batch) error
	FinishBatch(ctx context.Context, id uuid.UUID, status constants.BatchStatus, finishedAt time.Time, documents int) error
	SaveDocuments(ctx context.Context, batchID uuid.UUID, docs []entity.ProcessedDocument) error
	ListBatches(ctx context.Context, limit int) ([]entity.Batch, error)
	ListDocuments(ctx context.Context, batchID uuid.UUID) ([]StoredDocument, error)
	Ping(ctx context.Context) error
	Close() error
}

// StoredDocument is the summary of one persisted document.
type StoredDocument struct {
	DocumentID       uuid.UUID
	SourceFileName   string
	DocumentType     string
	InvoiceNumber    *string
	TotalAmount      *string
	Currency         *string
	ValidationStatus constants.ValidationStatus
	ValidationScore  float64
	IsDuplicate      bool
}

// documentRow is the column projection shared by every backend.
type documentRow struct {
	DocumentID          string
	DocumentType        string
	VendorName          *string
	ClientName          *string
	InvoiceNumber       *string
	ContractNumber      *string
	IssueDate           *string
	DueDate             *string
	TotalAmount         *string
	TaxAmount           *string
	Currency            *string
	PaymentTerms        *string
	ReferenceNumber     *string
	RawTextSnapshot     string
	SourceFileName      string
	ProcessedTimestamp  string
	ValidationStatus    string
	ValidationScore     float64
	MissingFields       string
	IsDuplicate         bool
	CanonicalDocumentID *string
	Violations          string
	Failures            string
}

func newDocumentRow(d entity.ProcessedDocument) (documentRow, error) {
	out := d.ToOutput()
	missing, err := json.Marshal(out.MissingFields)
	if err != nil {
		return documentRow{}, common.WrapError(err, "marshal missing fields")
	}
	violations, err := json.Marshal(nonNil(d.Validation.Violations))
	if err != nil {
		return documentRow{}, common.WrapError(err, "marshal violations")
	}
	failures, err := json.Marshal(nonNil(d.Failures))
	if err != nil {
		return documentRow{}, common.WrapError(err, "marshal failures")
	}

	row := documentRow{
		DocumentID:          out.DocumentID,
		DocumentType:        out.DocumentType,
		VendorName:          out.VendorName,
		ClientName:          out.ClientName,
		InvoiceNumber:       out.InvoiceNumber,
		ContractNumber:      out.ContractNumber,
		IssueDate:           out.IssueDate,
		DueDate:             out.DueDate,
		Currency:            out.Currency,
		PaymentTerms:        out.PaymentTerms,
		ReferenceNumber:     out.ReferenceNumber,
		RawTextSnapshot:     out.RawTextSnapshot,
		SourceFileName:      out.SourceFileName,
		ProcessedTimestamp:  out.ProcessedTimestamp,
		ValidationStatus:    out.ValidationStatus,
		ValidationScore:     out.ValidationScore,
		MissingFields:       string(missing),
		IsDuplicate:         out.IsDuplicate,
		CanonicalDocumentID: out.CanonicalDocumentID,
		Violations:          string(violations),
		Failures:            string(failures),
	}
	// amounts keep their exact decimal text
	if a := d.Record.TotalAmount; a != nil {
		s := a.String()
		row.TotalAmount = &s
	}
	if a := d.Record.TaxAmount; a != nil {
		s := a.String()
		row.TaxAmount = &s
	}
	return row, nil
}

func (r documentRow) args(batchID uuid.UUID) []any {
	return []any{
		r.DocumentID, batchID.String(), r.DocumentType,
		r.VendorName, r.ClientName, r.InvoiceNumber, r.ContractNumber,
		r.IssueDate, r.DueDate, r.TotalAmount, r.TaxAmount, r.Currency,
		r.PaymentTerms, r.ReferenceNumber, r.RawTextSnapshot, r.SourceFileName,
		r.ProcessedTimestamp, r.ValidationStatus, r.ValidationScore, r.MissingFields,
		r.IsDuplicate, r.CanonicalDocumentID, r.Violations, r.Failures,
	}
}

const documentColumns = `document_id, batch_id, document_type,
	vendor_name, client_name, invoice_number, contract_number,
	issue_date, due_date, total_amount, tax_amount, currency,
	payment_terms, reference_number, raw_text_snapshot, source_file_name,
	processed_timestamp, validation_status, validation_score, missing_fields,
	is_duplicate, canonical_document_id, violations, failures`

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
