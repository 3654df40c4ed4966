package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/constants"
)

// NormalizedRecord is one document's schema fields in canonical types.
// A nil pointer means the field is absent.
type NormalizedRecord struct {
	DocumentID         uuid.UUID
	DocumentType       constants.DocumentType
	VendorName         *string
	ClientName         *string
	InvoiceNumber      *string
	ContractNumber     *string
	IssueDate          *time.Time
	DueDate            *time.Time
	TotalAmount        *decimal.Decimal
	TaxAmount          *decimal.Decimal
	Currency           *string
	PaymentTerms       *string
	ReferenceNumber    *string
	RawTextSnapshot    string
	SourceFileName     string
	ProcessedTimestamp time.Time
}

// Has reports whether the given schema field holds a value.
func (r NormalizedRecord) Has(field constants.Field) bool {
	switch field {
	case constants.FieldDocumentID:
		return r.DocumentID != uuid.Nil
	case constants.FieldDocumentType:
		return r.DocumentType != ""
	case constants.FieldVendorName:
		return r.VendorName != nil
	case constants.FieldClientName:
		return r.ClientName != nil
	case constants.FieldInvoiceNumber:
		return r.InvoiceNumber != nil
	case constants.FieldContractNumber:
		return r.ContractNumber != nil
	case constants.FieldIssueDate:
		return r.IssueDate != nil
	case constants.FieldDueDate:
		return r.DueDate != nil
	case constants.FieldTotalAmount:
		return r.TotalAmount != nil
	case constants.FieldTaxAmount:
		return r.TaxAmount != nil
	case constants.FieldCurrency:
		return r.Currency != nil
	case constants.FieldPaymentTerms:
		return r.PaymentTerms != nil
	case constants.FieldReferenceNumber:
		return r.ReferenceNumber != nil
	case constants.FieldRawTextSnapshot:
		return r.RawTextSnapshot != ""
	case constants.FieldSourceFileName:
		return r.SourceFileName != ""
	case constants.FieldProcessedTimestamp:
		return !r.ProcessedTimestamp.IsZero()
	}
	return false
}

// Violation is a single failed validation rule.
type Violation struct {
	RuleID   string             `json:"rule_id"`
	Field    string             `json:"field"`
	Message  string             `json:"message"`
	Severity constants.Severity `json:"severity"`
}

// ValidationOutcome is the validator's verdict on one record.
type ValidationOutcome struct {
	Status        constants.ValidationStatus `json:"status"`
	Score         float64                    `json:"score"`
	Violations    []Violation                `json:"violations"`
	MissingFields []string                   `json:"missing_fields"`
}

// HasCritical reports whether any violation is critical.
func (o ValidationOutcome) HasCritical() bool {
	for _, v := range o.Violations {
		if v.Severity == constants.SeverityCritical {
			return true
		}
	}
	return false
}

// DedupDecision marks a record as canonical or as a duplicate of another.
type DedupDecision struct {
	IsDuplicate         bool
	CanonicalDocumentID *uuid.UUID
}

// Failure is a per-document problem recorded instead of raised.
type Failure struct {
	Kind    constants.FailureKind `json:"kind"`
	Field   string                `json:"field,omitempty"`
	Message string                `json:"message"`
}

// Provenance records which matcher produced a raw field value and where.
type Provenance struct {
	MatcherID string `json:"matcher_id"`
	Kind      string `json:"kind"`
	Offset    int    `json:"offset"`
}

// ProcessedDocument is the pipeline result for one input document.
type ProcessedDocument struct {
	Record     NormalizedRecord
	Provenance map[constants.Field]Provenance
	Validation ValidationOutcome
	Dedup      DedupDecision
	Failures   []Failure
}

// ExtractionFailed reports whether the document ended with no extracted
// fields because of a text or extraction failure.
func (d ProcessedDocument) ExtractionFailed() bool {
	for _, f := range d.Failures {
		if f.Kind == constants.FailureExtraction || f.Kind == constants.FailureText {
			return true
		}
	}
	return false
}
