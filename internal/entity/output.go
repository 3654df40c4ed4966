package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/constants"
)

// OutputRecord is the flat serialized form of a final record.
type OutputRecord struct {
	DocumentID          string   `json:"document_id"`
	DocumentType        string   `json:"document_type"`
	VendorName          *string  `json:"vendor_name"`
	ClientName          *string  `json:"client_name"`
	InvoiceNumber       *string  `json:"invoice_number"`
	ContractNumber      *string  `json:"contract_number"`
	IssueDate           *string  `json:"issue_date"`
	DueDate             *string  `json:"due_date"`
	TotalAmount         *float64 `json:"total_amount"`
	TaxAmount           *float64 `json:"tax_amount"`
	Currency            *string  `json:"currency"`
	PaymentTerms        *string  `json:"payment_terms"`
	ReferenceNumber     *string  `json:"reference_number"`
	RawTextSnapshot     string   `json:"raw_text_snapshot"`
	SourceFileName      string   `json:"source_file_name"`
	ProcessedTimestamp  string   `json:"processed_timestamp"`
	ValidationStatus    string   `json:"validation_status"`
	ValidationScore     float64  `json:"validation_score"`
	MissingFields       []string `json:"missing_fields"`
	IsDuplicate         bool     `json:"is_duplicate"`
	CanonicalDocumentID *string  `json:"canonical_document_id"`
}

// ToOutput flattens the document into its serialized record.
func (d ProcessedDocument) ToOutput() OutputRecord {
	r := d.Record
	missing := d.Validation.MissingFields
	if missing == nil {
		missing = []string{}
	}

	out := OutputRecord{
		DocumentID:         r.DocumentID.String(),
		DocumentType:       string(r.DocumentType),
		VendorName:         r.VendorName,
		ClientName:         r.ClientName,
		InvoiceNumber:      r.InvoiceNumber,
		ContractNumber:     r.ContractNumber,
		IssueDate:          formatDate(r.IssueDate),
		DueDate:            formatDate(r.DueDate),
		TotalAmount:        amountFloat(r.TotalAmount),
		TaxAmount:          amountFloat(r.TaxAmount),
		Currency:           r.Currency,
		PaymentTerms:       r.PaymentTerms,
		ReferenceNumber:    r.ReferenceNumber,
		RawTextSnapshot:    r.RawTextSnapshot,
		SourceFileName:     r.SourceFileName,
		ProcessedTimestamp: r.ProcessedTimestamp.UTC().Format(time.RFC3339),
		ValidationStatus:   string(d.Validation.Status),
		ValidationScore:    d.Validation.Score,
		MissingFields:      missing,
		IsDuplicate:        d.Dedup.IsDuplicate,
	}
	if out.DocumentType == "" {
		out.DocumentType = string(constants.Unknown)
	}
	if d.Dedup.CanonicalDocumentID != nil {
		id := d.Dedup.CanonicalDocumentID.String()
		out.CanonicalDocumentID = &id
	}
	return out
}

// Map returns the record keyed by constants.OutputKeys. Absent values are nil.
func (o OutputRecord) Map() map[string]any {
	return map[string]any{
		"document_id":           o.DocumentID,
		"document_type":         o.DocumentType,
		"vendor_name":           strOrNil(o.VendorName),
		"client_name":           strOrNil(o.ClientName),
		"invoice_number":        strOrNil(o.InvoiceNumber),
		"contract_number":       strOrNil(o.ContractNumber),
		"issue_date":            strOrNil(o.IssueDate),
		"due_date":              strOrNil(o.DueDate),
		"total_amount":          floatOrNil(o.TotalAmount),
		"tax_amount":            floatOrNil(o.TaxAmount),
		"currency":              strOrNil(o.Currency),
		"payment_terms":         strOrNil(o.PaymentTerms),
		"reference_number":      strOrNil(o.ReferenceNumber),
		"raw_text_snapshot":     o.RawTextSnapshot,
		"source_file_name":      o.SourceFileName,
		"processed_timestamp":   o.ProcessedTimestamp,
		"validation_status":     o.ValidationStatus,
		"validation_score":      o.ValidationScore,
		"missing_fields":        o.MissingFields,
		"is_duplicate":          o.IsDuplicate,
		"canonical_document_id": strOrNil(o.CanonicalDocumentID),
	}
}

// Value returns the display string for one output key, "" when absent.
func (o OutputRecord) Value(key string) string {
	v, ok := o.Map()[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(t, ",")
	}
	return ""
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(constants.DateLayout)
	return &s
}

func amountFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
