package export

import (
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// csvRow is the CSV projection of an output record. Absent values are
// empty cells and missing_fields is semicolon separated.
type csvRow struct {
	DocumentID          string `csv:"document_id"`
	DocumentType        string `csv:"document_type"`
	VendorName          string `csv:"vendor_name"`
	ClientName          string `csv:"client_name"`
	InvoiceNumber       string `csv:"invoice_number"`
	ContractNumber      string `csv:"contract_number"`
	IssueDate           string `csv:"issue_date"`
	DueDate             string `csv:"due_date"`
	TotalAmount         string `csv:"total_amount"`
	TaxAmount           string `csv:"tax_amount"`
	Currency            string `csv:"currency"`
	PaymentTerms        string `csv:"payment_terms"`
	ReferenceNumber     string `csv:"reference_number"`
	RawTextSnapshot     string `csv:"raw_text_snapshot"`
	SourceFileName      string `csv:"source_file_name"`
	ProcessedTimestamp  string `csv:"processed_timestamp"`
	ValidationStatus    string `csv:"validation_status"`
	ValidationScore     string `csv:"validation_score"`
	MissingFields       string `csv:"missing_fields"`
	IsDuplicate         string `csv:"is_duplicate"`
	CanonicalDocumentID string `csv:"canonical_document_id"`
}

func toCSVRow(r entity.OutputRecord) csvRow {
	return csvRow{
		DocumentID:          r.DocumentID,
		DocumentType:        r.DocumentType,
		VendorName:          r.Value("vendor_name"),
		ClientName:          r.Value("client_name"),
		InvoiceNumber:       r.Value("invoice_number"),
		ContractNumber:      r.Value("contract_number"),
		IssueDate:           r.Value("issue_date"),
		DueDate:             r.Value("due_date"),
		TotalAmount:         r.Value("total_amount"),
		TaxAmount:           r.Value("tax_amount"),
		Currency:            r.Value("currency"),
		PaymentTerms:        r.Value("payment_terms"),
		ReferenceNumber:     r.Value("reference_number"),
		RawTextSnapshot:     r.RawTextSnapshot,
		SourceFileName:      r.SourceFileName,
		ProcessedTimestamp:  r.ProcessedTimestamp,
		ValidationStatus:    r.ValidationStatus,
		ValidationScore:     r.Value("validation_score"),
		MissingFields:       strings.Join(r.MissingFields, ";"),
		IsDuplicate:         r.Value("is_duplicate"),
		CanonicalDocumentID: r.Value("canonical_document_id"),
	}
}

// WriteRecordsCSV writes a header row followed by one row per record.
func WriteRecordsCSV(w io.Writer, records []entity.OutputRecord) error {
	rows := make([]csvRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, toCSVRow(r))
	}
	return gocsv.Marshal(&rows, w)
}
