package constants

// Field names one of the fixed schema attributes of a document record.
type Field string

const (
	FieldDocumentID         Field = "document_id"
	FieldDocumentType       Field = "document_type"
	FieldVendorName         Field = "vendor_name"
	FieldClientName         Field = "client_name"
	FieldInvoiceNumber      Field = "invoice_number"
	FieldContractNumber     Field = "contract_number"
	FieldIssueDate          Field = "issue_date"
	FieldDueDate            Field = "due_date"
	FieldTotalAmount        Field = "total_amount"
	FieldTaxAmount          Field = "tax_amount"
	FieldCurrency           Field = "currency"
	FieldPaymentTerms       Field = "payment_terms"
	FieldReferenceNumber    Field = "reference_number"
	FieldRawTextSnapshot    Field = "raw_text_snapshot"
	FieldSourceFileName     Field = "source_file_name"
	FieldProcessedTimestamp Field = "processed_timestamp"
)

// SchemaFields lists the 16 schema fields in output order.
var SchemaFields = []Field{
	FieldDocumentID,
	FieldDocumentType,
	FieldVendorName,
	FieldClientName,
	FieldInvoiceNumber,
	FieldContractNumber,
	FieldIssueDate,
	FieldDueDate,
	FieldTotalAmount,
	FieldTaxAmount,
	FieldCurrency,
	FieldPaymentTerms,
	FieldReferenceNumber,
	FieldRawTextSnapshot,
	FieldSourceFileName,
	FieldProcessedTimestamp,
}

// ExtractableFields are the schema fields read from document text.
// The remaining four are generated during normalization.
var ExtractableFields = []Field{
	FieldDocumentType,
	FieldVendorName,
	FieldClientName,
	FieldInvoiceNumber,
	FieldContractNumber,
	FieldIssueDate,
	FieldDueDate,
	FieldTotalAmount,
	FieldTaxAmount,
	FieldCurrency,
	FieldPaymentTerms,
	FieldReferenceNumber,
}

// DefaultRequiredFields must be present for a record to avoid critical violations.
var DefaultRequiredFields = []Field{
	FieldInvoiceNumber,
	FieldIssueDate,
	FieldTotalAmount,
	FieldCurrency,
}

// OutputKeys is the exact key set of a serialized final record.
var OutputKeys = []string{
	"document_id",
	"document_type",
	"vendor_name",
	"client_name",
	"invoice_number",
	"contract_number",
	"issue_date",
	"due_date",
	"total_amount",
	"tax_amount",
	"currency",
	"payment_terms",
	"reference_number",
	"raw_text_snapshot",
	"source_file_name",
	"processed_timestamp",
	"validation_status",
	"validation_score",
	"missing_fields",
	"is_duplicate",
	"canonical_document_id",
}

// DateLayout is the canonical ISO date layout of normalized dates.
const DateLayout = "2006-01-02"

// DefaultSnapshotLength bounds raw_text_snapshot, in characters.
const DefaultSnapshotLength = 2000

// DefaultMinTextLength is the shortest text layer treated as readable.
const DefaultMinTextLength = 10
