package constants

import (
	"strings"
)

type DocumentType string

const (
	Invoice       DocumentType = "invoice"
	PurchaseOrder DocumentType = "purchase_order"
	Contract      DocumentType = "contract"
	Statement     DocumentType = "statement"
	Report        DocumentType = "report"
	Receipt       DocumentType = "receipt"
	CreditNote    DocumentType = "credit_note"
	Unknown       DocumentType = "unknown"
)

var allDocumentTypes = []DocumentType{
	Invoice,
	PurchaseOrder,
	Contract,
	Statement,
	Report,
	Receipt,
	CreditNote,
	Unknown,
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalizeDocumentType maps a free-form label onto a known document type.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocumentType{
		"tax invoice":       Invoice,
		"bill":              Invoice,
		"po":                PurchaseOrder,
		"purchase order":    PurchaseOrder,
		"agreement":         Contract,
		"credit memo":       CreditNote,
		"credit note":       CreditNote,
		"account statement": Statement,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	return Unknown, false
}
