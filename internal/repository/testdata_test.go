package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func ptr[T any](v T) *T { return &v }

func sampleDoc(file, invoice string, status constants.ValidationStatus) entity.ProcessedDocument {
	issue := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("1842.75")
	return entity.ProcessedDocument{
		Record: entity.NormalizedRecord{
			DocumentID:         uuid.New(),
			DocumentType:       constants.Invoice,
			VendorName:         ptr("ACME"),
			InvoiceNumber:      ptr(invoice),
			IssueDate:          &issue,
			TotalAmount:        &total,
			Currency:           ptr("USD"),
			SourceFileName:     file,
			ProcessedTimestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Validation: entity.ValidationOutcome{Status: status, Score: 0.85},
	}
}
