package entity

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
)

func ptr[T any](v T) *T { return &v }

func TestToOutputHasExactKeys(t *testing.T) {
	canonical := uuid.New()
	issue := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	doc := ProcessedDocument{
		Record: NormalizedRecord{
			DocumentID:         uuid.New(),
			DocumentType:       constants.Invoice,
			VendorName:         ptr("Acme Corp"),
			InvoiceNumber:      ptr("INV-1"),
			IssueDate:          &issue,
			TotalAmount:        ptr(decimal.RequireFromString("1842.75")),
			Currency:           ptr("USD"),
			SourceFileName:     "a.pdf",
			ProcessedTimestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Validation: ValidationOutcome{Status: constants.StatusPassed, Score: 1},
		Dedup:      DedupDecision{IsDuplicate: true, CanonicalDocumentID: &canonical},
	}

	out := doc.ToOutput()
	m := out.Map()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	want := append([]string(nil), constants.OutputKeys...)
	sort.Strings(keys)
	sort.Strings(want)
	assert.Equal(t, want, keys)

	assert.Equal(t, "2025-01-12", out.Value("issue_date"))
	assert.Equal(t, "1842.75", out.Value("total_amount"))
	assert.Equal(t, "", out.Value("due_date"))
	assert.Nil(t, m["tax_amount"])
	assert.Equal(t, "true", out.Value("is_duplicate"))
	require.NotNil(t, out.CanonicalDocumentID)
	assert.Equal(t, canonical.String(), *out.CanonicalDocumentID)
	assert.Equal(t, "2025-03-01T10:00:00Z", out.ProcessedTimestamp)
	assert.Equal(t, []string{}, out.MissingFields)
}

func TestHasReportsAbsence(t *testing.T) {
	r := NormalizedRecord{InvoiceNumber: ptr("A1")}
	assert.True(t, r.Has(constants.FieldInvoiceNumber))
	assert.False(t, r.Has(constants.FieldTotalAmount))
	assert.False(t, r.Has(constants.FieldDocumentID))
}

func TestOutcomeHasCritical(t *testing.T) {
	o := ValidationOutcome{Violations: []Violation{{RuleID: "due_before_issue", Severity: constants.SeverityNonCritical}}}
	assert.False(t, o.HasCritical())
	o.Violations = append(o.Violations, Violation{RuleID: "required_field", Severity: constants.SeverityCritical})
	assert.True(t, o.HasCritical())
}
