package validate

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func ptr[T any](v T) *T { return &v }

func day(s string) *time.Time {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func amount(s string) *decimal.Decimal {
	return ptr(decimal.RequireFromString(s))
}

func completeRecord() entity.NormalizedRecord {
	return entity.NormalizedRecord{
		DocumentID:    uuid.New(),
		DocumentType:  constants.Invoice,
		InvoiceNumber: ptr("2024-001"),
		IssueDate:     day("2025-01-12"),
		TotalAmount:   amount("1842.75"),
		Currency:      ptr("USD"),
	}
}

func ruleIDs(o entity.ValidationOutcome) []string {
	ids := make([]string, 0, len(o.Violations))
	for _, v := range o.Violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func TestValidateCompleteRecordPasses(t *testing.T) {
	out := New(DefaultConfig(), nil).Validate(completeRecord())
	assert.Equal(t, constants.StatusPassed, out.Status)
	assert.Equal(t, 1.0, out.Score)
	assert.Empty(t, out.Violations)
	assert.Empty(t, out.MissingFields)
}

func TestValidateMissingFieldsFail(t *testing.T) {
	rec := completeRecord()
	rec.InvoiceNumber = nil
	rec.Currency = nil

	out := New(DefaultConfig(), nil).Validate(rec)
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, []string{"invoice_number", "currency"}, out.MissingFields)
	assert.Equal(t, 0.5, out.Score)
	for _, v := range out.Violations {
		assert.Equal(t, constants.SeverityCritical, v.Severity)
	}
}

func TestValidateDueDate(t *testing.T) {
	v := New(DefaultConfig(), nil)

	rec := completeRecord()
	rec.DueDate = day("2025-02-12")
	out := v.Validate(rec)
	assert.NotContains(t, ruleIDs(out), RuleDueBeforeIssue)
	assert.Equal(t, constants.StatusPassed, out.Status)

	rec.DueDate = day("2025-01-01")
	out = v.Validate(rec)
	assert.Contains(t, ruleIDs(out), RuleDueBeforeIssue)
	assert.NotEqual(t, constants.StatusPassed, out.Status)

	rec.DueDate = day("2025-01-12")
	out = v.Validate(rec)
	assert.Contains(t, ruleIDs(out), RuleDueBeforeIssue, "equal dates are not strictly after")
}

func TestValidateTotalAboveTax(t *testing.T) {
	v := New(DefaultConfig(), nil)

	rec := completeRecord()
	rec.TaxAmount = amount("312.75")
	out := v.Validate(rec)
	assert.NotContains(t, ruleIDs(out), RuleTotalNotAboveTax)

	rec.TotalAmount = amount("100")
	rec.TaxAmount = amount("300")
	out = v.Validate(rec)
	assert.Equal(t, []string{RuleTotalNotAboveTax}, ruleIDs(out))
	assert.Equal(t, constants.StatusPartial, out.Status)
	assert.Equal(t, 0.85, out.Score)
}

func TestValidateCurrency(t *testing.T) {
	v := New(DefaultConfig(), nil)

	rec := completeRecord()
	rec.Currency = ptr("SEK") // ISO code, not configured
	out := v.Validate(rec)
	assert.Equal(t, []string{RuleCurrencyUnrecognized}, ruleIDs(out))
	assert.Equal(t, constants.StatusFailed, out.Status)

	cfg := DefaultConfig()
	cfg.RecognizedCurrencies = append(cfg.RecognizedCurrencies, "XYZ")
	rec.Currency = ptr("XYZ") // configured, unknown to ISO 4217
	out = New(cfg, nil).Validate(rec)
	assert.Equal(t, []string{RuleCurrencyUnrecognized}, ruleIDs(out))
}

func TestValidateNegativeAmountSeverity(t *testing.T) {
	rec := completeRecord()
	rec.TotalAmount = amount("-50")

	out := New(DefaultConfig(), nil).Validate(rec)
	assert.Equal(t, []string{RuleAmountNegative}, ruleIDs(out))
	assert.Equal(t, constants.StatusPartial, out.Status)

	cfg := DefaultConfig()
	cfg.Severities = map[string]constants.Severity{
		RuleAmountNegative: constants.SeverityCritical,
		RuleRequiredField:  constants.SeverityNonCritical, // ignored
	}
	out = New(cfg, nil).Validate(rec)
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, 0.75, out.Score)

	rec.InvoiceNumber = nil
	out = New(cfg, nil).Validate(rec)
	assert.Equal(t, constants.SeverityCritical, out.Violations[0].Severity)
}

func TestValidateEmptyRecordFloorsScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequiredFields = constants.ExtractableFields
	out := New(cfg, nil).Validate(entity.NormalizedRecord{})
	assert.Equal(t, constants.StatusFailed, out.Status)
	assert.Equal(t, 0.0, out.Score)
}

// Random records always score within [0, 1] and fail whenever a required
// field is missing.
func TestValidateScoreBounds(t *testing.T) {
	faker := gofakeit.New(7)
	v := New(DefaultConfig(), nil)

	for i := 0; i < 200; i++ {
		rec := entity.NormalizedRecord{DocumentID: uuid.New()}
		if faker.Bool() {
			rec.InvoiceNumber = ptr(faker.Regex(`[A-Z]{2}-[0-9]{3}`))
		}
		if faker.Bool() {
			rec.IssueDate = ptr(faker.Date())
		}
		if faker.Bool() {
			rec.DueDate = ptr(faker.Date())
		}
		if faker.Bool() {
			rec.TotalAmount = ptr(decimal.NewFromFloat(faker.Float64Range(-500, 5000)))
		}
		if faker.Bool() {
			rec.TaxAmount = ptr(decimal.NewFromFloat(faker.Float64Range(-50, 500)))
		}
		if faker.Bool() {
			rec.Currency = ptr(faker.RandomString([]string{"USD", "EUR", "SEK", "ZZZ"}))
		}

		out := v.Validate(rec)
		require.GreaterOrEqual(t, out.Score, 0.0)
		require.LessOrEqual(t, out.Score, 1.0)
		if len(out.MissingFields) > 0 {
			require.Equal(t, constants.StatusFailed, out.Status)
		}
		if out.Status == constants.StatusPassed {
			require.False(t, out.HasCritical())
		}
	}
}
