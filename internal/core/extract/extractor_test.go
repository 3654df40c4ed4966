package extract

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
)

const sampleInvoice = `ABC Supplies Ltd
123 Market Street
INVOICE
Invoice Number: INV-2024-001
Invoice Date: 12/01/2025
Due Date: 12/02/2025
Bill To:
Global Tech Inc
Description   Qty   Price
Widgets        10   153.00
Subtotal: $1,530.00
Tax (20%): $312.75
Total: $1,842.75
Payment Terms: Net 30
PO Number: PO-7781
`

func TestExtractSampleInvoice(t *testing.T) {
	raw := New(nil).Extract(sampleInvoice)

	want := map[constants.Field]string{
		constants.FieldDocumentType:    "invoice",
		constants.FieldVendorName:      "ABC Supplies Ltd",
		constants.FieldClientName:      "Global Tech Inc",
		constants.FieldInvoiceNumber:   "INV-2024-001",
		constants.FieldIssueDate:       "12/01/2025",
		constants.FieldDueDate:         "12/02/2025",
		constants.FieldTotalAmount:     "$1,842.75",
		constants.FieldTaxAmount:       "$312.75",
		constants.FieldCurrency:        "$",
		constants.FieldPaymentTerms:    "Net 30",
		constants.FieldReferenceNumber: "PO-7781",
	}
	for field, value := range want {
		got, ok := raw.Value(field)
		assert.True(t, ok, "field %s should be present", field)
		assert.Equal(t, value, got, "field %s", field)
	}

	_, ok := raw.Value(constants.FieldContractNumber)
	assert.False(t, ok)
}

func TestExtractProvenance(t *testing.T) {
	raw := New(nil).Extract(sampleInvoice)

	vendor, ok := raw.Get(constants.FieldVendorName)
	require.True(t, ok)
	assert.Equal(t, "vendor.first_line", vendor.Provenance.MatcherID)
	assert.Equal(t, string(KindLine), vendor.Provenance.Kind)
	assert.Equal(t, 0, vendor.Provenance.Offset)

	total, ok := raw.Get(constants.FieldTotalAmount)
	require.True(t, ok)
	assert.Equal(t, "total_amount.total", total.Provenance.MatcherID)
	assert.Equal(t, "$1,842.75", sampleInvoice[total.Provenance.Offset:total.Provenance.Offset+len("$1,842.75")])
}

func TestExtractIsDeterministic(t *testing.T) {
	e := New(nil)
	assert.Equal(t, e.Extract(sampleInvoice), e.Extract(sampleInvoice))
}

func TestExtractEmptyText(t *testing.T) {
	raw := New(nil).Extract("")
	assert.Equal(t, 0, raw.Len())
	assert.Empty(t, raw.Fields())
}

func TestDocumentTypePriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"invoice beats statement", "Monthly statement\nInvoice #55", "invoice", true},
		{"purchase order", "PURCHASE   ORDER\nPO-99", "purchase_order", true},
		{"contract", "Service Contract between parties", "contract", true},
		{"credit note", "CREDIT NOTE CN-4", "credit_note", true},
		{"keyword inside word ignored", "Reportedly nothing here", "", false},
		{"no signal", "hello world", "", false},
	}
	m := NewDocumentTypeMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestInvoiceNumberRejectsHeaderWords(t *testing.T) {
	text := "INVOICE\nDESCRIPTION   AMOUNT\nWidget 10\n# 4471"
	got, ok := New(nil).Extract(text).Value(constants.FieldInvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, "4471", got)
}

func TestCurrencyMatchers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"label", "Currency: eur\nTotal: 10.00", "eur"},
		{"code after amount", "Total: 1,000.00 GBP", "GBP"},
		{"code before amount", "Amount Due: CHF 250", "CHF"},
		{"unmapped symbol before total", "Subtotal 10\nTotal: ₿500.00", "₿"},
		{"symbol keyword", "Price list in €", "€"},
	}
	e := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(tt.text).Value(constants.FieldCurrency)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIssueDateSkipsDueDateLabel(t *testing.T) {
	text := "Due Date: 2025-02-12\nDate: 2025-01-12"
	raw := New(nil).Extract(text)
	issue, _ := raw.Value(constants.FieldIssueDate)
	due, _ := raw.Value(constants.FieldDueDate)
	assert.Equal(t, "2025-01-12", issue)
	assert.Equal(t, "2025-02-12", due)
}

func TestTotalSkipsSubTotal(t *testing.T) {
	text := "Sub Total: 90.00\nGST: 10.00\nTotal: 100.00"
	raw := New(nil).Extract(text)
	total, _ := raw.Value(constants.FieldTotalAmount)
	tax, _ := raw.Value(constants.FieldTaxAmount)
	assert.Equal(t, "100.00", total)
	assert.Equal(t, "10.00", tax)
}

type panicMatcher struct{}

func (panicMatcher) ID() string                 { return "boom" }
func (panicMatcher) Kind() Kind                 { return KindPattern }
func (panicMatcher) Match(string) (Match, bool) { panic("bad table") }

func TestExtractRecoversMatcherPanic(t *testing.T) {
	table := []FieldMatchers{
		{constants.FieldInvoiceNumber, []Matcher{panicMatcher{}, NewPatternMatcher("fallback", `#(\d+)`)}},
		{constants.FieldVendorName, []Matcher{panicMatcher{}}},
	}
	raw, failures, err := NewWithTable(table, nil).ExtractContext(context.Background(), "ref #42")
	require.NoError(t, err)

	got, ok := raw.Value(constants.FieldInvoiceNumber)
	assert.True(t, ok)
	assert.Equal(t, "42", got)
	_, ok = raw.Value(constants.FieldVendorName)
	assert.False(t, ok)

	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Equal(t, constants.FailureExtraction, f.Kind)
		assert.Contains(t, f.Message, "bad table")
	}
}

func TestExtractContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw, _, err := New(nil).ExtractContext(ctx, sampleInvoice)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, raw.Len())
}

func TestRawFieldMapIsCopied(t *testing.T) {
	src := map[constants.Field]RawField{constants.FieldVendorName: {Value: "Acme"}}
	m := NewRawFieldMap(src)
	src[constants.FieldVendorName] = RawField{Value: "Changed"}

	got, _ := m.Value(constants.FieldVendorName)
	assert.Equal(t, "Acme", got)

	prov := m.Provenance()
	delete(prov, constants.FieldVendorName)
	assert.Len(t, m.Provenance(), 1)
}

func TestReferenceNumberAfterHeaderLine(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Initech\nPurchase Order\nPO Number: PO-5521", "PO-5521"},
		{"Initech\nPurchase Order\nPO Number: 5521", "5521"},
		{"Initech\nPO Number: PO-5521", "PO-5521"},
		{"Reference\nRef: R-88", "R-88"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := New(nil).Extract(tt.text).Value(constants.FieldReferenceNumber)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContractNumberStaysOnLabelLine(t *testing.T) {
	text := "Service Contract\nContract No: C-2024-7"
	got, ok := New(nil).Extract(text).Value(constants.FieldContractNumber)
	require.True(t, ok)
	assert.Equal(t, "C-2024-7", got)
}

func TestFirstDateIgnoresDigitsInsideIdentifiers(t *testing.T) {
	raw := New(nil).Extract("Batch 2025/01/123456\nShipment 12-02-2025X")
	_, ok := raw.Value(constants.FieldIssueDate)
	assert.False(t, ok)

	got, ok := New(nil).Extract("Batch 77\nDated 2025/01/12 at noon").Value(constants.FieldIssueDate)
	require.True(t, ok)
	assert.Equal(t, "2025/01/12", got)
}

func TestExtractConcurrentCallsShareTable(t *testing.T) {
	texts := map[string]string{
		"invoice":        sampleInvoice,
		"purchase_order": "Initech\nPURCHASE ORDER\nPO Number: 5521",
		"contract":       "Service Contract between parties\nContract No: C-7",
	}
	e := New(nil)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for want, text := range texts {
					got, _ := e.Extract(text).Value(constants.FieldDocumentType)
					if got != want {
						select {
						case errs <- got + " != " + want:
						default:
						}
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	var mismatches []string
	for m := range errs {
		mismatches = append(mismatches, m)
	}
	assert.Empty(t, mismatches)
}
