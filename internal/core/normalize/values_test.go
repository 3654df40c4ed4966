package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-01-12", "2025-01-12"},
		{"2025/1/2", "2025-01-02"},
		{"12/01/2025", "2025-01-12"},
		{"01/13/2025", "2025-01-13"}, // day-first impossible, month-first fallback
		{"01-13-2025", "2025-01-13"},
		{"13-01-2025", "2025-01-13"}, // month-first impossible, day-first fallback
		{"12.01.2025", "2025-01-12"},
		{"12 January 2025", "2025-01-12"},
		{"12th Jan 2025", "2025-01-12"},
		{"January 12, 2025", "2025-01-12"},
		{"jan 12 2025", "2025-01-12"},
		{"05/06/25", "2025-06-05"},
		{"01-02-25", "2025-01-02"},
		{"12.01.25", "2025-01-12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{"", "2025-02-30", "31/31/2025", "sometime soon", "Q3 2025"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			assert.Error(t, err)
		})
	}
}

func TestParseDateExtraLayouts(t *testing.T) {
	got, err := ParseDate("20250112", "20060102")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-12", got.Format("2006-01-02"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1842.75", "1842.75"},
		{"$1,842.75", "1842.75"},
		{"USD 1,234,567.89", "1234567.89"},
		{"1.234,56 €", "1234.56"},
		{"1.234.567", "1234567"},
		{"1842,75", "1842.75"},
		{"1,234", "1234"},
		{"(250.00)", "-250"},
		{"-50", "-50"},
		{"₿500.00", "500"},
		{"1'234.50 CHF", "1234.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []string{"", "USD", "n/a"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestTextAndSnapshot(t *testing.T) {
	assert.Equal(t, "ACME Ltd", Text("  ＡＣＭＥ \t Ltd \n"))
	assert.Equal(t, "", Text(" \n "))

	assert.Equal(t, "héll", Snapshot("héllo", 4))
	assert.Equal(t, "hi", Snapshot("hi", 2000))
	assert.Equal(t, "", Snapshot("hi", 0))
}

func TestCleanHelpers(t *testing.T) {
	assert.Equal(t, "2024-001", InvoiceNumber("INV-2024-001"))
	assert.Equal(t, "A17", InvoiceNumber("Invoice No. a17"))
	assert.Equal(t, "4471", InvoiceNumber("# 4471"))
	assert.Equal(t, "ABC Supplies", VendorName("ABC Supplies Ltd."))
	assert.Equal(t, "Acme", VendorName("Acme, Inc"))
	assert.Equal(t, "Corp", VendorName("Corp"))
	assert.Equal(t, "PO-7781", Identifier("po-7781;"))
}
