package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Rhymond/go-money"

	"github.com/joseph-ayodele/docextract/constants"
)

// FieldMatchers is the ordered matcher list for one field.
type FieldMatchers struct {
	Field    constants.Field
	Matchers []Matcher
}

const (
	// amountExpr captures an amount with an optional currency prefix or suffix.
	amountExpr = `(\(?-? ?(?:[A-Z]{3} ?|[A-Z]{0,2}\p{Sc} ?)?-?\d[\d.,']*\d?\)?(?: ?[A-Z]{3}\b)?)`
	// dateExpr covers numeric and month-name dates.
	dateExpr = `(?i)\b(?:\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+\d{4}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})\b`
	// nameExpr is a capitalized name running to the end of the line.
	nameExpr = `\p{Lu}[^\n]{1,99}`
	// idExpr is an alphanumeric identifier.
	idExpr = `[A-Za-z0-9][A-Za-z0-9\-/_.]*[A-Za-z0-9]|[A-Za-z0-9]`
)

// invoiceRejects are header words that follow "Invoice" without being numbers.
var invoiceRejects = []string{
	"DESCRIPTION", "OMSCHRIJVING", "BESCHRIJVING", "ARTIKEL", "ARTICLE", "ITEM",
	"PRODUCT", "PRODUKT", "NAAM", "NAME", "TITEL", "TITLE", "DATE", "TO", "FROM",
	"NUMBER", "NO", "TOTAL", "DUE", "AMOUNT", "DETAILS", "SUMMARY",
}

// docTypeLines are header lines that are never a vendor name.
var docTypeLines = map[string]struct{}{
	"INVOICE": {}, "TAX INVOICE": {}, "PURCHASE ORDER": {}, "CONTRACT": {},
	"STATEMENT": {}, "REPORT": {}, "RECEIPT": {}, "CREDIT NOTE": {}, "BILL": {},
}

// defaultTable is shared read-only by every Extractor built with New.
var defaultTable = buildDefaultTable()

// DefaultTable returns a copy of the built-in matcher table.
func DefaultTable() []FieldMatchers {
	out := make([]FieldMatchers, len(defaultTable))
	for i, fm := range defaultTable {
		out[i] = FieldMatchers{Field: fm.Field, Matchers: append([]Matcher(nil), fm.Matchers...)}
	}
	return out
}

func buildDefaultTable() []FieldMatchers {
	return []FieldMatchers{
		{constants.FieldDocumentType, []Matcher{
			NewDocumentTypeMatcher(),
		}},
		{constants.FieldVendorName, []Matcher{
			NewLabelMatcher("vendor.label",
				[]string{"vendor", "supplier", "seller", "from", "issued by", "bill from", "company"},
				nameExpr, 8, true),
			NewLineMatcher("vendor.first_line", 5, organisationLine),
		}},
		{constants.FieldClientName, []Matcher{
			NewLabelMatcher("client.label",
				[]string{"bill to", "billed to", "sold to", "customer", "client", "buyer", "to"},
				nameExpr, 8, true),
		}},
		{constants.FieldInvoiceNumber, []Matcher{
			NewPatternMatcher("invoice_number.labelled",
				`(?i)\binvoice\s*(?:no\.?|number|num|#)\s*[:#.]?\s*(`+idExpr+`)`,
				Reject(invoiceRejects...), Accept(invoiceLike)),
			NewPatternMatcher("invoice_number.inv_prefix",
				`(?i)\b(INV[-\s]?\d[A-Za-z0-9\-/]*)`),
			NewPatternMatcher("invoice_number.bare",
				`(?i)\binvoice\s*[:#]?\s*(`+idExpr+`)`,
				Reject(invoiceRejects...), Accept(invoiceLike)),
			NewPatternMatcher("invoice_number.hash",
				`#\s*(`+idExpr+`)`,
				Accept(hasDigit)),
		}},
		{constants.FieldContractNumber, []Matcher{
			NewPatternMatcher("contract_number.labelled",
				`(?i)\bcontract[ \t]*(?:no\.?|number|id|ref|#)?[ \t]*[:#.]?[ \t]*(`+idExpr+`)`,
				Accept(hasDigit)),
		}},
		{constants.FieldIssueDate, []Matcher{
			NewLabelMatcher("issue_date.label",
				[]string{"invoice date", "issue date", "date of issue", "issued on", "issued", "dated", "order date"},
				dateExpr, 24, false),
			NewLabelMatcher("issue_date.date_label",
				[]string{"date"}, dateExpr, 24, false, "due", "payment", "delivery", "ship", "expiry", "end"),
			NewPatternMatcher("issue_date.first_date", `(`+dateExpr+`)`),
		}},
		{constants.FieldDueDate, []Matcher{
			NewLabelMatcher("due_date.label",
				[]string{"due date", "payment due", "due on", "due by", "pay by", "due"},
				dateExpr, 24, false),
		}},
		{constants.FieldTotalAmount, []Matcher{
			NewPatternMatcher("total_amount.grand",
				`(?i:grand\s+total|total\s+due|amount\s+due|balance\s+due|total\s+amount|invoice\s+total)\s*[:\-]?\s*`+amountExpr,
				Accept(hasDigit)),
			NewPatternMatcher("total_amount.total",
				`\b(?i:total)\b(?:\s*\([^)\n]*\))?\s*[:\-]?\s*`+amountExpr,
				Accept(hasDigit), NotAfter("sub", "tax")),
			NewPatternMatcher("total_amount.amount",
				`\b(?i:amount)\b\s*[:\-]?\s*`+amountExpr,
				Accept(hasDigit), NotAfter("tax")),
		}},
		{constants.FieldTaxAmount, []Matcher{
			NewPatternMatcher("tax_amount.labelled",
				`\b(?i:tax\s+amount|total\s+tax|sales\s+tax|vat|gst|hst|tax)\b(?:\s*\(?\d+(?:[.,]\d+)?\s*%\)?)?\s*[:\-]?\s*`+amountExpr,
				Accept(hasDigit)),
		}},
		{constants.FieldCurrency, []Matcher{
			NewLabelMatcher("currency.label", []string{"currency"},
				`[A-Za-z]{3}\b|[A-Z]{0,2}\p{Sc}`, 6, false),
			NewPatternMatcher("currency.code_amount",
				`\b([A-Z]{3})\s?-?\d|\d[\d.,]*\s?([A-Z]{3})\b`,
				Accept(isISOCode)),
			NewPatternMatcher("currency.total_symbol",
				`\b(?i:total)\b[^\n\d\p{Sc}]{0,24}?([A-Z]{0,2}\p{Sc})\s?-?\d`),
			NewKeywordMatcher("currency.symbol",
				Keyword{Token: "€"}, Keyword{Token: "£"}, Keyword{Token: "US$"},
				Keyword{Token: "C$"}, Keyword{Token: "A$"}, Keyword{Token: "R$"},
				Keyword{Token: "$"}, Keyword{Token: "¥"}, Keyword{Token: "₹"},
				Keyword{Token: "EURO", Word: true}, Keyword{Token: "EUR", Word: true},
				Keyword{Token: "USD", Word: true}, Keyword{Token: "GBP", Word: true},
				Keyword{Token: "CAD", Word: true}, Keyword{Token: "AUD", Word: true},
				Keyword{Token: "JPY", Word: true}, Keyword{Token: "CHF", Word: true},
				Keyword{Token: "CNY", Word: true}, Keyword{Token: "INR", Word: true},
				Keyword{Token: "BRL", Word: true}),
		}},
		{constants.FieldPaymentTerms, []Matcher{
			NewLabelMatcher("payment_terms.label",
				[]string{"payment terms", "terms of payment", "terms"},
				`\S[^\n]{0,98}`, 4, true),
			NewPatternMatcher("payment_terms.net", `(?i)\b(net\s*\d{1,3})\b`),
			NewPatternMatcher("payment_terms.days", `(?i)\b(\d{1,3}\s+days)\b`),
			NewPatternMatcher("payment_terms.on_receipt", `(?i)\b(due\s+(?:on|upon)\s+receipt)\b`),
		}},
		{constants.FieldReferenceNumber, []Matcher{
			NewPatternMatcher("reference_number.po",
				`(?i)\b(?:p\.?o\.?|purchase[ \t]+order)[ \t]*(?:no\.?|number|#)?[ \t]*[:#.]?[ \t]*(`+idExpr+`)`,
				Accept(hasDigit)),
			NewPatternMatcher("reference_number.ref",
				`(?i)\b(?:ref|reference)[ \t]*(?:no\.?|number|#)?[ \t]*[:#.]?[ \t]*(`+idExpr+`)`,
				Accept(hasDigit)),
		}},
	}
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// invoiceLike keeps values with a digit or longer than three characters.
func invoiceLike(s string) bool {
	return hasDigit(s) || utf8.RuneCountInString(s) > 3
}

func isISOCode(s string) bool {
	return money.GetCurrency(strings.ToUpper(s)) != nil
}

// organisationLine accepts a header line that reads like a company name.
func organisationLine(line string) (string, bool) {
	n := utf8.RuneCountInString(line)
	if n < 4 || n > 100 || strings.Contains(line, ":") {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return "", false
	}
	if _, isHeader := docTypeLines[strings.ToUpper(strings.Join(strings.Fields(line), " "))]; isHeader {
		return "", false
	}
	letters, digits := 0, 0
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters < 3 || digits*10 > n*3 {
		return "", false
	}
	return line, true
}
