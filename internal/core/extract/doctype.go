package extract

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/joseph-ayodele/docextract/constants"
)

// docTypeSignal ties a keyword to a document type. The keyword prefilters
// with Aho-Corasick; confirm decides the match on the original text.
type docTypeSignal struct {
	docType constants.DocumentType
	keyword string
	confirm *regexp.Regexp
}

var docTypeSignals = []docTypeSignal{
	{constants.Invoice, "INVOICE", regexp.MustCompile(`(?i)\binvoice\b`)},
	{constants.PurchaseOrder, "PURCHASE", regexp.MustCompile(`(?i)\bpurchase\s+order\b`)},
	{constants.Contract, "CONTRACT", regexp.MustCompile(`(?i)\bcontract\b`)},
	{constants.Statement, "STATEMENT", regexp.MustCompile(`(?i)\bstatement\b`)},
	{constants.Report, "REPORT", regexp.MustCompile(`(?i)\breport\b`)},
	{constants.Receipt, "RECEIPT", regexp.MustCompile(`(?i)\breceipt\b`)},
	{constants.CreditNote, "CREDIT", regexp.MustCompile(`(?i)\bcredit\s+(?:note|memo)\b`)},
}

// DocumentTypeMatcher infers the document type from keyword signals. Earlier
// signals win when several are present.
type DocumentTypeMatcher struct {
	id      string
	signals []docTypeSignal
	ac      *ahocorasick.Matcher
}

// NewDocumentTypeMatcher builds the matcher over the built-in signals.
func NewDocumentTypeMatcher() *DocumentTypeMatcher {
	patterns := make([][]byte, len(docTypeSignals))
	for i, s := range docTypeSignals {
		patterns[i] = []byte(s.keyword)
	}
	return &DocumentTypeMatcher{
		id:      "document_type.signal",
		signals: docTypeSignals,
		ac:      ahocorasick.NewMatcher(patterns),
	}
}

func (m *DocumentTypeMatcher) ID() string { return m.id }
func (m *DocumentTypeMatcher) Kind() Kind { return KindKeyword }

func (m *DocumentTypeMatcher) Match(text string) (Match, bool) {
	hits := m.ac.MatchThreadSafe([]byte(strings.ToUpper(text)))
	if len(hits) == 0 {
		return Match{}, false
	}
	present := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		present[h] = struct{}{}
	}
	for i, s := range m.signals {
		if _, ok := present[i]; !ok {
			continue
		}
		if loc := s.confirm.FindStringIndex(text); loc != nil {
			return Match{Value: string(s.docType), Offset: loc[0]}, true
		}
	}
	return Match{}, false
}
