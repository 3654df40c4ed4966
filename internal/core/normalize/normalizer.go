package normalize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/core/extract"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Config controls value canonicalization.
type Config struct {
	SnapshotLength       int
	RecognizedCurrencies []string
	CurrencyAliases      map[string]string // upper-cased symbol or name -> ISO code
	DateLayouts          []string
}

// Normalizer turns a RawFieldMap into a typed NormalizedRecord.
type Normalizer struct {
	cfg        Config
	recognized map[string]struct{}
	aliases    map[string]string
	now        func() time.Time
	newID      func() uuid.UUID
	logger     *slog.Logger
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithClock sets the source of processed timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator sets the document id source.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(n *Normalizer) { n.newID = gen }
}

// New creates a Normalizer.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SnapshotLength <= 0 {
		cfg.SnapshotLength = constants.DefaultSnapshotLength
	}

	n := &Normalizer{
		cfg:        cfg,
		recognized: make(map[string]struct{}, len(cfg.RecognizedCurrencies)),
		aliases:    make(map[string]string, len(cfg.CurrencyAliases)),
		now:        time.Now,
		newID:      uuid.New,
		logger:     logger,
	}
	for _, c := range cfg.RecognizedCurrencies {
		n.recognized[strings.ToUpper(c)] = struct{}{}
	}
	for k, v := range cfg.CurrencyAliases {
		n.aliases[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize builds the record for one document. Values that cannot be parsed
// are left absent and reported as NORMALIZATION failures.
func (n *Normalizer) Normalize(raw extract.RawFieldMap, sourceFileName, rawText string) (entity.NormalizedRecord, []entity.Failure) {
	rec := entity.NormalizedRecord{
		DocumentID:         n.newID(),
		DocumentType:       constants.Unknown,
		RawTextSnapshot:    Snapshot(rawText, n.cfg.SnapshotLength),
		SourceFileName:     sourceFileName,
		ProcessedTimestamp: n.now().UTC(),
	}
	var failures []entity.Failure
	fail := func(field constants.Field, err error) {
		failures = append(failures, entity.Failure{
			Kind:    constants.FailureNormalization,
			Field:   string(field),
			Message: err.Error(),
		})
	}

	if v, ok := raw.Value(constants.FieldDocumentType); ok {
		if dt, known := constants.CanonicalizeDocumentType(v); known {
			rec.DocumentType = dt
		}
	}

	rec.VendorName = textPtr(VendorName(valueOf(raw, constants.FieldVendorName)))
	rec.ClientName = textPtr(Text(valueOf(raw, constants.FieldClientName)))
	rec.InvoiceNumber = textPtr(InvoiceNumber(valueOf(raw, constants.FieldInvoiceNumber)))
	rec.ContractNumber = textPtr(Identifier(valueOf(raw, constants.FieldContractNumber)))
	rec.PaymentTerms = textPtr(Text(valueOf(raw, constants.FieldPaymentTerms)))
	rec.ReferenceNumber = textPtr(Identifier(valueOf(raw, constants.FieldReferenceNumber)))

	for _, df := range []struct {
		field constants.Field
		dst   **time.Time
	}{
		{constants.FieldIssueDate, &rec.IssueDate},
		{constants.FieldDueDate, &rec.DueDate},
	} {
		v, ok := raw.Value(df.field)
		if !ok {
			continue
		}
		t, err := ParseDate(v, n.cfg.DateLayouts...)
		if err != nil {
			fail(df.field, err)
			continue
		}
		*df.dst = &t
	}

	for _, af := range []struct {
		field constants.Field
		dst   **decimal.Decimal
	}{
		{constants.FieldTotalAmount, &rec.TotalAmount},
		{constants.FieldTaxAmount, &rec.TaxAmount},
	} {
		v, ok := raw.Value(af.field)
		if !ok {
			continue
		}
		d, err := ParseAmount(v)
		if err != nil {
			fail(af.field, err)
			continue
		}
		*af.dst = &d
	}

	if v, ok := raw.Value(constants.FieldCurrency); ok {
		if code, known := n.Currency(v); known {
			rec.Currency = &code
		} else {
			fail(constants.FieldCurrency, fmt.Errorf("unrecognized currency %q", v))
		}
	}

	if len(failures) > 0 {
		n.logger.Debug("normalize.failures",
			"source_file", sourceFileName,
			"document_id", rec.DocumentID.String(),
			"count", len(failures),
		)
	}
	return rec, failures
}

// Currency maps a symbol, name or code onto an ISO 4217 code.
// Codes outside the recognized list are kept when ISO 4217 knows them.
func (n *Normalizer) Currency(raw string) (string, bool) {
	key := strings.ToUpper(Text(raw))
	if key == "" {
		return "", false
	}
	if _, ok := n.recognized[key]; ok {
		return key, true
	}
	if code, ok := n.aliases[key]; ok {
		return code, true
	}
	if isoCode.MatchString(key) && money.GetCurrency(key) != nil {
		return key, true
	}
	return "", false
}

var (
	isoCode         = regexp.MustCompile(`^[A-Z]{3}$`)
	reInvoicePrefix = regexp.MustCompile(`(?i)^(?:INVOICE|INV)(?:\s*(?:NO\.?|NUMBER))?[\s\-:#.]+`)
	reHashPrefix    = regexp.MustCompile(`^#\s*`)
	reVendorSuffix  = regexp.MustCompile(`(?i)[\s,]+(?:LTD|LLC|INC|CORP|CORPORATION|CO)\.?$`)
	reTrailingPunct = regexp.MustCompile(`[\s,;:]+$`)
)

// InvoiceNumber strips INVOICE/INV/# prefixes and upper-cases the rest.
func InvoiceNumber(s string) string {
	s = Text(s)
	s = reInvoicePrefix.ReplaceAllString(s, "")
	s = reHashPrefix.ReplaceAllString(s, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// Identifier cleans a reference or contract number.
func Identifier(s string) string {
	s = reHashPrefix.ReplaceAllString(Text(s), "")
	return strings.ToUpper(reTrailingPunct.ReplaceAllString(s, ""))
}

// VendorName removes a trailing legal-form suffix (Ltd, LLC, Inc, Corp, Co).
func VendorName(s string) string {
	s = Text(s)
	cleaned := reTrailingPunct.ReplaceAllString(reVendorSuffix.ReplaceAllString(s, ""), "")
	if cleaned == "" {
		return s
	}
	return cleaned
}

func valueOf(raw extract.RawFieldMap, f constants.Field) string {
	v, _ := raw.Value(f)
	return v
}

func textPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
