package validate

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Rule ids reported on violations.
const (
	RuleRequiredField        = "required_field"
	RuleAmountNegative       = "amount_negative"
	RuleCurrencyUnrecognized = "currency_unrecognized"
	RuleDueBeforeIssue       = "due_before_issue"
	RuleTotalNotAboveTax     = "total_not_above_tax"
)

// defaultSeverities grades each rule. required_field is always critical.
var defaultSeverities = map[string]constants.Severity{
	RuleRequiredField:        constants.SeverityCritical,
	RuleAmountNegative:       constants.SeverityNonCritical,
	RuleCurrencyUnrecognized: constants.SeverityCritical,
	RuleDueBeforeIssue:       constants.SeverityNonCritical,
	RuleTotalNotAboveTax:     constants.SeverityNonCritical,
}

// Config holds rule and scoring settings.
type Config struct {
	RequiredFields       []constants.Field
	RecognizedCurrencies []string
	CriticalWeight       float64
	NonCriticalWeight    float64
	PassThreshold        float64
	Severities           map[string]constants.Severity // per-rule overrides
}

// DefaultConfig returns the built-in rules and weights.
func DefaultConfig() Config {
	return Config{
		RequiredFields:       append([]constants.Field(nil), constants.DefaultRequiredFields...),
		RecognizedCurrencies: []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "CNY", "INR", "BRL"},
		CriticalWeight:       0.25,
		NonCriticalWeight:    0.15,
		PassThreshold:        0.9,
	}
}

// Validator scores normalized records. It is safe for concurrent use.
type Validator struct {
	cfg        Config
	recognized map[string]struct{}
	severities map[string]constants.Severity
	logger     *slog.Logger
}

// New creates a Validator.
func New(cfg Config, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{
		cfg:        cfg,
		recognized: make(map[string]struct{}, len(cfg.RecognizedCurrencies)),
		severities: make(map[string]constants.Severity, len(defaultSeverities)),
		logger:     logger,
	}
	for _, c := range cfg.RecognizedCurrencies {
		v.recognized[strings.ToUpper(c)] = struct{}{}
	}
	for rule, sev := range defaultSeverities {
		v.severities[rule] = sev
	}
	for rule, sev := range cfg.Severities {
		if rule == RuleRequiredField {
			continue
		}
		v.severities[rule] = sev
	}
	return v
}

// Validate applies required-field, format and cross-field rules and scores
// the record. It uses only the record's own values.
func (v *Validator) Validate(rec entity.NormalizedRecord) entity.ValidationOutcome {
	out := entity.ValidationOutcome{
		Violations:    []entity.Violation{},
		MissingFields: []string{},
	}
	add := func(rule string, field constants.Field, msg string) {
		out.Violations = append(out.Violations, entity.Violation{
			RuleID:   rule,
			Field:    string(field),
			Message:  msg,
			Severity: v.severities[rule],
		})
	}

	for _, f := range v.cfg.RequiredFields {
		if !rec.Has(f) {
			out.MissingFields = append(out.MissingFields, string(f))
			add(RuleRequiredField, f, fmt.Sprintf("%s is required", f))
		}
	}

	if rec.TotalAmount != nil && rec.TotalAmount.IsNegative() {
		add(RuleAmountNegative, constants.FieldTotalAmount,
			fmt.Sprintf("total_amount is negative: %s", rec.TotalAmount.String()))
	}
	if rec.TaxAmount != nil && rec.TaxAmount.IsNegative() {
		add(RuleAmountNegative, constants.FieldTaxAmount,
			fmt.Sprintf("tax_amount is negative: %s", rec.TaxAmount.String()))
	}
	if rec.Currency != nil && !v.recognizedCurrency(*rec.Currency) {
		add(RuleCurrencyUnrecognized, constants.FieldCurrency,
			fmt.Sprintf("currency %s is not a recognized ISO 4217 code", *rec.Currency))
	}

	if rec.IssueDate != nil && rec.DueDate != nil && !rec.DueDate.After(*rec.IssueDate) {
		add(RuleDueBeforeIssue, constants.FieldDueDate,
			fmt.Sprintf("due_date %s is not after issue_date %s",
				rec.DueDate.Format(constants.DateLayout), rec.IssueDate.Format(constants.DateLayout)))
	}
	if rec.TotalAmount != nil && rec.TaxAmount != nil && !rec.TotalAmount.GreaterThan(*rec.TaxAmount) {
		add(RuleTotalNotAboveTax, constants.FieldTotalAmount,
			fmt.Sprintf("total_amount %s is not greater than tax_amount %s",
				rec.TotalAmount.String(), rec.TaxAmount.String()))
	}

	out.Score = v.score(out.Violations)
	switch {
	case out.HasCritical():
		out.Status = constants.StatusFailed
	case out.Score >= v.cfg.PassThreshold:
		out.Status = constants.StatusPassed
	default:
		out.Status = constants.StatusPartial
	}

	v.logger.Debug("validate.ok",
		"document_id", rec.DocumentID.String(),
		"status", string(out.Status),
		"score", out.Score,
		"violations", len(out.Violations),
	)
	return out
}

func (v *Validator) recognizedCurrency(code string) bool {
	code = strings.ToUpper(code)
	if _, ok := v.recognized[code]; !ok {
		return false
	}
	return money.GetCurrency(code) != nil
}

// score starts at 1, subtracts the weight of each violation, floors at 0 and
// rounds to two decimals.
func (v *Validator) score(violations []entity.Violation) float64 {
	s := 1.0
	for _, viol := range violations {
		if viol.Severity == constants.SeverityCritical {
			s -= v.cfg.CriticalWeight
		} else {
			s -= v.cfg.NonCriticalWeight
		}
	}
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return math.Round(s*100) / 100
}
