package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Extractor applies an ordered matcher table to document text.
type Extractor struct {
	table  []FieldMatchers
	logger *slog.Logger
}

// New creates an Extractor over the built-in matcher table.
func New(logger *slog.Logger) *Extractor {
	return NewWithTable(defaultTable, logger)
}

// NewWithTable creates an Extractor over a custom table. The table must not
// be modified afterwards.
func NewWithTable(table []FieldMatchers, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{table: table, logger: logger}
}

// Extract runs every field's matchers; the first non-empty match wins.
// Matcher panics are recovered and leave the field absent.
func (e *Extractor) Extract(text string) RawFieldMap {
	m, _, _ := e.ExtractContext(context.Background(), text)
	return m
}

// ExtractContext is Extract with cancellation checked between fields. On
// cancellation it returns the fields found so far and ctx.Err(). Recovered
// matcher panics are returned as EXTRACTION failures.
func (e *Extractor) ExtractContext(ctx context.Context, text string) (RawFieldMap, []entity.Failure, error) {
	found := make(map[constants.Field]RawField, len(e.table))
	var failures []entity.Failure

	for _, fm := range e.table {
		if err := ctx.Err(); err != nil {
			return NewRawFieldMap(found), failures, err
		}
		for _, m := range fm.Matchers {
			match, ok, perr := safeMatch(m, text)
			if perr != nil {
				e.logger.Warn("extract.matcher.panic",
					"field", string(fm.Field),
					"matcher", m.ID(),
					"error", perr,
				)
				failures = append(failures, entity.Failure{
					Kind:    constants.FailureExtraction,
					Field:   string(fm.Field),
					Message: perr.Error(),
				})
				continue
			}
			if !ok || match.Value == "" {
				continue
			}
			found[fm.Field] = RawField{
				Value: match.Value,
				Provenance: entity.Provenance{
					MatcherID: m.ID(),
					Kind:      string(m.Kind()),
					Offset:    match.Offset,
				},
			}
			break
		}
	}

	out := NewRawFieldMap(found)
	e.logger.Debug("extract.ok", "fields", out.Len(), "failures", len(failures))
	return out, failures, nil
}

func safeMatch(m Matcher, text string) (match Match, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("matcher %s panicked: %v", m.ID(), r)
			ok = false
		}
	}()
	match, ok = m.Match(text)
	return match, ok, nil
}
