package export

import (
	"math"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Report is the batch-level validation summary.
type Report struct {
	TotalProcessed     int           `json:"total_processed"`
	Passed             int           `json:"passed"`
	Partial            int           `json:"partial"`
	Failed             int           `json:"failed"`
	Duplicates         int           `json:"duplicates"`
	MissingFieldsCount int           `json:"missing_fields_count"`
	DateErrorsCount    int           `json:"date_errors_count"`
	NumericErrorsCount int           `json:"numeric_errors_count"`
	ExtractionFailures int           `json:"extraction_failures"`
	AverageScore       float64       `json:"average_score"`
	ErrorDetails       []ErrorDetail `json:"error_details"`
	GeneratedAt        string        `json:"generated_at"`
}

// ErrorDetail lists what went wrong with one document.
type ErrorDetail struct {
	SourceFileName string             `json:"source_file_name"`
	DocumentID     string             `json:"document_id"`
	Status         string             `json:"validation_status"`
	Violations     []entity.Violation `json:"violations"`
	MissingFields  []string           `json:"missing_fields"`
	Failures       []entity.Failure   `json:"failures"`
}

// BuildReport aggregates processed documents into a Report.
// A document counts once per category no matter how many issues it has.
func BuildReport(docs []entity.ProcessedDocument, now time.Time) Report {
	r := Report{
		TotalProcessed: len(docs),
		ErrorDetails:   []ErrorDetail{},
		GeneratedAt:    now.UTC().Format(time.RFC3339),
	}

	var sum float64
	for _, d := range docs {
		switch d.Validation.Status {
		case constants.StatusPassed:
			r.Passed++
		case constants.StatusPartial:
			r.Partial++
		default:
			r.Failed++
		}
		if d.Dedup.IsDuplicate {
			r.Duplicates++
		}
		if len(d.Validation.MissingFields) > 0 {
			r.MissingFieldsCount++
		}
		if touches(d, "date") {
			r.DateErrorsCount++
		}
		if touches(d, "amount") {
			r.NumericErrorsCount++
		}
		if d.ExtractionFailed() {
			r.ExtractionFailures++
		}
		sum += d.Validation.Score

		if len(d.Validation.Violations) > 0 || len(d.Failures) > 0 {
			missing := d.Validation.MissingFields
			if missing == nil {
				missing = []string{}
			}
			r.ErrorDetails = append(r.ErrorDetails, ErrorDetail{
				SourceFileName: d.Record.SourceFileName,
				DocumentID:     d.Record.DocumentID.String(),
				Status:         string(d.Validation.Status),
				Violations:     nonNil(d.Validation.Violations),
				MissingFields:  missing,
				Failures:       nonNil(d.Failures),
			})
		}
	}
	if len(docs) > 0 {
		r.AverageScore = math.Round(sum/float64(len(docs))*100) / 100
	}
	return r
}

// touches reports whether a violation or failure names a field containing part.
func touches(d entity.ProcessedDocument, part string) bool {
	for _, v := range d.Validation.Violations {
		if strings.Contains(v.Field, part) {
			return true
		}
	}
	for _, f := range d.Failures {
		if f.Kind == constants.FailureNormalization && strings.Contains(f.Field, part) {
			return true
		}
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
