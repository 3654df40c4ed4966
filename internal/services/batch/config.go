package batch

import (
	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/normalize"
	"github.com/joseph-ayodele/docextract/internal/core/pipeline"
	"github.com/joseph-ayodele/docextract/internal/core/validate"
	"github.com/joseph-ayodele/docextract/internal/textextract"
)

// CoreConfigs derives the per-stage configs from the application config.
func CoreConfigs(cfg common.Config) (normalize.Config, validate.Config, pipeline.Config) {
	nc := normalize.Config{
		SnapshotLength:       cfg.Extraction.SnapshotLength,
		RecognizedCurrencies: cfg.Validation.RecognizedCurrencies,
		CurrencyAliases:      cfg.Validation.CurrencyAliases,
		DateLayouts:          cfg.Extraction.DateLayouts,
	}

	required := make([]constants.Field, 0, len(cfg.Validation.RequiredFields))
	for _, f := range cfg.Validation.RequiredFields {
		required = append(required, constants.Field(f))
	}
	severities := make(map[string]constants.Severity, len(cfg.Validation.SeverityOverrides)+1)
	if cfg.Validation.NegativeAmountCritical {
		severities[validate.RuleAmountNegative] = constants.SeverityCritical
	}
	for rule, sev := range cfg.Validation.SeverityOverrides {
		severities[rule] = constants.Severity(sev)
	}
	vc := validate.Config{
		RequiredFields:       required,
		RecognizedCurrencies: cfg.Validation.RecognizedCurrencies,
		CriticalWeight:       cfg.Validation.CriticalWeight,
		NonCriticalWeight:    cfg.Validation.NonCriticalWeight,
		PassThreshold:        cfg.Validation.PassThreshold,
		Severities:           severities,
	}

	pc := pipeline.Config{
		Workers:         cfg.Pipeline.Workers,
		DocumentTimeout: cfg.Pipeline.DocumentTimeout,
		Deduplicate:     cfg.Pipeline.Deduplicate,
	}
	return nc, vc, pc
}

// TextConfig derives the PDF decoding config.
func TextConfig(cfg common.Config) textextract.Config {
	return textextract.Config{
		PdfToTextPath: cfg.Extraction.PdfToTextPath,
		MinTextLength: cfg.Extraction.MinTextLength,
	}
}
