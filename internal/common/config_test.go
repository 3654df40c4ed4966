package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.25, cfg.Validation.CriticalWeight)
	assert.Equal(t, 0.15, cfg.Validation.NonCriticalWeight)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.DocumentTimeout)
	assert.True(t, cfg.Pipeline.Deduplicate)
	assert.Equal(t, "USD", cfg.Validation.CurrencyAliases["$"])
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfigFile(t, "docextract.toml", `
[input]
dir = "/data/in"
recursive = true

[pipeline]
workers = 8
document_timeout = "3s"
deduplicate = false

[validation]
recognized_currencies = ["USD", "EUR"]
negative_amount_critical = true

[validation.currency_aliases]
"kr" = "sek"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.Input.Dir)
	assert.True(t, cfg.Input.Recursive)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.DocumentTimeout)
	assert.False(t, cfg.Pipeline.Deduplicate)
	assert.Equal(t, []string{"USD", "EUR"}, cfg.Validation.RecognizedCurrencies)
	assert.True(t, cfg.Validation.NegativeAmountCritical)
	assert.Equal(t, "SEK", cfg.Validation.CurrencyAliases["KR"])
	// untouched sections keep defaults
	assert.Equal(t, "./output", cfg.Output.Dir)
}

func TestLoadConfigYAMLWithEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "docextract.yaml", `
output:
  dir: /data/out
  formats: [json]
daemon:
  debounce: 500ms
`)
	t.Setenv("OUTPUT_DIR", "/env/out")
	t.Setenv("WORKERS", "2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.Output.Dir)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, 500*time.Millisecond, cfg.Daemon.Debounce)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unknown extension", file: "cfg.ini", body: "x=1"},
		{name: "bad duration", file: "cfg.toml", body: "[pipeline]\ndocument_timeout = \"soon\"\n"},
		{name: "malformed yaml", file: "cfg.yml", body: "input: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.file, tt.body))
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeConfig))
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }, "pipeline.workers"},
		{"unknown currency", func(c *Config) { c.Validation.RecognizedCurrencies = []string{"USD", "XYZ"} }, "recognized_currencies"},
		{"lowercase currency", func(c *Config) { c.Validation.RecognizedCurrencies = []string{"usd"} }, "recognized_currencies"},
		{"weight above one", func(c *Config) { c.Validation.CriticalWeight = 1.5 }, "critical_weight"},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"pdf"} }, "output.formats"},
		{"unknown required field", func(c *Config) { c.Validation.RequiredFields = []string{"colour"} }, "required_fields"},
		{"bad severity", func(c *Config) { c.Validation.SeverityOverrides["amount_negative"] = "fatal" }, "severity_overrides"},
		{"negative min text", func(c *Config) { c.Extraction.MinTextLength = -1 }, "min_text_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
