package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docextract/constants"
)

// Config holds all application configuration
type Config struct {
	Input      InputConfig
	Output     OutputConfig
	Pipeline   PipelineConfig
	Extraction ExtractionConfig
	Validation ValidationConfig
	Store      StoreConfig
	Daemon     DaemonConfig
	Debug      bool
}

// InputConfig describes where source PDFs are read from
type InputConfig struct {
	Dir       string
	Recursive bool
}

// OutputConfig describes where and how results are written
type OutputConfig struct {
	Dir     string
	Formats []string
	DryRun  bool
}

// PipelineConfig holds batch driver settings
type PipelineConfig struct {
	Workers         int
	DocumentTimeout time.Duration
	Deduplicate     bool
}

// ExtractionConfig holds text and field extraction settings
type ExtractionConfig struct {
	MinTextLength  int
	SnapshotLength int
	PdfToTextPath  string
	DateLayouts    []string // extra Go layouts tried after the built-in ones
}

// ValidationConfig holds validator rules and scoring weights
type ValidationConfig struct {
	RequiredFields         []string
	RecognizedCurrencies   []string
	CurrencyAliases        map[string]string
	CriticalWeight         float64
	NonCriticalWeight      float64
	PassThreshold          float64
	NegativeAmountCritical bool
	SeverityOverrides      map[string]string // rule id -> critical | non_critical
}

// StoreConfig holds database-related configuration
type StoreConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DaemonConfig holds watch-mode settings
type DaemonConfig struct {
	GRPCAddr     string
	MetricsAddr  string
	Debounce     time.Duration
	QueueSize    int
	QueueWorkers int
	JobTimeout   time.Duration
}

// Output format names accepted in OutputConfig.Formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Severity names accepted in ValidationConfig.SeverityOverrides.
const (
	SeverityCritical    = string(constants.SeverityCritical)
	SeverityNonCritical = string(constants.SeverityNonCritical)
)

// DefaultCurrencyAliases maps symbols and currency names to ISO 4217 codes.
// Keys are matched upper-cased.
var DefaultCurrencyAliases = map[string]string{
	"$":        "USD",
	"US$":      "USD",
	"DOLLAR":   "USD",
	"DOLLARS":  "USD",
	"€":        "EUR",
	"EURO":     "EUR",
	"EUROS":    "EUR",
	"£":        "GBP",
	"POUND":    "GBP",
	"POUNDS":   "GBP",
	"STERLING": "GBP",
	"¥":        "JPY",
	"YEN":      "JPY",
	"₹":        "INR",
	"RS.":      "INR",
	"RUPEE":    "INR",
	"RUPEES":   "INR",
	"R$":       "BRL",
	"REAL":     "BRL",
	"REAIS":    "BRL",
	"C$":       "CAD",
	"CA$":      "CAD",
	"A$":       "AUD",
	"AU$":      "AUD",
	"FRANC":    "CHF",
	"FRANCS":   "CHF",
	"RMB":      "CNY",
	"YUAN":     "CNY",
	"元":        "CNY",
}

// DefaultRecognizedCurrencies are the ISO codes accepted by default.
var DefaultRecognizedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "CNY", "INR", "BRL"}

// Default returns the built-in configuration before file and env overrides.
func Default() *Config {
	required := make([]string, len(constants.DefaultRequiredFields))
	for i, f := range constants.DefaultRequiredFields {
		required[i] = string(f)
	}
	aliases := make(map[string]string, len(DefaultCurrencyAliases))
	for k, v := range DefaultCurrencyAliases {
		aliases[k] = v
	}

	return &Config{
		Input: InputConfig{
			Dir: "./input_pdfs",
		},
		Output: OutputConfig{
			Dir:     "./output",
			Formats: []string{FormatJSON, FormatXLSX, FormatCSV},
		},
		Pipeline: PipelineConfig{
			Workers:         4,
			DocumentTimeout: 10 * time.Second,
			Deduplicate:     true,
		},
		Extraction: ExtractionConfig{
			MinTextLength:  constants.DefaultMinTextLength,
			SnapshotLength: constants.DefaultSnapshotLength,
			PdfToTextPath:  "pdftotext",
		},
		Validation: ValidationConfig{
			RequiredFields:       required,
			RecognizedCurrencies: append([]string(nil), DefaultRecognizedCurrencies...),
			CurrencyAliases:      aliases,
			CriticalWeight:       0.25,
			NonCriticalWeight:    0.15,
			PassThreshold:        0.9,
			SeverityOverrides:    map[string]string{},
		},
		Store: StoreConfig{
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Daemon: DaemonConfig{
			GRPCAddr:     ":8080",
			MetricsAddr:  ":9090",
			Debounce:     2 * time.Second,
			QueueSize:    16,
			QueueWorkers: 1,
			JobTimeout:   10 * time.Minute,
		},
	}
}

// LoadConfig builds the configuration: defaults, then .env, then the optional
// TOML/YAML file at path, then environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "failed to load .env", err)
	}

	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Input.Dir = getEnv("INPUT_DIR", c.Input.Dir)
	c.Input.Recursive = getEnvAsBool("INPUT_RECURSIVE", c.Input.Recursive)

	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)
	c.Output.Formats = getEnvAsList("OUTPUT_FORMATS", c.Output.Formats)
	c.Output.DryRun = getEnvAsBool("DRY_RUN", c.Output.DryRun)

	c.Pipeline.Workers = getEnvAsInt("WORKERS", c.Pipeline.Workers)
	c.Pipeline.DocumentTimeout = getEnvAsDuration("DOCUMENT_TIMEOUT", c.Pipeline.DocumentTimeout)
	c.Pipeline.Deduplicate = getEnvAsBool("DEDUPLICATE", c.Pipeline.Deduplicate)

	c.Extraction.MinTextLength = getEnvAsInt("MIN_TEXT_LENGTH", c.Extraction.MinTextLength)
	c.Extraction.SnapshotLength = getEnvAsInt("SNAPSHOT_LENGTH", c.Extraction.SnapshotLength)
	c.Extraction.PdfToTextPath = getEnv("PDFTOTEXT_PATH", c.Extraction.PdfToTextPath)
	c.Extraction.DateLayouts = getEnvAsList("DATE_LAYOUTS", c.Extraction.DateLayouts)

	c.Validation.RequiredFields = getEnvAsList("REQUIRED_FIELDS", c.Validation.RequiredFields)
	c.Validation.RecognizedCurrencies = getEnvAsList("RECOGNIZED_CURRENCIES", c.Validation.RecognizedCurrencies)
	c.Validation.CriticalWeight = getEnvAsFloat64("CRITICAL_WEIGHT", c.Validation.CriticalWeight)
	c.Validation.NonCriticalWeight = getEnvAsFloat64("NON_CRITICAL_WEIGHT", c.Validation.NonCriticalWeight)
	c.Validation.PassThreshold = getEnvAsFloat64("PASS_THRESHOLD", c.Validation.PassThreshold)
	c.Validation.NegativeAmountCritical = getEnvAsBool("NEGATIVE_AMOUNT_CRITICAL", c.Validation.NegativeAmountCritical)

	c.Store.DSN = getEnv("DB_URL", c.Store.DSN)
	c.Store.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Store.MaxConns)
	c.Store.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Store.MinConns)
	c.Store.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Store.MaxConnLifetime)
	c.Store.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Store.MaxConnIdleTime)
	c.Store.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Store.DialTimeout)
	c.Store.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Store.StatementTimeout)

	c.Daemon.GRPCAddr = getEnv("GRPC_ADDR", c.Daemon.GRPCAddr)
	c.Daemon.MetricsAddr = getEnv("METRICS_ADDR", c.Daemon.MetricsAddr)
	c.Daemon.Debounce = getEnvAsDuration("WATCH_DEBOUNCE", c.Daemon.Debounce)
	c.Daemon.QueueSize = getEnvAsInt("QUEUE_SIZE", c.Daemon.QueueSize)
	c.Daemon.QueueWorkers = getEnvAsInt("QUEUE_WORKERS", c.Daemon.QueueWorkers)
	c.Daemon.JobTimeout = getEnvAsDuration("JOB_TIMEOUT", c.Daemon.JobTimeout)

	c.Debug = getEnvAsBool("DEBUG", c.Debug)
}

// fileConfig mirrors Config for TOML/YAML decoding. Durations are strings
// ("10s") and optional scalars are pointers so absent keys keep defaults.
type fileConfig struct {
	Input struct {
		Dir       string `toml:"dir" yaml:"dir"`
		Recursive *bool  `toml:"recursive" yaml:"recursive"`
	} `toml:"input" yaml:"input"`
	Output struct {
		Dir     string   `toml:"dir" yaml:"dir"`
		Formats []string `toml:"formats" yaml:"formats"`
		DryRun  *bool    `toml:"dry_run" yaml:"dry_run"`
	} `toml:"output" yaml:"output"`
	Pipeline struct {
		Workers         int    `toml:"workers" yaml:"workers"`
		DocumentTimeout string `toml:"document_timeout" yaml:"document_timeout"`
		Deduplicate     *bool  `toml:"deduplicate" yaml:"deduplicate"`
	} `toml:"pipeline" yaml:"pipeline"`
	Extraction struct {
		MinTextLength  *int     `toml:"min_text_length" yaml:"min_text_length"`
		SnapshotLength int      `toml:"snapshot_length" yaml:"snapshot_length"`
		PdfToTextPath  string   `toml:"pdftotext_path" yaml:"pdftotext_path"`
		DateLayouts    []string `toml:"date_layouts" yaml:"date_layouts"`
	} `toml:"extraction" yaml:"extraction"`
	Validation struct {
		RequiredFields         []string          `toml:"required_fields" yaml:"required_fields"`
		RecognizedCurrencies   []string          `toml:"recognized_currencies" yaml:"recognized_currencies"`
		CurrencyAliases        map[string]string `toml:"currency_aliases" yaml:"currency_aliases"`
		CriticalWeight         *float64          `toml:"critical_weight" yaml:"critical_weight"`
		NonCriticalWeight      *float64          `toml:"non_critical_weight" yaml:"non_critical_weight"`
		PassThreshold          *float64          `toml:"pass_threshold" yaml:"pass_threshold"`
		NegativeAmountCritical *bool             `toml:"negative_amount_critical" yaml:"negative_amount_critical"`
		SeverityOverrides      map[string]string `toml:"severity_overrides" yaml:"severity_overrides"`
	} `toml:"validation" yaml:"validation"`
	Store struct {
		DSN              string `toml:"dsn" yaml:"dsn"`
		MaxConns         int32  `toml:"max_conns" yaml:"max_conns"`
		MinConns         int32  `toml:"min_conns" yaml:"min_conns"`
		MaxConnLifetime  string `toml:"max_conn_lifetime" yaml:"max_conn_lifetime"`
		MaxConnIdleTime  string `toml:"max_conn_idle_time" yaml:"max_conn_idle_time"`
		DialTimeout      string `toml:"dial_timeout" yaml:"dial_timeout"`
		StatementTimeout string `toml:"statement_timeout" yaml:"statement_timeout"`
	} `toml:"store" yaml:"store"`
	Daemon struct {
		GRPCAddr     string `toml:"grpc_addr" yaml:"grpc_addr"`
		MetricsAddr  string `toml:"metrics_addr" yaml:"metrics_addr"`
		Debounce     string `toml:"debounce" yaml:"debounce"`
		QueueSize    int    `toml:"queue_size" yaml:"queue_size"`
		QueueWorkers int    `toml:"queue_workers" yaml:"queue_workers"`
		JobTimeout   string `toml:"job_timeout" yaml:"job_timeout"`
	} `toml:"daemon" yaml:"daemon"`
	Debug *bool `toml:"debug" yaml:"debug"`
}

func loadFile(path string, c *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "failed to read config file", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &fc)
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unsupported config file extension %q", filepath.Ext(path)), ErrInvalidInput)
	}
	if err != nil {
		return NewAppError(CodeConfig, "failed to decode config file", err)
	}
	return fc.apply(c)
}

func (fc *fileConfig) apply(c *Config) error {
	setString(&c.Input.Dir, fc.Input.Dir)
	setBool(&c.Input.Recursive, fc.Input.Recursive)

	setString(&c.Output.Dir, fc.Output.Dir)
	setList(&c.Output.Formats, fc.Output.Formats)
	setBool(&c.Output.DryRun, fc.Output.DryRun)

	setInt(&c.Pipeline.Workers, fc.Pipeline.Workers)
	setBool(&c.Pipeline.Deduplicate, fc.Pipeline.Deduplicate)

	if fc.Extraction.MinTextLength != nil {
		c.Extraction.MinTextLength = *fc.Extraction.MinTextLength
	}
	setInt(&c.Extraction.SnapshotLength, fc.Extraction.SnapshotLength)
	setString(&c.Extraction.PdfToTextPath, fc.Extraction.PdfToTextPath)
	setList(&c.Extraction.DateLayouts, fc.Extraction.DateLayouts)

	setList(&c.Validation.RequiredFields, fc.Validation.RequiredFields)
	setList(&c.Validation.RecognizedCurrencies, fc.Validation.RecognizedCurrencies)
	for k, v := range fc.Validation.CurrencyAliases {
		c.Validation.CurrencyAliases[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	setFloat(&c.Validation.CriticalWeight, fc.Validation.CriticalWeight)
	setFloat(&c.Validation.NonCriticalWeight, fc.Validation.NonCriticalWeight)
	setFloat(&c.Validation.PassThreshold, fc.Validation.PassThreshold)
	setBool(&c.Validation.NegativeAmountCritical, fc.Validation.NegativeAmountCritical)
	for k, v := range fc.Validation.SeverityOverrides {
		c.Validation.SeverityOverrides[k] = v
	}

	setString(&c.Store.DSN, fc.Store.DSN)
	if fc.Store.MaxConns > 0 {
		c.Store.MaxConns = fc.Store.MaxConns
	}
	if fc.Store.MinConns > 0 {
		c.Store.MinConns = fc.Store.MinConns
	}

	setString(&c.Daemon.GRPCAddr, fc.Daemon.GRPCAddr)
	setString(&c.Daemon.MetricsAddr, fc.Daemon.MetricsAddr)
	setInt(&c.Daemon.QueueSize, fc.Daemon.QueueSize)
	setInt(&c.Daemon.QueueWorkers, fc.Daemon.QueueWorkers)

	setBool(&c.Debug, fc.Debug)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"pipeline.document_timeout", fc.Pipeline.DocumentTimeout, &c.Pipeline.DocumentTimeout},
		{"store.max_conn_lifetime", fc.Store.MaxConnLifetime, &c.Store.MaxConnLifetime},
		{"store.max_conn_idle_time", fc.Store.MaxConnIdleTime, &c.Store.MaxConnIdleTime},
		{"store.dial_timeout", fc.Store.DialTimeout, &c.Store.DialTimeout},
		{"store.statement_timeout", fc.Store.StatementTimeout, &c.Store.StatementTimeout},
		{"daemon.debounce", fc.Daemon.Debounce, &c.Daemon.Debounce},
		{"daemon.job_timeout", fc.Daemon.JobTimeout, &c.Daemon.JobTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return NewAppError(CodeConfig, fmt.Sprintf("invalid duration for %s", d.key), err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	fields := constants.ExtractableFields
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = string(f)
	}

	v := NewValidator().
		Field("pipeline.workers", c.Pipeline.Workers, Positive).
		Field("extraction.snapshot_length", c.Extraction.SnapshotLength, Positive).
		Field("validation.recognized_currencies", c.Validation.RecognizedCurrencies, Required, CurrencyCodes).
		Field("validation.critical_weight", c.Validation.CriticalWeight, Between(0, 1)).
		Field("validation.non_critical_weight", c.Validation.NonCriticalWeight, Between(0, 1)).
		Field("validation.pass_threshold", c.Validation.PassThreshold, Between(0, 1))

	if c.Extraction.MinTextLength < 0 {
		v.errors = append(v.errors, ValidationError{
			Field: "extraction.min_text_length", Value: c.Extraction.MinTextLength, Message: "must not be negative",
		})
	}
	for _, f := range c.Output.Formats {
		v.Field("output.formats", f, OneOf(FormatJSON, FormatXLSX, FormatCSV))
	}
	for _, f := range c.Validation.RequiredFields {
		v.Field("validation.required_fields", f, OneOf(fieldNames...))
	}
	for alias, code := range c.Validation.CurrencyAliases {
		v.Field("validation.currency_aliases."+alias, code, CurrencyCode)
	}
	for rule, sev := range c.Validation.SeverityOverrides {
		v.Field("validation.severity_overrides."+rule, sev, OneOf(SeverityCritical, SeverityNonCritical))
	}

	return v.AsAppError(CodeConfig)
}
