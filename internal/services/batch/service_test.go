package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/normalize"
	"github.com/joseph-ayodele/docextract/internal/core/validate"
	"github.com/joseph-ayodele/docextract/internal/metrics"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/textextract"
)

const invoiceText = `ABC Supplies Ltd
123 Market Street
INVOICE
Invoice Number: INV-2024-001
Invoice Date: 12/01/2025
Due Date: 12/02/2025
Bill To:
Global Tech Inc
Subtotal: $1,530.00
Tax (20%): $312.75
Total: $1,842.75
Payment Terms: Net 30
`

// stubText maps base file names to decoded text.
type stubText map[string]textextract.Result

func (s stubText) Extract(_ context.Context, path string) (textextract.Result, error) {
	r, ok := s[filepath.Base(path)]
	if !ok {
		return textextract.Result{}, errors.New("input not readable: " + path)
	}
	return r, nil
}

func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4 "+n), 0o644))
	}
	return dir
}

func testConfig(t *testing.T) common.Config {
	t.Helper()
	cfg := *common.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Pipeline.Workers = 2
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	dir := inputDir(t, "a.pdf", "b.pdf", "scan.pdf", "broken.pdf")
	text := stubText{
		"a.pdf":    {Text: invoiceText},
		"b.pdf":    {Text: invoiceText},
		"scan.pdf": {Text: "", Insufficient: true},
	}

	store, err := repository.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig(t)
	m := metrics.New()
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewService(cfg, nil,
		WithTextExtractor(text),
		WithStore(store),
		WithMetrics(m),
		WithNormalizerOptions(normalize.WithClock(func() time.Time { return fixed })),
	)
	require.NoError(t, err)

	res, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Documents, 4)
	names := []string{}
	for _, d := range res.Documents {
		names = append(names, d.Record.SourceFileName)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "broken.pdf", "scan.pdf"}, names)

	a, b := res.Documents[0], res.Documents[1]
	assert.Equal(t, constants.StatusPassed, a.Validation.Status)
	assert.False(t, a.Dedup.IsDuplicate)
	assert.True(t, b.Dedup.IsDuplicate)
	require.NotNil(t, b.Dedup.CanonicalDocumentID)
	assert.Equal(t, a.Record.DocumentID, *b.Dedup.CanonicalDocumentID)

	for _, d := range res.Documents[2:] {
		assert.Equal(t, constants.StatusFailed, d.Validation.Status)
		require.NotEmpty(t, d.Failures)
		assert.Equal(t, constants.FailureText, d.Failures[0].Kind)
	}
	assert.Equal(t, textextract.InsufficientTextMessage, res.Documents[3].Failures[0].Message)

	assert.Equal(t, 4, res.Report.TotalProcessed)
	assert.Equal(t, 1, res.Report.Duplicates)
	assert.Equal(t, 2, res.Report.ExtractionFailures)
	assert.Len(t, res.Files, 5)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}

	assert.Equal(t, constants.BatchStatusCompleted, res.Batch.Status)
	batches, err := store.ListBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 4, batches[0].Documents)
	stored, err := store.ListDocuments(context.Background(), res.Batch.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := inputDir(t, "a.pdf")
	cfg := testConfig(t)
	cfg.Output.DryRun = true

	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{"a.pdf": {Text: invoiceText}}))
	require.NoError(t, err)

	res, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, res.Documents, 1)
	assert.Empty(t, res.Files)

	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunInsufficientTextFlowsThroughEmpty(t *testing.T) {
	dir := inputDir(t, "short.pdf")
	cfg := testConfig(t)
	cfg.Output.DryRun = true

	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{
		"short.pdf": {Text: "INV 9 $5", Insufficient: true},
	}))
	require.NoError(t, err)

	res, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)

	d := res.Documents[0]
	assert.Empty(t, d.Record.RawTextSnapshot)
	assert.Nil(t, d.Record.InvoiceNumber)
	assert.Nil(t, d.Record.Currency)
	assert.Equal(t, constants.StatusFailed, d.Validation.Status)
	require.Len(t, d.Failures, 1)
	assert.Equal(t, textextract.InsufficientTextMessage, d.Failures[0].Message)
}

func TestRunNoDeduplication(t *testing.T) {
	dir := inputDir(t, "a.pdf", "b.pdf")
	cfg := testConfig(t)
	cfg.Output.DryRun = true
	cfg.Pipeline.Deduplicate = false

	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{"a.pdf": {Text: invoiceText}, "b.pdf": {Text: invoiceText}}))
	require.NoError(t, err)

	res, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)
	for _, d := range res.Documents {
		assert.False(t, d.Dedup.IsDuplicate)
	}
}

func TestRunMissingDirectory(t *testing.T) {
	cfg := testConfig(t)
	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{}))
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInput))
}

func TestRunFiles(t *testing.T) {
	dir := inputDir(t, "a.pdf")
	cfg := testConfig(t)
	cfg.Output.DryRun = true
	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{"a.pdf": {Text: invoiceText}}), WithClock(func() time.Time {
		return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)

	res, err := svc.RunFiles(context.Background(), []string{filepath.Join(dir, "a.pdf")})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "a.pdf", res.Documents[0].Record.SourceFileName)
	assert.Equal(t, "2025-03-01T00:00:00Z", res.Report.GeneratedAt)

	_, err = svc.RunFiles(context.Background(), nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestRunCancelled(t *testing.T) {
	dir := inputDir(t, "a.pdf", "b.pdf")
	cfg := testConfig(t)
	cfg.Output.DryRun = true
	svc, err := NewService(cfg, nil, WithTextExtractor(stubText{"a.pdf": {Text: invoiceText}, "b.pdf": {Text: invoiceText}}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := svc.Run(ctx, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	// scanning already fails on a cancelled context
	assert.Nil(t, res)
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Workers = 0
	_, err := NewService(cfg, nil)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeConfig))
}

func TestCoreConfigs(t *testing.T) {
	cfg := *common.Default()
	cfg.Validation.NegativeAmountCritical = true
	cfg.Validation.SeverityOverrides = map[string]string{validate.RuleDueBeforeIssue: common.SeverityCritical}

	nc, vc, pc := CoreConfigs(cfg)
	assert.Equal(t, cfg.Extraction.SnapshotLength, nc.SnapshotLength)
	assert.Equal(t, constants.SeverityCritical, vc.Severities[validate.RuleAmountNegative])
	assert.Equal(t, constants.SeverityCritical, vc.Severities[validate.RuleDueBeforeIssue])
	assert.Len(t, vc.RequiredFields, len(cfg.Validation.RequiredFields))
	assert.Equal(t, cfg.Pipeline.Workers, pc.Workers)
	assert.True(t, pc.Deduplicate)
}
