package textextract

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
)

type stubRunner struct {
	stdout []byte
	err    error
	calls  int
	args   []string
}

func (s *stubRunner) Run(_ context.Context, _ string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls++
	s.args = args
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	return s.stdout, nil, nil
}

func withDecoder(text string, pages int, err error) Option {
	return func(e *Extractor) {
		e.decode = func(string) (string, int, error) { return text, pages, err }
	}
}

func TestExtractUsesEmbeddedDecoder(t *testing.T) {
	runner := &stubRunner{}
	e := NewExtractor(Config{PdfToTextPath: "pdftotext", MinTextLength: 10}, nil,
		WithRunner(runner), withDecoder("INVOICE\r\nTotal:\t\t100.00   USD\n\n\n\nThanks", 1, nil))

	res, err := e.Extract(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, "INVOICE\nTotal: 100.00 USD\n\nThanks", res.Text)
	assert.False(t, res.Insufficient)
	assert.Equal(t, 0, runner.calls)
}

func TestExtractFallsBackToPdfToText(t *testing.T) {
	runner := &stubRunner{stdout: []byte("Page one text here\fPage two text\f")}
	e := NewExtractor(Config{PdfToTextPath: "pdftotext", MinTextLength: 10}, nil,
		WithRunner(runner), withDecoder("", 0, errors.New("malformed xref")))

	res, err := e.Extract(context.Background(), "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, MethodPdfToText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Page one text here\n\nPage two text", res.Text)
	assert.Equal(t, "b.pdf", runner.args[len(runner.args)-2])
	assert.Contains(t, res.Warnings, "malformed xref")
}

func TestExtractInsufficientText(t *testing.T) {
	runner := &stubRunner{stdout: []byte("  ")}
	e := NewExtractor(Config{PdfToTextPath: "pdftotext", MinTextLength: 10}, nil,
		WithRunner(runner), withDecoder("scan", 1, nil))

	res, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.True(t, res.Insufficient)
	assert.Equal(t, "scan", res.Text)
	assert.Equal(t, 1, runner.calls)
}

func TestExtractUnreadable(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(Config{PdfToTextPath: "pdftotext", MinTextLength: 10}, nil,
		WithRunner(runner), withDecoder("", 0, errors.New("not a pdf")))

	_, err := e.Extract(context.Background(), "junk.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnreadable)
}

func TestExtractRealDecoderOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a pdf"), 0o600))

	e := NewExtractor(Config{MinTextLength: 10}, nil)
	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, common.ErrUnreadable)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "a b\nc", Clean("  a    b  \r\nc \n"))
}
