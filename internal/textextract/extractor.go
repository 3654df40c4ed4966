package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
)

// Methods reported in Result.Method.
const (
	MethodPDFText   = "pdf-text"
	MethodPdfToText = "pdftotext"
)

// InsufficientTextMessage is recorded for PDFs without a usable text layer.
const InsufficientTextMessage = "insufficient text (possibly scanned PDF)"

// Result is the decoded text of one PDF.
type Result struct {
	Text         string
	Pages        int
	Method       string
	Duration     time.Duration
	Insufficient bool
	Warnings     []string
}

// Config controls decoding.
type Config struct {
	PdfToTextPath string // empty disables the fallback
	MinTextLength int
}

// Extractor decodes the text layer of PDFs.
type Extractor struct {
	cfg    Config
	runner Runner
	decode func(path string) (string, int, error)
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner used for the pdftotext fallback.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextLength < 0 {
		cfg.MinTextLength = constants.DefaultMinTextLength
	}
	e := &Extractor{
		cfg:    cfg,
		runner: ExecRunner{},
		decode: decodePDF,
		logger: logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract decodes path with the embedded decoder, falling back to pdftotext
// when that fails or yields too little text. A readable PDF with too little
// text is not an error; Result.Insufficient is set instead.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Method: MethodPDFText}

	text, pages, decodeErr := e.decode(path)
	if decodeErr != nil {
		res.Warnings = append(res.Warnings, decodeErr.Error())
	}
	res.Text, res.Pages = Clean(text), pages

	if e.short(res.Text) && e.cfg.PdfToTextPath != "" {
		fbText, fbPages, err := e.pdfToText(ctx, path)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		} else if fb := Clean(fbText); decodeErr != nil || utf8.RuneCountInString(fb) > utf8.RuneCountInString(res.Text) {
			res.Text, res.Pages, res.Method = fb, fbPages, MethodPdfToText
			decodeErr = nil
		}
	}
	if decodeErr != nil && e.short(res.Text) {
		res.Duration = time.Since(start)
		e.logger.Warn("textextract.unreadable", "path", path, "error", decodeErr)
		return res, fmt.Errorf("%w: %s: %v", common.ErrUnreadable, path, decodeErr)
	}

	res.Insufficient = e.short(res.Text)
	res.Duration = time.Since(start)
	e.logger.Debug("textextract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", utf8.RuneCountInString(res.Text),
		"insufficient", res.Insufficient,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) short(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < e.cfg.MinTextLength
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.PdfToTextPath, e.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	text := string(out)
	return text, 1 + strings.Count(strings.TrimRight(text, "\f"), "\f"), nil
}

// decodePDF reads every page's plain text with the embedded decoder.
func decodePDF(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decoder panicked: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			return b.String(), pages, fmt.Errorf("page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), pages, nil
}
