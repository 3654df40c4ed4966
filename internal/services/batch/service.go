package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/extract"
	"github.com/joseph-ayodele/docextract/internal/core/normalize"
	"github.com/joseph-ayodele/docextract/internal/core/pipeline"
	"github.com/joseph-ayodele/docextract/internal/core/validate"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/metrics"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/textextract"
)

// TextExtractor decodes the text layer of one PDF.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (textextract.Result, error)
}

// Result is the outcome of one batch run.
type Result struct {
	Batch     entity.Batch
	Documents []entity.ProcessedDocument
	Report    export.Report
	Files     []string // written output files, empty on dry runs
}

// Service runs whole batches: scan, decode, process, report, export, store.
type Service struct {
	cfg      common.Config
	scanner  *ingest.Scanner
	text     TextExtractor
	pipeline *pipeline.Pipeline
	writer   *export.Writer
	store    repository.Store
	metrics  *metrics.Metrics
	normOpts []normalize.Option
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithStore persists batches and documents to s.
func WithStore(s repository.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithMetrics records per-document and per-batch metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithTextExtractor replaces the PDF decoder.
func WithTextExtractor(t TextExtractor) Option {
	return func(svc *Service) { svc.text = t }
}

// WithClock sets the clock used for batch and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// WithNormalizerOptions forwards options to the normalizer.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(svc *Service) { svc.normOpts = append(svc.normOpts, opts...) }
}

// NewService validates cfg and wires the batch stages.
func NewService(cfg common.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		scanner: ingest.NewScanner(logger),
		now:     time.Now,
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	if s.text == nil {
		s.text = textextract.NewExtractor(TextConfig(cfg), logger)
	}

	nc, vc, pc := CoreConfigs(cfg)
	var pipeOpts []pipeline.Option
	if s.metrics != nil {
		pipeOpts = append(pipeOpts, pipeline.WithObserver(s.metrics.ObserveDocument))
	}
	s.pipeline = pipeline.New(pc,
		extract.New(logger),
		normalize.New(nc, logger, s.normOpts...),
		validate.New(vc, logger),
		logger,
		pipeOpts...,
	)

	if !cfg.Output.DryRun {
		w, err := export.NewWriter(cfg.Output.Dir, cfg.Output.Formats, logger)
		if err != nil {
			return nil, err
		}
		s.writer = w
	}
	return s, nil
}

// Run processes every PDF in dir. Only an unreadable directory is an error
// before processing starts.
func (s *Service) Run(ctx context.Context, dir string) (*Result, error) {
	files, stats, err := s.scanner.Scan(ctx, dir, ingest.ScanOptions{
		Recursive:  s.cfg.Input.Recursive,
		SkipHidden: true,
	})
	if err != nil {
		s.logger.Error("batch.scan.failed", "input_dir", dir, "error", err)
		return nil, err
	}
	if stats.Matched == 0 {
		s.logger.Warn("batch.scan.empty", "input_dir", dir)
	}
	return s.process(ctx, dir, files)
}

// RunFiles processes an explicit list of PDFs, as delivered by the watcher.
func (s *Service) RunFiles(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, common.NewAppError(common.CodeInput, "no input files", common.ErrInvalidInput)
	}
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		files = append(files, ingest.FileAt(p))
	}
	return s.process(ctx, "", files)
}

func (s *Service) process(ctx context.Context, dir string, files []ingest.File) (*Result, error) {
	start := time.Now()
	b := entity.Batch{
		ID:        uuid.New(),
		InputDir:  dir,
		StartedAt: s.now().UTC(),
		Status:    constants.BatchStatusRunning,
	}
	ctx = common.WithBatchID(ctx, b.ID.String())
	log := s.logger.With("batch_id", b.ID.String())
	log.Info("batch.start", "input_dir", dir, "files", len(files))

	if s.store != nil {
		if err := s.store.StartBatch(ctx, b); err != nil {
			return nil, err
		}
	}

	docs := s.loadTexts(ctx, files)
	processed, runErr := s.pipeline.Process(ctx, docs)

	b.Status = constants.BatchStatusCompleted
	if runErr != nil {
		b.Status = constants.BatchStatusAborted
	}
	finished := s.now().UTC()
	b.FinishedAt = &finished
	b.Documents = len(processed)

	res := &Result{
		Batch:     b,
		Documents: processed,
		Report:    export.BuildReport(processed, finished),
	}

	// persisting runs on a fresh context so an aborted batch still records
	// what finished
	persistCtx := context.WithoutCancel(ctx)
	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if s.writer != nil {
		paths, err := s.writer.Write(processed, res.Report)
		res.Files = paths
		if err != nil {
			log.Error("batch.export.failed", "error", err)
			errs = append(errs, err)
		}
	} else {
		log.Info("batch.export.skipped", "reason", "dry run")
	}
	if s.store != nil {
		if err := s.store.SaveDocuments(persistCtx, b.ID, processed); err != nil {
			log.Error("batch.store.failed", "error", err)
			errs = append(errs, err)
		}
		if err := s.store.FinishBatch(persistCtx, b.ID, b.Status, finished, b.Documents); err != nil {
			log.Error("batch.store.failed", "error", err)
			errs = append(errs, err)
		}
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveBatch(string(b.Status), res.Report.Duplicates, elapsed)
	}
	r := res.Report
	log.Info("batch.done",
		"status", string(b.Status),
		"total", r.TotalProcessed,
		"passed", r.Passed,
		"partial", r.Partial,
		"failed", r.Failed,
		"duplicates", r.Duplicates,
		"average_score", r.AverageScore,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return res, errors.Join(errs...)
}

// loadTexts decodes every file in parallel, keeping input order. Unreadable
// files and PDFs without a usable text layer become documents with a TEXT
// failure instead of errors.
func (s *Service) loadTexts(ctx context.Context, files []ingest.File) []pipeline.Document {
	docs := make([]pipeline.Document, len(files))
	var (
		g  errgroup.Group
		mu sync.Mutex
		// counted for the log line only
		insufficient int
	)
	g.SetLimit(max(1, s.cfg.Pipeline.Workers))
	for i, f := range files {
		g.Go(func() error {
			doc := pipeline.Document{SourceFileName: f.Name}
			switch {
			case f.Err != nil:
				doc.Failures = []entity.Failure{{Kind: constants.FailureText, Message: fmt.Sprintf("unreadable file: %v", f.Err)}}
			case ctx.Err() != nil:
				doc.Failures = []entity.Failure{{Kind: constants.FailureText, Message: ctx.Err().Error()}}
			default:
				res, err := s.text.Extract(ctx, f.Path)
				if err != nil {
					doc.Failures = []entity.Failure{{Kind: constants.FailureText, Message: err.Error()}}
					break
				}
				if !res.Insufficient {
					doc.Text = res.Text
					break
				}
				doc.Failures = []entity.Failure{{Kind: constants.FailureText, Message: textextract.InsufficientTextMessage}}
				mu.Lock()
				insufficient++
				mu.Unlock()
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()
	if insufficient > 0 {
		s.logger.Warn("batch.text.insufficient", "documents", insufficient)
	}
	return docs
}
