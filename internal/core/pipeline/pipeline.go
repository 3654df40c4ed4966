package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core/dedup"
	"github.com/joseph-ayodele/docextract/internal/core/extract"
	"github.com/joseph-ayodele/docextract/internal/core/normalize"
	"github.com/joseph-ayodele/docextract/internal/core/validate"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Document is one input to the pipeline: decoded text plus any failures
// recorded while decoding it.
type Document struct {
	SourceFileName string
	Text           string
	Failures       []entity.Failure
}

// Config controls batch concurrency and limits.
type Config struct {
	Workers         int
	DocumentTimeout time.Duration
	Deduplicate     bool
}

// Observer is notified after each document finishes validation.
type Observer func(doc entity.ProcessedDocument, elapsed time.Duration)

// Pipeline runs Extract → Normalize → Validate per document in parallel,
// then deduplicates the batch.
type Pipeline struct {
	cfg        Config
	extractor  *extract.Extractor
	normalizer *normalize.Normalizer
	validator  *validate.Validator
	dedup      *dedup.Deduplicator
	observer   Observer
	logger     *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithObserver registers a per-document callback. It may be called from
// several goroutines at once.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New wires the core stages into a Pipeline.
func New(
	cfg Config,
	extractor *extract.Extractor,
	normalizer *normalize.Normalizer,
	validator *validate.Validator,
	logger *slog.Logger,
	opts ...Option,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	p := &Pipeline{
		cfg:        cfg,
		extractor:  extractor,
		normalizer: normalizer,
		validator:  validator,
		dedup:      dedup.New(cfg.Deduplicate, logger),
		logger:     logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs the batch. Results are in input order. If ctx is cancelled,
// scheduling stops and the documents finished so far are returned with the
// context error.
func (p *Pipeline) Process(ctx context.Context, docs []Document) ([]entity.ProcessedDocument, error) {
	start := time.Now()
	results := make([]entity.ProcessedDocument, len(docs))
	finished := make([]bool, len(docs))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			doc, ok := p.processOne(ctx, docs[i])
			if ok {
				results[i] = doc
				finished[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		partial := make([]entity.ProcessedDocument, 0, len(docs))
		for i, ok := range finished {
			if ok {
				partial = append(partial, results[i])
			}
		}
		p.logger.Warn("pipeline.batch.aborted",
			"batch_id", common.BatchIDFromContext(ctx),
			"finished", len(partial),
			"total", len(docs),
			"error", err,
		)
		return p.dedup.Deduplicate(partial), err
	}

	out := p.dedup.Deduplicate(results)
	p.logger.Info("pipeline.batch.ok",
		"batch_id", common.BatchIDFromContext(ctx),
		"documents", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// processOne returns false only when the batch context ended mid-document.
func (p *Pipeline) processOne(ctx context.Context, in Document) (doc entity.ProcessedDocument, ok bool) {
	start := time.Now()
	ctx = common.WithSourceFile(ctx, in.SourceFileName)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.document.panic", "source_file", in.SourceFileName, "panic", r)
			doc = p.failed(in, fmt.Sprintf("processing panicked: %v", r))
			ok = true
		}
	}()

	raw, extractFailures, timedOut, err := p.extract(ctx, in.Text)
	if err != nil {
		return entity.ProcessedDocument{}, false
	}

	rec, normFailures := p.normalizer.Normalize(raw, in.SourceFileName, in.Text)
	outcome := p.validator.Validate(rec)
	if timedOut {
		outcome.Status = constants.StatusFailed
	}

	failures := make([]entity.Failure, 0, len(in.Failures)+len(extractFailures)+len(normFailures))
	failures = append(failures, in.Failures...)
	failures = append(failures, extractFailures...)
	failures = append(failures, normFailures...)

	doc = entity.ProcessedDocument{
		Record:     rec,
		Provenance: raw.Provenance(),
		Validation: outcome,
		Failures:   failures,
	}

	elapsed := time.Since(start)
	p.logger.Debug("pipeline.document.ok",
		"document_id", rec.DocumentID.String(),
		"source_file", in.SourceFileName,
		"status", string(outcome.Status),
		"score", outcome.Score,
		"failures", len(failures),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	if p.observer != nil {
		p.observer(doc, elapsed)
	}
	return doc, true
}

// extract runs the extractor under the per-document timeout. A timeout yields
// an empty map and an EXTRACTION failure; a cancelled batch yields an error.
func (p *Pipeline) extract(ctx context.Context, text string) (extract.RawFieldMap, []entity.Failure, bool, error) {
	ectx, cancel := common.WithTimeout(ctx, p.cfg.DocumentTimeout)
	defer cancel()

	type result struct {
		raw      extract.RawFieldMap
		failures []entity.Failure
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		raw, failures, err := p.extractor.ExtractContext(ectx, text)
		ch <- result{raw: raw, failures: failures, err: err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-ectx.Done():
		r.err = ectx.Err()
	}

	if r.err == nil {
		return r.raw, r.failures, false, nil
	}
	if ctx.Err() != nil {
		return extract.RawFieldMap{}, nil, false, ctx.Err()
	}
	if errors.Is(r.err, context.DeadlineExceeded) {
		p.logger.Warn("pipeline.extract.timeout",
			"source_file", common.SourceFileFromContext(ctx),
			"timeout", p.cfg.DocumentTimeout.String(),
		)
		return extract.NewRawFieldMap(nil), []entity.Failure{{
			Kind:    constants.FailureExtraction,
			Message: fmt.Sprintf("extraction timed out after %s", p.cfg.DocumentTimeout),
		}}, true, nil
	}
	return extract.NewRawFieldMap(nil), []entity.Failure{{
		Kind:    constants.FailureExtraction,
		Message: r.err.Error(),
	}}, true, nil
}

// failed builds a FAILED document with no extracted fields.
func (p *Pipeline) failed(in Document, msg string) entity.ProcessedDocument {
	rec, _ := p.normalizer.Normalize(extract.NewRawFieldMap(nil), in.SourceFileName, in.Text)
	outcome := p.validator.Validate(rec)
	outcome.Status = constants.StatusFailed
	failures := append(append([]entity.Failure(nil), in.Failures...), entity.Failure{
		Kind:    constants.FailureExtraction,
		Message: msg,
	})
	return entity.ProcessedDocument{
		Record:     rec,
		Provenance: map[constants.Field]entity.Provenance{},
		Validation: outcome,
		Failures:   failures,
	}
}
