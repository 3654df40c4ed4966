package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/metrics"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/services/batch"
)

// runOptions are the batch flags. Zero values leave the config untouched.
type runOptions struct {
	input           string
	output          string
	dryRun          bool
	noDedup         bool
	recursive       bool
	workers         int
	formats         []string
	store           string
	documentTimeout string
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	f := cmd.Flags()
	f.StringVar(&o.input, "input", "", "input directory containing PDF files (default ./input_pdfs)")
	f.StringVar(&o.output, "output", "", "output directory for results (default ./output)")
	f.BoolVar(&o.dryRun, "dry-run", false, "process without writing output files")
	f.BoolVar(&o.noDedup, "no-deduplication", false, "disable duplicate detection")
	f.BoolVar(&o.recursive, "recursive", false, "descend into subdirectories")
	f.IntVar(&o.workers, "workers", 0, "number of documents processed in parallel")
	f.StringSliceVar(&o.formats, "formats", nil, "output formats: json, xlsx, csv")
	f.StringVar(&o.store, "store", "", "persist results to this DSN (sqlite://path or postgres://...)")
	f.StringVar(&o.documentTimeout, "document-timeout", "", "per-document extraction timeout, e.g. 10s")
}

// apply overlays flags on cfg. Flags win over file and environment values.
func (o *runOptions) apply(cfg *common.Config) error {
	if o.input != "" {
		cfg.Input.Dir = o.input
	}
	if o.output != "" {
		cfg.Output.Dir = o.output
	}
	if o.dryRun {
		cfg.Output.DryRun = true
	}
	if o.noDedup {
		cfg.Pipeline.Deduplicate = false
	}
	if o.recursive {
		cfg.Input.Recursive = true
	}
	if o.workers != 0 {
		cfg.Pipeline.Workers = o.workers
	}
	if len(o.formats) > 0 {
		cfg.Output.Formats = o.formats
	}
	if o.store != "" {
		cfg.Store.DSN = o.store
	}
	if o.documentTimeout != "" {
		d, err := time.ParseDuration(o.documentTimeout)
		if err != nil {
			return common.NewAppError(common.CodeConfig, "invalid --document-timeout", err)
		}
		cfg.Pipeline.DocumentTimeout = d
	}
	return cfg.Validate()
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a directory of PDFs (same as the root command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, a, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, opts *runOptions) error {
	cfg := *a.cfg
	if err := opts.apply(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcOpts := []batch.Option{batch.WithMetrics(metrics.New())}
	if cfg.Store.DSN != "" {
		store, err := repository.Open(ctx, storeConfig(cfg), a.logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		svcOpts = append(svcOpts, batch.WithStore(store))
	}

	svc, err := batch.NewService(cfg, a.logger, svcOpts...)
	if err != nil {
		return err
	}

	a.logger.Info("batch.config",
		"input_dir", cfg.Input.Dir,
		"output_dir", cfg.Output.Dir,
		"dry_run", cfg.Output.DryRun,
		"deduplicate", cfg.Pipeline.Deduplicate,
		"workers", cfg.Pipeline.Workers,
	)
	res, err := svc.Run(ctx, cfg.Input.Dir)
	if res != nil {
		printSummary(cmd, res)
	}
	return err
}

func printSummary(cmd *cobra.Command, res *batch.Result) {
	r := res.Report
	cmd.Println("Processing complete")
	cmd.Printf("  Batch:            %s (%s)\n", res.Batch.ID, res.Batch.Status)
	cmd.Printf("  Total processed:  %d\n", r.TotalProcessed)
	cmd.Printf("  Passed:           %d\n", r.Passed)
	cmd.Printf("  Partial:          %d\n", r.Partial)
	cmd.Printf("  Failed:           %d\n", r.Failed)
	cmd.Printf("  Duplicates:       %d\n", r.Duplicates)
	cmd.Printf("  Average score:    %.2f\n", r.AverageScore)
	for _, f := range res.Files {
		cmd.Printf("  Wrote %s\n", f)
	}
}

func storeConfig(cfg common.Config) repository.Config {
	return repository.Config{
		DSN:              cfg.Store.DSN,
		MaxConns:         cfg.Store.MaxConns,
		MinConns:         cfg.Store.MinConns,
		MaxConnLifetime:  cfg.Store.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Store.MaxConnIdleTime,
		DialTimeout:      cfg.Store.DialTimeout,
		StatementTimeout: cfg.Store.StatementTimeout,
	}
}
