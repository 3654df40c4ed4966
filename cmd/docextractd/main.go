package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/metrics"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/services/batch"
)

func main() {
	configPath := flag.String("config", os.Getenv("DOCEXTRACT_CONFIG"), "config file (.toml, .yaml or .yml)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	svcOpts := []batch.Option{batch.WithMetrics(m)}
	if cfg.Store.DSN != "" {
		store, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Store.DSN,
			MaxConns:         cfg.Store.MaxConns,
			MinConns:         cfg.Store.MinConns,
			MaxConnLifetime:  cfg.Store.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Store.MaxConnIdleTime,
			DialTimeout:      cfg.Store.DialTimeout,
			StatementTimeout: cfg.Store.StatementTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		if err := repository.HealthCheck(ctx, store, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping store", "error", err)
			os.Exit(1)
		}
		svcOpts = append(svcOpts, batch.WithStore(store))
	}

	svc, err := batch.NewService(*cfg, logger, svcOpts...)
	if err != nil {
		logger.Error("failed to build batch service", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(func(ctx context.Context, job async.Job) error {
		_, err := svc.RunFiles(ctx, job.Paths)
		return err
	}, logger,
		async.WithWorkers(cfg.Daemon.QueueWorkers),
		async.WithQueueSize(cfg.Daemon.QueueSize),
		async.WithProcessTimeout(cfg.Daemon.JobTimeout),
		async.WithDepthReporter(m.SetQueueDepth),
	)

	batches, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Input.Dir},
		InitialScan: true,
		Debounce:    cfg.Daemon.Debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "input_dir", cfg.Input.Dir, "error", err)
		os.Exit(1)
	}
	go func() {
		for {
			select {
			case paths, ok := <-batches:
				if !ok {
					return
				}
				if err := queue.Enqueue(ctx, async.NewJob(paths)); err != nil {
					logger.Warn("watcher.enqueue.failed", "files", len(paths), "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				logger.Warn("watcher.error", "error", err)
			}
		}
	}()

	// gRPC health
	lis, err := net.Listen("tcp", cfg.Daemon.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Daemon.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{Addr: cfg.Daemon.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
			stop()
		}
	}()

	logger.Info("docextractd listening",
		"grpc_addr", cfg.Daemon.GRPCAddr,
		"metrics_addr", cfg.Daemon.MetricsAddr,
		"input_dir", cfg.Input.Dir,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.JobTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}
