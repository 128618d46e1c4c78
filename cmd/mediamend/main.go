// SPDX-License-Identifier: MIT

// mediamend is the media-URL validation and repair daemon. It scans the
// document store for broken media references, persists validation reports
// and applies repairs on demand, driven by queued commands.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pbartsch/mediamend/internal/api"
	"github.com/pbartsch/mediamend/internal/config"
	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/probe"
	"github.com/pbartsch/mediamend/internal/queue"
	"github.com/pbartsch/mediamend/internal/repair"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/store/sqlitestore"
	"github.com/pbartsch/mediamend/internal/validate"
	"github.com/pbartsch/mediamend/internal/worker"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var configFile string
	flag.StringVar(&configFile, "config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	xlog.Configure(xlog.Config{Service: "mediamend"})
	logger := xlog.WithComponent("daemon")

	cfg := config.FromEnv()
	if configFile != "" {
		fileCfg, err := config.LoadFile(configFile)
		if err != nil {
			logger.Error().Err(err).Str("path", configFile).Msg("failed to load config file")
			return 1
		}
		cfg = config.FromEnvWith(fileCfg)
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	logger.Info().
		Str("event", "daemon.start").
		Str("version", Version).
		Str("listen", cfg.Listen).
		Bool("worker_enabled", cfg.WorkerEnabled).
		Msg("starting mediamend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: embedded SQLite when a path is configured, in-memory otherwise.
	reportCollections := store.ReportCollections{
		Validation: cfg.ReportsCollection,
		Repair:     cfg.RepairReportsCollection,
	}
	var docStore store.Store
	if cfg.DBPath != "" {
		sqlStore, err := sqlitestore.Open(cfg.DBPath, reportCollections)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open store")
			return 1
		}
		docStore = sqlStore
		logger.Info().Str("path", cfg.DBPath).Msg("using sqlite store")
	} else {
		docStore = store.NewMemoryStoreWithCollections(reportCollections)
		logger.Warn().Msg("no MEDIAMEND_DB_PATH set, using volatile in-memory store")
	}
	defer func() { _ = docStore.Close() }()

	// Queue: Redis when configured, in-process otherwise.
	var commandQueue queue.Queue
	if cfg.RedisAddr != "" {
		redisQueue, err := queue.NewRedisQueue(queue.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, xlog.WithComponent("queue"))
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to Redis queue")
			return 1
		}
		if _, err := redisQueue.RecoverPending(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to recover pending queue messages")
		}
		commandQueue = redisQueue
	} else {
		commandQueue = queue.NewMemoryQueue()
		logger.Info().Msg("using in-process queue")
	}
	defer func() { _ = commandQueue.Close() }()

	prober := probe.New(probe.Config{
		Timeout:      cfg.ProbeTimeout,
		MaxRedirects: cfg.MaxRedirects,
	})
	urlValidator := validate.New(prober)
	docValidator := scan.NewDocumentValidator(docStore, urlValidator)
	engine := scan.NewEngine(docStore, docValidator)
	reports := report.NewRepository(docStore)
	planner := repair.NewPlanner(repair.PlannerOptions{
		BaseURL:             cfg.BaseURL,
		PlaceholderImageURL: cfg.PlaceholderImageURL,
		PlaceholderVideoURL: cfg.PlaceholderVideoURL,
	}, engine)
	repairs := repair.NewService(planner, repair.NewExecutor(docStore), reports)

	w := worker.New(worker.Config{
		ProcessingInterval:   cfg.ProcessingInterval,
		MaxConcurrentBatches: cfg.MaxConcurrentBatches,
		ScanBatchSize:        cfg.BatchSize,
		MediaCollection:      cfg.MediaCollection,
	}, commandQueue, engine, reports, repairs)
	if cfg.WorkerEnabled {
		w.Start(ctx)
		defer w.Stop()
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewServer(commandQueue, reports, repairs, nil).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Str("event", "daemon.shutdown").Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	logger.Info().Str("event", "daemon.stop").Msg("mediamend stopped")
	return 0
}
