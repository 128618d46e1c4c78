// SPDX-License-Identifier: MIT

// Package worker runs the background loop that consumes validation and
// repair commands from the queue and dispatches them to the engine.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/queue"
	"github.com/pbartsch/mediamend/internal/repair"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
	"golang.org/x/sync/errgroup"
)

// Message types understood by the worker.
const (
	TypeValidateAll = "VALIDATE_ALL"
	TypeRepairAll   = "REPAIR_ALL"
)

// Message is the queue command envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ValidateAllPayload selects which collections a validation run covers.
type ValidateAllPayload struct {
	IncludeCollections []string `json:"includeCollections,omitempty"`
	ExcludeCollections []string `json:"excludeCollections,omitempty"`
}

// RepairAllPayload names the validation report a repair run consumes.
type RepairAllPayload struct {
	ReportID string `json:"reportId"`
}

// Config tunes the worker loop.
type Config struct {
	ProcessingInterval   time.Duration
	BatchSize            int
	MaxConcurrentBatches int
	ScanBatchSize        int
	// MediaCollection scopes VALIDATE_ALL commands that name no collections
	// themselves; empty scans the whole store.
	MediaCollection string
}

func (c Config) withDefaults() Config {
	if c.ProcessingInterval <= 0 {
		c.ProcessingInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.MaxConcurrentBatches <= 0 {
		c.MaxConcurrentBatches = 5
	}
	return c
}

// Worker owns the periodic tick. Every received message is acknowledged,
// parseable or not: a poison message must never wedge the queue.
type Worker struct {
	cfg     Config
	queue   queue.Queue
	engine  *scan.Engine
	reports *report.Repository
	repairs *repair.Service

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	ticking sync.Mutex // held for the duration of one tick; no overlap
}

// New wires a worker.
func New(cfg Config, q queue.Queue, engine *scan.Engine, reports *report.Repository, repairs *repair.Service) *Worker {
	return &Worker{
		cfg:     cfg.withDefaults(),
		queue:   q,
		engine:  engine,
		reports: reports,
		repairs: repairs,
	}
}

// Start launches the tick loop. A second Start while running is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	logger := xlog.WithComponent("worker")
	logger.Info().
		Str("event", "worker.start").
		Dur("interval", w.cfg.ProcessingInterval).
		Int("batch_size", w.cfg.BatchSize).
		Msg("worker started")

	go w.run(runCtx, w.done)
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	stopLogger := xlog.WithComponent("worker")
	stopLogger.Info().Str("event", "worker.stop").Msg("worker stopped")
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.cfg.ProcessingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.ticking.TryLock() {
				// A slow tick is still running; defer to the next one.
				metrics.IncWorkerTick("skipped")
				continue
			}
			w.Tick(ctx)
			w.ticking.Unlock()
		}
	}
}

// Tick drains up to BatchSize messages and processes them under the
// configured concurrency cap. Exposed for tests and one-shot runs.
func (w *Worker) Tick(ctx context.Context) {
	logger := xlog.WithComponentFromContext(ctx, "worker")

	messages, err := w.queue.Receive(ctx, w.cfg.BatchSize)
	if err != nil {
		metrics.IncWorkerTick("receive_error")
		logger.Warn().Err(err).Str("event", "worker.receive_failed").Msg("queue receive failed, will retry next tick")
		return
	}
	metrics.IncWorkerTick("run")
	if len(messages) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.MaxConcurrentBatches)
	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			w.processMessage(xlog.ContextWithMessageID(gctx, msg.ID), msg)
			return nil
		})
	}
	_ = g.Wait()
}

// processMessage parses and dispatches one command. It never returns an
// error and always acknowledges: failures are logged and counted.
func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	logger := xlog.WithComponentFromContext(ctx, "worker")
	defer func() {
		if err := w.queue.Ack(ctx, msg.ID); err != nil {
			logger.Warn().Err(err).Str("event", "worker.ack_failed").Msg("failed to acknowledge message")
		}
	}()

	var command Message
	if err := json.Unmarshal(msg.Data, &command); err != nil {
		metrics.IncQueueMessage("unparseable")
		logger.Warn().
			Err(err).
			Str("event", "worker.unparseable").
			Msg("discarding unparseable message")
		return
	}

	var err error
	switch command.Type {
	case TypeValidateAll:
		err = w.handleValidateAll(ctx, command.Payload)
	case TypeRepairAll:
		err = w.handleRepairAll(ctx, command.Payload)
	default:
		metrics.IncQueueMessage("unknown_type")
		logger.Warn().
			Str("event", "worker.unknown_type").
			Str("type", command.Type).
			Msg("discarding message with unknown type")
		return
	}

	if err != nil {
		metrics.IncQueueMessage("failed")
		logger.Error().
			Err(err).
			Str("event", "worker.command_failed").
			Str("type", command.Type).
			Msg("command failed")
		return
	}
	metrics.IncQueueMessage("processed")
}

func (w *Worker) handleValidateAll(ctx context.Context, payload json.RawMessage) error {
	var p ValidateAllPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode VALIDATE_ALL payload: %w", err)
		}
	}
	if len(p.IncludeCollections) == 0 && w.cfg.MediaCollection != "" {
		p.IncludeCollections = []string{w.cfg.MediaCollection}
	}

	start := time.Now()
	results, err := w.engine.ValidateAll(ctx, scan.Options{
		IncludeCollections: p.IncludeCollections,
		ExcludeCollections: p.ExcludeCollections,
		BatchSize:          w.cfg.ScanBatchSize,
	})
	if err != nil {
		return fmt.Errorf("validate all: %w", err)
	}

	rep := report.Generate(results, start, time.Now())
	if err := w.reports.SaveValidation(xlog.ContextWithRunID(ctx, rep.ID), rep); err != nil {
		return err
	}

	validationLogger := xlog.WithComponentFromContext(ctx, "worker")
	validationLogger.Info().
		Str("event", "worker.validation_done").
		Str("report_id", rep.ID).
		Int("documents", rep.TotalDocuments).
		Int("invalid", rep.InvalidURLs).
		Msg("validation run complete")
	return nil
}

func (w *Worker) handleRepairAll(ctx context.Context, payload json.RawMessage) error {
	var p RepairAllPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode REPAIR_ALL payload: %w", err)
		}
	}
	if p.ReportID == "" {
		return fmt.Errorf("REPAIR_ALL: missing reportId")
	}

	rep, err := w.repairs.RepairFromReport(xlog.ContextWithRunID(ctx, p.ReportID), p.ReportID)
	if err != nil {
		return fmt.Errorf("repair from report %s: %w", p.ReportID, err)
	}

	repairLogger := xlog.WithComponentFromContext(ctx, "worker")
	repairLogger.Info().
		Str("event", "worker.repair_done").
		Str("repair_report_id", rep.ID).
		Int("repaired", rep.TotalFieldsRepaired).
		Msg("repair run complete")
	return nil
}
