// SPDX-License-Identifier: MIT

package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
)

// Service ties planner, executor and report persistence together. It is the
// surface the worker and the ops API consume.
type Service struct {
	planner  *Planner
	executor *Executor
	reports  *report.Repository
	now      func() time.Time
}

// NewService wires the repair service.
func NewService(planner *Planner, executor *Executor, reports *report.Repository) *Service {
	return &Service{planner: planner, executor: executor, reports: reports, now: time.Now}
}

// RepairURLs executes an externally supplied plan without persisting a report.
func (s *Service) RepairURLs(ctx context.Context, items []PlanItem) ([]Result, error) {
	return s.executor.RepairURLs(ctx, items)
}

// RepairFromReport loads a stored validation report, plans and executes the
// repairs, and persists the resulting repair report.
func (s *Service) RepairFromReport(ctx context.Context, reportID string) (Report, error) {
	validationReport, err := s.reports.LoadValidation(ctx, reportID)
	if err != nil {
		return Report{}, err
	}

	items, skipped := s.planner.Plan(ctx, validationReport)
	results, err := s.executor.RepairURLs(ctx, items)
	if err != nil {
		return Report{}, err
	}

	rep := BuildReport(results, s.now())
	if err := s.reports.SaveRepair(ctx, rep.ID, rep); err != nil {
		return Report{}, err
	}

	logger := xlog.WithComponentFromContext(ctx, "repair")
	logger.Info().
		Str("event", "repair.report_saved").
		Str("repair_report_id", rep.ID).
		Str("validation_report_id", reportID).
		Int("repaired", rep.TotalFieldsRepaired).
		Int("unrepairable", len(skipped)).
		Msg("repair run complete")
	return rep, nil
}

// FixRelativeURLs scans the store for relative URLs, prefixes them with
// baseURL and persists a repair report.
func (s *Service) FixRelativeURLs(ctx context.Context, baseURL string, opts scan.Options) (Report, error) {
	planner := s.planner
	if baseURL != "" {
		override := planner.opts
		override.BaseURL = baseURL
		planner = NewPlanner(override, s.planner.engine)
	}
	items, err := planner.FindRelativeURLs(ctx, opts)
	if err != nil {
		return Report{}, fmt.Errorf("find relative urls: %w", err)
	}
	return s.executeAndPersist(ctx, items)
}

// ResolveBlobURLs scans the store for blob URLs, replaces them with the
// placeholder and persists a repair report.
func (s *Service) ResolveBlobURLs(ctx context.Context, placeholderURL string, opts scan.Options) (Report, error) {
	planner := s.planner
	if placeholderURL != "" {
		override := planner.opts
		override.PlaceholderImageURL = placeholderURL
		planner = NewPlanner(override, s.planner.engine)
	}
	items, err := planner.FindBlobURLs(ctx, opts)
	if err != nil {
		return Report{}, fmt.Errorf("find blob urls: %w", err)
	}
	return s.executeAndPersist(ctx, items)
}

func (s *Service) executeAndPersist(ctx context.Context, items []PlanItem) (Report, error) {
	results, err := s.executor.RepairURLs(ctx, items)
	if err != nil {
		return Report{}, err
	}
	rep := BuildReport(results, s.now())
	if err := s.reports.SaveRepair(ctx, rep.ID, rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// LoadReport fetches a persisted repair report by ID.
func (s *Service) LoadReport(ctx context.Context, id string) (Report, error) {
	data, err := s.reports.LoadRepairRaw(ctx, id)
	if err != nil {
		return Report{}, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, fmt.Errorf("decode repair report %s: %w", id, err)
	}
	return rep, nil
}
