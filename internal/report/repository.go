// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/store"
)

// Repository persists reports through the store's reports interface.
// Reports are append-only: saved once, never mutated.
type Repository struct {
	store store.Store
}

// NewRepository wraps the store for report persistence.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// SaveValidation persists a validation report under its ID.
func (r *Repository) SaveValidation(ctx context.Context, rep ValidationReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal validation report %s: %w", rep.ID, err)
	}
	if err := r.store.SaveReport(ctx, store.KindValidation, rep.ID, data); err != nil {
		return fmt.Errorf("save validation report %s: %w", rep.ID, err)
	}
	metrics.IncReportPersisted("validation")
	return nil
}

// LoadValidation loads a validation report by ID.
func (r *Repository) LoadValidation(ctx context.Context, id string) (ValidationReport, error) {
	data, err := r.store.LoadReport(ctx, store.KindValidation, id)
	if err != nil {
		return ValidationReport{}, fmt.Errorf("load validation report %s: %w", id, err)
	}
	var rep ValidationReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return ValidationReport{}, fmt.Errorf("decode validation report %s: %w", id, err)
	}
	return rep, nil
}

// SaveRepair persists a repair report under its ID.
func (r *Repository) SaveRepair(ctx context.Context, id string, rep any) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal repair report %s: %w", id, err)
	}
	if err := r.store.SaveReport(ctx, store.KindRepair, id, data); err != nil {
		return fmt.Errorf("save repair report %s: %w", id, err)
	}
	metrics.IncReportPersisted("repair")
	return nil
}

// LoadRepairRaw loads a repair report's JSON by ID. The repair package owns
// the concrete type; keeping bytes here avoids an import cycle.
func (r *Repository) LoadRepairRaw(ctx context.Context, id string) ([]byte, error) {
	data, err := r.store.LoadReport(ctx, store.KindRepair, id)
	if err != nil {
		return nil, fmt.Errorf("load repair report %s: %w", id, err)
	}
	return data, nil
}
