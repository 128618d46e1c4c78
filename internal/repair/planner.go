// SPDX-License-Identifier: MIT

package repair

import (
	"context"
	"strings"

	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/mediaurl"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
)

// PlannerOptions carry the configured repair substitutes.
type PlannerOptions struct {
	// BaseURL prefixes relative URLs; empty disables relative fixes.
	BaseURL string
	// PlaceholderImageURL replaces unrecoverable image URLs.
	PlaceholderImageURL string
	// PlaceholderVideoURL replaces unrecoverable video URLs.
	PlaceholderVideoURL string
}

// Planner turns invalid field results into plan items.
type Planner struct {
	opts   PlannerOptions
	engine *scan.Engine
}

// NewPlanner wires a planner. The engine is used by the scan-and-plan
// shortcuts; it may be nil when planning only from stored reports.
func NewPlanner(opts PlannerOptions, engine *scan.Engine) *Planner {
	return &Planner{opts: opts, engine: engine}
}

// Plan derives plan items from a validation report's invalid results.
// Fields with no applicable remediation are returned as skipped.
func (p *Planner) Plan(ctx context.Context, rep report.ValidationReport) (items []PlanItem, skipped []report.FieldResult) {
	logger := xlog.WithComponentFromContext(ctx, "repair")
	for _, field := range rep.InvalidResults {
		item, ok := p.planField(field)
		if !ok {
			skipped = append(skipped, field)
			continue
		}
		items = append(items, item)
	}
	logger.Info().
		Str("event", "plan.built").
		Str("report_id", rep.ID).
		Int("planned", len(items)).
		Int("skipped", len(skipped)).
		Msg("repair plan built")
	return items, skipped
}

func (p *Planner) planField(field report.FieldResult) (PlanItem, bool) {
	item := PlanItem{
		Collection: field.Collection,
		DocumentID: field.DocumentID,
		FieldPath:  field.FieldPath,
		OldURL:     field.URL,
	}

	switch {
	case mediaurl.IsRelative(field.URL) && p.opts.BaseURL != "":
		item.RepairType = TypeRelativeURLFix
		item.NewURL = strings.TrimRight(p.opts.BaseURL, "/") + field.URL
	case mediaurl.IsBlob(field.URL) && p.placeholderFor(field.ExpectedType) != "":
		item.RepairType = TypeBlobURLResolve
		item.NewURL = p.placeholderFor(field.ExpectedType)
	case isTypeMismatch(field) && p.placeholderFor(field.ExpectedType) != "":
		item.RepairType = TypeMediaTypeCorrection
		item.NewURL = p.placeholderFor(field.ExpectedType)
	case p.placeholderFor(field.ExpectedType) != "":
		item.RepairType = TypePlaceholderInsertion
		item.NewURL = p.placeholderFor(field.ExpectedType)
	default:
		return PlanItem{}, false
	}
	return item, true
}

// isTypeMismatch reports whether the verdict failed only because the probed
// content type contradicted the expectation.
func isTypeMismatch(field report.FieldResult) bool {
	if field.ExpectedType == "" || field.DetectedType == mediaurl.TypeUnknown {
		return false
	}
	return field.ExpectedType != field.DetectedType && strings.HasPrefix(field.Error, "Expected ")
}

func (p *Planner) placeholderFor(t mediaurl.Type) string {
	if t == mediaurl.TypeVideo {
		return p.opts.PlaceholderVideoURL
	}
	return p.opts.PlaceholderImageURL
}

// FindRelativeURLs re-scans the store without probing and emits relative-fix
// plan items, no prior report required.
func (p *Planner) FindRelativeURLs(ctx context.Context, opts scan.Options) ([]PlanItem, error) {
	return p.findByClassifier(ctx, opts, func(url string) (Type, string, bool) {
		if !mediaurl.IsRelative(url) || p.opts.BaseURL == "" {
			return "", "", false
		}
		return TypeRelativeURLFix, strings.TrimRight(p.opts.BaseURL, "/") + url, true
	})
}

// FindBlobURLs re-scans the store without probing and emits blob-replace
// plan items, no prior report required.
func (p *Planner) FindBlobURLs(ctx context.Context, opts scan.Options) ([]PlanItem, error) {
	return p.findByClassifier(ctx, opts, func(url string) (Type, string, bool) {
		if !mediaurl.IsBlob(url) || p.opts.PlaceholderImageURL == "" {
			return "", "", false
		}
		return TypeBlobURLResolve, p.opts.PlaceholderImageURL, true
	})
}

func (p *Planner) findByClassifier(ctx context.Context, opts scan.Options, classify func(url string) (Type, string, bool)) ([]PlanItem, error) {
	opts.SkipValidation = true
	results, err := p.engine.ValidateAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	var items []PlanItem
	for _, res := range results {
		for _, field := range res.Fields {
			repairType, newURL, ok := classify(field.URL)
			if !ok {
				continue
			}
			items = append(items, PlanItem{
				Collection: field.Collection,
				DocumentID: field.DocumentID,
				FieldPath:  field.FieldPath,
				OldURL:     field.URL,
				NewURL:     newURL,
				RepairType: repairType,
			})
		}
	}
	return items, nil
}
