// SPDX-License-Identifier: MIT

// Package store defines the document-store capability the engine consumes,
// plus an in-memory implementation used by tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/pbartsch/mediamend/internal/document"
)

// ErrNotFound marks a missing document or report.
var ErrNotFound = errors.New("store: not found")

// ReportKind selects which report collection a report lives in.
type ReportKind string

const (
	KindValidation ReportKind = "validation"
	KindRepair     ReportKind = "repair"
)

// ReportCollections names the collection each report kind persists under.
// Implementations resolve kinds through it so operators can relocate reports
// without touching the engine.
type ReportCollections struct {
	Validation string
	Repair     string
}

// DefaultReportCollections mirrors the daemon's configuration defaults.
func DefaultReportCollections() ReportCollections {
	return ReportCollections{
		Validation: "validation_reports",
		Repair:     "repair_reports",
	}
}

// Name resolves the collection for kind, falling back to the defaults when a
// name was left empty.
func (rc ReportCollections) Name(kind ReportKind) string {
	def := DefaultReportCollections()
	switch kind {
	case KindRepair:
		if rc.Repair != "" {
			return rc.Repair
		}
		return def.Repair
	default:
		if rc.Validation != "" {
			return rc.Validation
		}
		return def.Validation
	}
}

// Document pairs a document ID with its value.
type Document struct {
	ID   string
	Data document.Value
}

// Page is one page of a collection scan.
type Page struct {
	Documents     []Document
	NextPageToken string
}

// Store is the single logical document store. Implementations must be safe
// for concurrent use.
//
// UpdateFields takes dotted mapping-key paths only; a path addressing a
// sequence element cannot be expressed, callers rewrite the enclosing
// sequence instead (see document.PlanWrite).
type Store interface {
	GetDocument(ctx context.Context, collection, id string) (document.Value, error)
	SetDocument(ctx context.Context, collection, id string, value document.Value) error
	UpdateFields(ctx context.Context, collection, id string, updates map[string]document.Value) error
	PageCollection(ctx context.Context, collection, pageToken string, limit int) (Page, error)
	ListCollections(ctx context.Context) ([]string, error)

	SaveReport(ctx context.Context, kind ReportKind, id string, data []byte) error
	LoadReport(ctx context.Context, kind ReportKind, id string) ([]byte, error)

	Close() error
}
