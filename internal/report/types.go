// SPDX-License-Identifier: MIT

// Package report defines the per-run result types, the aggregation of
// document results into a persistent validation report, and report storage.
package report

import (
	"time"

	"github.com/pbartsch/mediamend/internal/validate"
)

// FieldResult ties a URL verdict to the field it was read from.
type FieldResult struct {
	validate.Verdict
	Collection string `json:"collection"`
	DocumentID string `json:"documentId"`
	FieldPath  string `json:"fieldPath"`
}

// DocumentResult aggregates the verdicts of one document within a run.
// TotalURLs always equals ValidURLs + InvalidURLs + MissingURLs.
type DocumentResult struct {
	Collection  string        `json:"collection"`
	DocumentID  string        `json:"documentId"`
	TotalURLs   int           `json:"totalUrls"`
	ValidURLs   int           `json:"validUrls"`
	InvalidURLs int           `json:"invalidUrls"`
	MissingURLs int           `json:"missingUrls"`
	Fields      []FieldResult `json:"fields"`
}

// CollectionSummary rolls document counts up per collection. Percentages are
// derived, never authoritative.
type CollectionSummary struct {
	Collection  string  `json:"collection"`
	TotalURLs   int     `json:"totalUrls"`
	ValidURLs   int     `json:"validUrls"`
	InvalidURLs int     `json:"invalidUrls"`
	MissingURLs int     `json:"missingUrls"`
	ValidPct    float64 `json:"validPct"`
	InvalidPct  float64 `json:"invalidPct"`
	MissingPct  float64 `json:"missingPct"`
}

// ValidationReport is the immutable record of one validation run.
type ValidationReport struct {
	ID                  string              `json:"id"`
	StartTime           time.Time           `json:"startTime"`
	EndTime             time.Time           `json:"endTime"`
	DurationMs          int64               `json:"durationMs"`
	TotalDocuments      int                 `json:"totalDocuments"`
	TotalFields         int                 `json:"totalFields"`
	ValidURLs           int                 `json:"validUrls"`
	InvalidURLs         int                 `json:"invalidUrls"`
	MissingURLs         int                 `json:"missingUrls"`
	CollectionSummaries []CollectionSummary `json:"collectionSummaries"`
	InvalidResults      []FieldResult       `json:"invalidResults"`
}
