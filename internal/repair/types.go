// SPDX-License-Identifier: MIT

// Package repair plans and executes field-level URL fixes derived from
// validation reports, guarded by compare-and-set on the old value.
package repair

import (
	"time"
)

// Type names the remediation applied to one field.
type Type string

const (
	TypeRelativeURLFix       Type = "RELATIVE_URL_FIX"
	TypeBlobURLResolve       Type = "BLOB_URL_RESOLVE"
	TypeMediaTypeCorrection  Type = "MEDIA_TYPE_CORRECTION"
	TypePlaceholderInsertion Type = "PLACEHOLDER_INSERTION"
)

// PlanItem is one intended field update.
type PlanItem struct {
	Collection string `json:"collection"`
	DocumentID string `json:"documentId"`
	FieldPath  string `json:"fieldPath"`
	OldURL     string `json:"oldUrl"`
	NewURL     string `json:"newUrl"`
	RepairType Type   `json:"repairType"`
}

// Result records the outcome of executing one plan item.
// Success=false always carries an Error.
type Result struct {
	PlanItem
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DocumentResult groups the per-item outcomes of one document.
type DocumentResult struct {
	Collection string   `json:"collection"`
	DocumentID string   `json:"documentId"`
	Results    []Result `json:"results"`
}

// Report is the immutable record of one repair run.
type Report struct {
	ID                  string           `json:"id"`
	Timestamp           time.Time        `json:"timestamp"`
	TotalDocuments      int              `json:"totalDocuments"`
	TotalFieldsRepaired int              `json:"totalFieldsRepaired"`
	RepairsByType       map[Type]int     `json:"repairsByType"`
	Results             []DocumentResult `json:"results"`
}
