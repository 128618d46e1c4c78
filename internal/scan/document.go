// SPDX-License-Identifier: MIT

// Package scan walks collections and documents, feeding every discovered
// URL-bearing field through the validator under a bounded concurrency cap.
package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbartsch/mediamend/internal/document"
	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/mediaurl"
	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/validate"
)

// DocumentValidator validates every media field of a single document.
type DocumentValidator struct {
	store store.Store
	urls  *validate.Validator
}

// NewDocumentValidator wires the document validator.
func NewDocumentValidator(s store.Store, urls *validate.Validator) *DocumentValidator {
	return &DocumentValidator{store: s, urls: urls}
}

// ValidateDocument fetches one document, discovers its media fields and
// validates each. An absent document yields a zero-count result; a field
// that cannot be read becomes that field's error verdict, never an abort.
func (d *DocumentValidator) ValidateDocument(ctx context.Context, collection, id string) (report.DocumentResult, error) {
	return d.validateDocument(ctx, collection, id, false)
}

func (d *DocumentValidator) validateDocument(ctx context.Context, collection, id string, localOnly bool) (report.DocumentResult, error) {
	result := report.DocumentResult{Collection: collection, DocumentID: id}

	doc, err := d.store.GetDocument(ctx, collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result, nil
		}
		return result, fmt.Errorf("fetch %s/%s: %w", collection, id, err)
	}

	return d.validateValue(ctx, collection, id, doc, localOnly), nil
}

// validateValue runs discovery and per-field validation against an already
// fetched document value.
func (d *DocumentValidator) validateValue(ctx context.Context, collection, id string, doc document.Value, localOnly bool) report.DocumentResult {
	result := report.DocumentResult{Collection: collection, DocumentID: id}

	for _, path := range document.Discover(doc) {
		result.TotalURLs++
		field := report.FieldResult{
			Collection: collection,
			DocumentID: id,
			FieldPath:  path.String(),
		}

		value, found := document.Read(doc, path)
		if !found || value.IsNull() {
			result.MissingURLs++
			metrics.IncURLCheck("missing")
			result.Fields = append(result.Fields, field)
			continue
		}

		url, ok := value.Str()
		if !ok {
			field.Verdict.Error = fmt.Sprintf("field holds %s, not a URL string", value.Kind())
			field.Verdict.DetectedType = mediaurl.TypeUnknown
			result.InvalidURLs++
			metrics.IncURLCheck("invalid")
			result.Fields = append(result.Fields, field)
			continue
		}
		if url == "" {
			result.MissingURLs++
			metrics.IncURLCheck("missing")
			result.Fields = append(result.Fields, field)
			continue
		}

		expected := mediaurl.InferExpectedType(path.LeafKey(), url)
		if localOnly {
			field.Verdict = d.urls.ValidateLocal(url, expected)
		} else {
			field.Verdict = d.urls.ValidateURL(ctx, url, expected)
		}
		if field.Verdict.IsValid {
			result.ValidURLs++
		} else {
			result.InvalidURLs++
		}
		result.Fields = append(result.Fields, field)
	}

	if result.TotalURLs > 0 {
		logger := xlog.WithComponentFromContext(ctx, "scan")
		logger.Debug().
			Str("event", "document.validated").
			Str("collection", collection).
			Str("document_id", id).
			Int("total", result.TotalURLs).
			Int("invalid", result.InvalidURLs).
			Msg("document validated")
	}
	return result
}
