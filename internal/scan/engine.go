// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"fmt"
	"sync"

	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the page size used when none is configured.
const DefaultBatchSize = 50

// CollectionOptions tune a single-collection scan.
type CollectionOptions struct {
	Collection string
	BatchSize  int
	// Limit caps the number of documents scanned; zero means no cap.
	Limit int
	// Concurrency caps in-flight document validations within a page. It
	// never exceeds the page size; zero means page size.
	Concurrency int
	// SkipValidation classifies URLs locally without probing the network.
	SkipValidation bool
}

// Options tune a full-store scan.
type Options struct {
	IncludeCollections []string
	ExcludeCollections []string
	BatchSize          int
	Concurrency        int
	SkipValidation     bool
}

// Engine pages through collections and fans documents out to the document
// validator under a bounded concurrency cap.
type Engine struct {
	store store.Store
	docs  *DocumentValidator
}

// NewEngine wires the scan engine.
func NewEngine(s store.Store, docs *DocumentValidator) *Engine {
	return &Engine{store: s, docs: docs}
}

// ValidateCollection scans one collection page by page. A failing document
// contributes an empty result and is logged; the scan continues. Result
// ordering is not guaranteed.
func (e *Engine) ValidateCollection(ctx context.Context, opts CollectionOptions) ([]report.DocumentResult, error) {
	logger := xlog.WithComponentFromContext(ctx, "scan")

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 || concurrency > batchSize {
		concurrency = batchSize
	}

	logger.Info().
		Str("event", "collection.scan_start").
		Str("collection", opts.Collection).
		Int("batch_size", batchSize).
		Msg("scanning collection")

	var (
		results []report.DocumentResult
		mu      sync.Mutex
		scanned int
		token   string
	)

	for {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		pageLimit := batchSize
		if opts.Limit > 0 && opts.Limit-scanned < pageLimit {
			pageLimit = opts.Limit - scanned
		}
		if pageLimit <= 0 {
			break
		}

		page, err := e.store.PageCollection(ctx, opts.Collection, token, pageLimit)
		if err != nil {
			metrics.IncScanFailure("page")
			return results, fmt.Errorf("page collection %q: %w", opts.Collection, err)
		}
		if len(page.Documents) == 0 {
			break
		}
		scanned += len(page.Documents)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, doc := range page.Documents {
			doc := doc
			g.Go(func() error {
				res, err := e.docs.validateDocument(gctx, opts.Collection, doc.ID, opts.SkipValidation)
				if err != nil {
					metrics.IncScanFailure("document")
					metrics.IncDocumentScanned("failure")
					logger.Error().
						Err(err).
						Str("event", "document.scan_failed").
						Str("collection", opts.Collection).
						Str("document_id", doc.ID).
						Msg("document validation failed")
					res = report.DocumentResult{Collection: opts.Collection, DocumentID: doc.ID}
				} else {
					metrics.IncDocumentScanned("success")
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, err
		}

		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	logger.Info().
		Str("event", "collection.scan_done").
		Str("collection", opts.Collection).
		Int("documents", scanned).
		Msg("collection scan complete")
	return results, nil
}

// ValidateAll enumerates the store's collections, applies include/exclude
// filtering (include wins) and scans each in turn.
func (e *Engine) ValidateAll(ctx context.Context, opts Options) ([]report.DocumentResult, error) {
	collections, err := e.store.ListCollections(ctx)
	if err != nil {
		metrics.IncScanFailure("list_collections")
		return nil, fmt.Errorf("list collections: %w", err)
	}
	collections = filterCollections(collections, opts.IncludeCollections, opts.ExcludeCollections)

	var all []report.DocumentResult
	for _, collection := range collections {
		results, err := e.ValidateCollection(ctx, CollectionOptions{
			Collection:     collection,
			BatchSize:      opts.BatchSize,
			Concurrency:    opts.Concurrency,
			SkipValidation: opts.SkipValidation,
		})
		if err != nil {
			return all, err
		}
		all = append(all, results...)
	}
	return all, nil
}

func filterCollections(collections, include, exclude []string) []string {
	if len(include) > 0 {
		allowed := make(map[string]struct{}, len(include))
		for _, name := range include {
			allowed[name] = struct{}{}
		}
		var out []string
		for _, name := range collections {
			if _, ok := allowed[name]; ok {
				out = append(out, name)
			}
		}
		return out
	}
	if len(exclude) == 0 {
		return collections
	}
	denied := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		denied[name] = struct{}{}
	}
	var out []string
	for _, name := range collections {
		if _, ok := denied[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
