// SPDX-License-Identifier: MIT

package repair

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pbartsch/mediamend/internal/document"
	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/store"
)

// errValueMismatch is the compare-and-set failure message. It guards against
// concurrent edits and double-repairs.
const errValueMismatch = "URL does not match expected value"

// Executor applies plan items document by document. Items addressing
// sequence elements are coalesced into one parent-sequence rewrite so
// multiple fixes against the same sequence cannot lose updates.
type Executor struct {
	store store.Store
}

// NewExecutor wires an executor.
func NewExecutor(s store.Store) *Executor {
	return &Executor{store: s}
}

type docKey struct {
	collection string
	id         string
}

// RepairURLs executes the plan. Partial success is expected: each item gets
// its own result, and a document-fetch failure fails every item of that
// document with the same error.
func (e *Executor) RepairURLs(ctx context.Context, items []PlanItem) ([]Result, error) {
	logger := xlog.WithComponentFromContext(ctx, "repair")

	// Group by document, preserving first-seen order.
	var order []docKey
	groups := make(map[docKey][]PlanItem)
	for _, item := range items {
		key := docKey{collection: item.Collection, id: item.DocumentID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}

	var results []Result
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.repairDocument(ctx, key, groups[key])...)
	}

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	logger.Info().
		Str("event", "repair.done").
		Int("items", len(items)).
		Int("documents", len(order)).
		Int("succeeded", succeeded).
		Msg("repair execution complete")
	return results, nil
}

func (e *Executor) repairDocument(ctx context.Context, key docKey, items []PlanItem) []Result {
	logger := xlog.WithComponentFromContext(ctx, "repair")

	doc, err := e.store.GetDocument(ctx, key.collection, key.id)
	if err != nil {
		results := make([]Result, len(items))
		for i, item := range items {
			results[i] = failure(item, "fetch document: "+err.Error())
		}
		return results
	}

	working := doc
	results := make([]Result, 0, len(items))
	applied := make([]int, 0, len(items))
	directUpdates := make(map[string]document.Value)
	var seqPrefixes []document.Path

	for _, item := range items {
		path := document.ParsePath(item.FieldPath)

		// Compare-and-set against the value currently in the store.
		current, found := document.Read(doc, path)
		cur, isString := current.Str()
		if !found || !isString || cur != item.OldURL {
			results = append(results, failure(item, errValueMismatch))
			continue
		}

		next, err := document.Apply(working, path, document.String(item.NewURL))
		if err != nil {
			results = append(results, failure(item, "apply update: "+err.Error()))
			continue
		}
		working = next

		if prefix, crossesSequence := document.SequencePrefix(doc, path); crossesSequence {
			seqPrefixes = appendPrefix(seqPrefixes, prefix)
		} else {
			directUpdates[path.String()] = document.String(item.NewURL)
		}
		applied = append(applied, len(results))
		results = append(results, Result{PlanItem: item, Success: true})
	}

	if len(applied) == 0 {
		return results
	}

	// Sequence rewrites carry the final state of all applied items.
	updates := directUpdates
	for _, prefix := range seqPrefixes {
		rewritten, ok := document.Read(working, prefix)
		if !ok {
			continue
		}
		updates[prefix.String()] = rewritten
	}

	if err := e.store.UpdateFields(ctx, key.collection, key.id, updates); err != nil {
		logger.Error().
			Err(err).
			Str("event", "repair.write_failed").
			Str("collection", key.collection).
			Str("document_id", key.id).
			Msg("document update failed")
		for _, idx := range applied {
			results[idx].Success = false
			results[idx].Error = "update document: " + err.Error()
		}
	}

	for _, res := range results {
		outcome := "failure"
		if res.Success {
			outcome = "success"
		}
		metrics.IncRepair(string(res.RepairType), outcome)
	}
	return results
}

func failure(item PlanItem, msg string) Result {
	return Result{PlanItem: item, Success: false, Error: msg}
}

func appendPrefix(prefixes []document.Path, prefix document.Path) []document.Path {
	key := prefix.String()
	for _, p := range prefixes {
		if p.String() == key {
			return prefixes
		}
	}
	return append(prefixes, prefix)
}

// BuildReport rolls per-item results into a repair report.
func BuildReport(results []Result, now time.Time) Report {
	rep := Report{
		ID:            uuid.NewString(),
		Timestamp:     now,
		RepairsByType: make(map[Type]int),
	}

	var order []docKey
	grouped := make(map[docKey][]Result)
	for _, res := range results {
		key := docKey{collection: res.Collection, id: res.DocumentID}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], res)
		if res.Success {
			rep.TotalFieldsRepaired++
			rep.RepairsByType[res.RepairType]++
		}
	}

	for _, key := range order {
		rep.Results = append(rep.Results, DocumentResult{
			Collection: key.collection,
			DocumentID: key.id,
			Results:    grouped[key],
		})
	}
	rep.TotalDocuments = len(order)
	return rep
}
