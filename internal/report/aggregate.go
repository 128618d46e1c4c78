// SPDX-License-Identifier: MIT

package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Generate merges document results into a run-scoped report. Counts are
// simple partition sums; collection summaries and the invalid-field index
// are ordered deterministically.
func Generate(results []DocumentResult, startTime, endTime time.Time) ValidationReport {
	rep := ValidationReport{
		ID:         uuid.NewString(),
		StartTime:  startTime,
		EndTime:    endTime,
		DurationMs: endTime.Sub(startTime).Milliseconds(),
	}

	byCollection := make(map[string]*CollectionSummary)
	for _, res := range results {
		rep.TotalDocuments++
		rep.TotalFields += res.TotalURLs
		rep.ValidURLs += res.ValidURLs
		rep.InvalidURLs += res.InvalidURLs
		rep.MissingURLs += res.MissingURLs

		summary, ok := byCollection[res.Collection]
		if !ok {
			summary = &CollectionSummary{Collection: res.Collection}
			byCollection[res.Collection] = summary
		}
		summary.TotalURLs += res.TotalURLs
		summary.ValidURLs += res.ValidURLs
		summary.InvalidURLs += res.InvalidURLs
		summary.MissingURLs += res.MissingURLs

		for _, field := range res.Fields {
			if !field.IsValid && field.Error != "" {
				rep.InvalidResults = append(rep.InvalidResults, field)
			}
		}
	}

	names := make([]string, 0, len(byCollection))
	for name := range byCollection {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary := byCollection[name]
		if summary.TotalURLs == 0 {
			// Nothing to check counts as fully valid.
			summary.ValidPct = 100
		} else {
			summary.ValidPct = pct(summary.ValidURLs, summary.TotalURLs)
			summary.InvalidPct = pct(summary.InvalidURLs, summary.TotalURLs)
			summary.MissingPct = pct(summary.MissingURLs, summary.TotalURLs)
		}
		rep.CollectionSummaries = append(rep.CollectionSummaries, *summary)
	}

	return rep
}

func pct(count, total int) float64 {
	return float64(count) / float64(total) * 100
}
