// SPDX-License-Identifier: MIT

package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pbartsch/mediamend/internal/document"
	"github.com/pbartsch/mediamend/internal/probe"
	"github.com/pbartsch/mediamend/internal/queue"
	"github.com/pbartsch/mediamend/internal/repair"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/validate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingStore counts report writes so tests can assert exactly how many
// reports a tick persisted.
type recordingStore struct {
	*store.MemoryStore
	mu    sync.Mutex
	saved []savedReport
}

type savedReport struct {
	kind store.ReportKind
	id   string
}

func (s *recordingStore) SaveReport(ctx context.Context, kind store.ReportKind, id string, data []byte) error {
	s.mu.Lock()
	s.saved = append(s.saved, savedReport{kind: kind, id: id})
	s.mu.Unlock()
	return s.MemoryStore.SaveReport(ctx, kind, id, data)
}

func (s *recordingStore) savedByKind(kind store.ReportKind) []savedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []savedReport
	for _, rep := range s.saved {
		if rep.kind == kind {
			out = append(out, rep)
		}
	}
	return out
}

type okProber struct{}

func (okProber) Head(context.Context, string) (probe.Result, error) {
	return probe.Result{Status: 200, StatusText: "OK", ContentType: "image/jpeg"}, nil
}

type fixture struct {
	store  *recordingStore
	queue  *queue.MemoryQueue
	worker *Worker
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	s := &recordingStore{MemoryStore: store.NewMemoryStore()}
	q := queue.NewMemoryQueue()

	docs := scan.NewDocumentValidator(s, validate.New(okProber{}))
	engine := scan.NewEngine(s, docs)
	reports := report.NewRepository(s)
	repairs := repair.NewService(
		repair.NewPlanner(repair.PlannerOptions{BaseURL: "https://cdn.example.com"}, engine),
		repair.NewExecutor(s),
		reports,
	)
	return &fixture{
		store:  s,
		queue:  q,
		worker: New(cfg, q, engine, reports, repairs),
	}
}

func enqueue(t *testing.T, q *queue.MemoryQueue, payload string) {
	t.Helper()
	require.NoError(t, q.Send(context.Background(), []byte(payload)))
}

func seedDocument(t *testing.T, s store.Store, collection, id string, fields map[string]document.Value) {
	t.Helper()
	require.NoError(t, s.SetDocument(context.Background(), collection, id, document.Mapping(fields)))
}

func TestTickAcksEveryMessageAndPersistsOneReport(t *testing.T) {
	f := newFixture(t, Config{})
	seedDocument(t, f.store, "yachts", "y1", map[string]document.Value{
		"coverImage": document.String("/assets/x.jpg"),
	})

	enqueue(t, f.queue, `{"type":"VALIDATE_ALL","payload":{"includeCollections":["yachts"]}}`)
	enqueue(t, f.queue, `not-json`)
	enqueue(t, f.queue, `{"type":"UNKNOWN","payload":{}}`)

	f.worker.Tick(context.Background())

	// Everything is acknowledged: redelivery must find nothing.
	f.queue.Requeue()
	assert.Equal(t, 0, f.queue.Depth())

	saved := f.store.savedByKind(store.KindValidation)
	require.Len(t, saved, 1)

	reports := report.NewRepository(f.store)
	rep, err := reports.LoadValidation(context.Background(), saved[0].id)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalDocuments)
	assert.Equal(t, 1, rep.InvalidURLs)
	require.Len(t, rep.InvalidResults, 1)
	assert.Equal(t, "Relative URLs are not supported", rep.InvalidResults[0].Error)
}

func TestValidateAllRespectsIncludeFilter(t *testing.T) {
	f := newFixture(t, Config{})
	seedDocument(t, f.store, "yachts", "y1", map[string]document.Value{
		"coverImage": document.String("/a.jpg"),
	})
	seedDocument(t, f.store, "crews", "c1", map[string]document.Value{
		"avatar": document.String("/b.jpg"),
	})

	enqueue(t, f.queue, `{"type":"VALIDATE_ALL","payload":{"includeCollections":["crews"]}}`)
	f.worker.Tick(context.Background())

	saved := f.store.savedByKind(store.KindValidation)
	require.Len(t, saved, 1)
	rep, err := report.NewRepository(f.store).LoadValidation(context.Background(), saved[0].id)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalDocuments)
	require.Len(t, rep.CollectionSummaries, 1)
	assert.Equal(t, "crews", rep.CollectionSummaries[0].Collection)
}

func TestValidateAllDefaultsToConfiguredMediaCollection(t *testing.T) {
	f := newFixture(t, Config{MediaCollection: "yachts"})
	seedDocument(t, f.store, "yachts", "y1", map[string]document.Value{
		"coverImage": document.String("/a.jpg"),
	})
	seedDocument(t, f.store, "crews", "c1", map[string]document.Value{
		"avatar": document.String("/b.jpg"),
	})

	// A command naming no collections scopes to the configured one.
	enqueue(t, f.queue, `{"type":"VALIDATE_ALL"}`)
	f.worker.Tick(context.Background())

	saved := f.store.savedByKind(store.KindValidation)
	require.Len(t, saved, 1)
	rep, err := report.NewRepository(f.store).LoadValidation(context.Background(), saved[0].id)
	require.NoError(t, err)
	require.Len(t, rep.CollectionSummaries, 1)
	assert.Equal(t, "yachts", rep.CollectionSummaries[0].Collection)

	// An explicit include set still wins over the configured default.
	enqueue(t, f.queue, `{"type":"VALIDATE_ALL","payload":{"includeCollections":["crews"]}}`)
	f.worker.Tick(context.Background())

	saved = f.store.savedByKind(store.KindValidation)
	require.Len(t, saved, 2)
	rep, err = report.NewRepository(f.store).LoadValidation(context.Background(), saved[1].id)
	require.NoError(t, err)
	require.Len(t, rep.CollectionSummaries, 1)
	assert.Equal(t, "crews", rep.CollectionSummaries[0].Collection)
}

func TestRepairAllFromStoredReport(t *testing.T) {
	f := newFixture(t, Config{})
	seedDocument(t, f.store, "yachts", "y1", map[string]document.Value{
		"coverImage": document.String("/assets/x.jpg"),
	})

	enqueue(t, f.queue, `{"type":"VALIDATE_ALL"}`)
	f.worker.Tick(context.Background())
	saved := f.store.savedByKind(store.KindValidation)
	require.Len(t, saved, 1)

	cmd, err := json.Marshal(Message{
		Type:    TypeRepairAll,
		Payload: json.RawMessage(`{"reportId":"` + saved[0].id + `"}`),
	})
	require.NoError(t, err)
	enqueue(t, f.queue, string(cmd))
	f.worker.Tick(context.Background())

	repairReports := f.store.savedByKind(store.KindRepair)
	require.Len(t, repairReports, 1)

	doc, err := f.store.GetDocument(context.Background(), "yachts", "y1")
	require.NoError(t, err)
	fixed, ok := document.Read(doc, document.ParsePath("coverImage"))
	require.True(t, ok)
	url, _ := fixed.Str()
	assert.Equal(t, "https://cdn.example.com/assets/x.jpg", url)
}

func TestRepairAllMissingReportIDIsAckedWithoutRetry(t *testing.T) {
	f := newFixture(t, Config{})

	enqueue(t, f.queue, `{"type":"REPAIR_ALL","payload":{}}`)
	f.worker.Tick(context.Background())

	f.queue.Requeue()
	assert.Equal(t, 0, f.queue.Depth())
	assert.Empty(t, f.store.savedByKind(store.KindRepair))
}

func TestRepairAllUnknownReportIsAcked(t *testing.T) {
	f := newFixture(t, Config{})

	enqueue(t, f.queue, `{"type":"REPAIR_ALL","payload":{"reportId":"does-not-exist"}}`)
	f.worker.Tick(context.Background())

	f.queue.Requeue()
	assert.Equal(t, 0, f.queue.Depth())
	assert.Empty(t, f.store.savedByKind(store.KindRepair))
}

func TestTickHonorsBatchSize(t *testing.T) {
	f := newFixture(t, Config{BatchSize: 2})
	for i := 0; i < 3; i++ {
		enqueue(t, f.queue, `{"type":"UNKNOWN"}`)
	}

	f.worker.Tick(context.Background())
	assert.Equal(t, 1, f.queue.Depth(), "third message waits for the next tick")

	f.worker.Tick(context.Background())
	assert.Equal(t, 0, f.queue.Depth())
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t, Config{ProcessingInterval: 10 * time.Millisecond})
	seedDocument(t, f.store, "yachts", "y1", map[string]document.Value{
		"coverImage": document.String("/a.jpg"),
	})
	enqueue(t, f.queue, `{"type":"VALIDATE_ALL"}`)

	f.worker.Start(context.Background())
	// Second Start while running is a no-op.
	f.worker.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(f.store.savedByKind(store.KindValidation)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	f.worker.Stop()
	// Stop after Stop is a no-op too.
	f.worker.Stop()
}
