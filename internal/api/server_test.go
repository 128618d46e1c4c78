// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbartsch/mediamend/internal/queue"
	"github.com/pbartsch/mediamend/internal/repair"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/worker"
)

type testServer struct {
	store   *store.MemoryStore
	queue   *queue.MemoryQueue
	reports *report.Repository
	repairs *repair.Service
	router  http.Handler
}

func newTestServer(t *testing.T, ready func() bool) *testServer {
	t.Helper()
	s := store.NewMemoryStore()
	q := queue.NewMemoryQueue()
	reports := report.NewRepository(s)
	repairs := repair.NewService(
		repair.NewPlanner(repair.PlannerOptions{}, nil),
		repair.NewExecutor(s),
		reports,
	)
	return &testServer{
		store:   s,
		queue:   q,
		reports: reports,
		repairs: repairs,
		router:  NewServer(q, reports, repairs, ready).Router(),
	}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyzGated(t *testing.T) {
	ready := false
	ts := newTestServer(t, func() bool { return ready })

	rec := ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "given-id")
	echo := httptest.NewRecorder()
	ts.router.ServeHTTP(echo, req)
	assert.Equal(t, "given-id", echo.Header().Get("X-Request-Id"))
}

func TestEnqueueValidate(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/validate", `{"includeCollections":["yachts"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	msgs, err := ts.queue.Receive(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var cmd worker.Message
	require.NoError(t, json.Unmarshal(msgs[0].Data, &cmd))
	assert.Equal(t, worker.TypeValidateAll, cmd.Type)

	var payload worker.ValidateAllPayload
	require.NoError(t, json.Unmarshal(cmd.Payload, &payload))
	assert.Equal(t, []string{"yachts"}, payload.IncludeCollections)
}

func TestEnqueueValidateEmptyBody(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodPost, "/api/v1/validate", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestEnqueueValidateBadJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodPost, "/api/v1/validate", "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ts.queue.Depth())
}

func TestEnqueueRepairRequiresReportID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/repair", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ts.queue.Depth())

	rec = ts.do(http.MethodPost, "/api/v1/repair", `{"reportId":"r1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	msgs, err := ts.queue.Receive(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	var cmd worker.Message
	require.NoError(t, json.Unmarshal(msgs[0].Data, &cmd))
	assert.Equal(t, worker.TypeRepairAll, cmd.Type)
}

func TestGetReport(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/reports/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rep := report.Generate(nil, time.Now().Add(-time.Second), time.Now())
	require.NoError(t, ts.reports.SaveValidation(context.Background(), rep))

	rec = ts.do(http.MethodGet, "/api/v1/reports/"+rep.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got report.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, rep.ID, got.ID)
}

func TestGetRepairReport(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/repair-reports/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rep := repair.BuildReport(nil, time.Now())
	require.NoError(t, ts.reports.SaveRepair(context.Background(), rep.ID, rep))

	rec = ts.do(http.MethodGet, "/api/v1/repair-reports/"+rep.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got repair.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, rep.ID, got.ID)
}
