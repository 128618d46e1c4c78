// SPDX-License-Identifier: MIT

package repair

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbartsch/mediamend/internal/document"
	"github.com/pbartsch/mediamend/internal/mediaurl"
	"github.com/pbartsch/mediamend/internal/report"
	"github.com/pbartsch/mediamend/internal/scan"
	"github.com/pbartsch/mediamend/internal/store"
	"github.com/pbartsch/mediamend/internal/validate"
)

func newService(s store.Store) (*Service, *report.Repository) {
	repo := report.NewRepository(s)
	docs := scan.NewDocumentValidator(s, validate.New(noProbe{}))
	planner := NewPlanner(fullOpts(), scan.NewEngine(s, docs))
	return NewService(planner, NewExecutor(s), repo), repo
}

func TestRepairFromReport(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	svc, repo := newService(s)

	seedDoc(t, s, "yachts", "y1", map[string]document.Value{
		"profileImage": document.String("/a.jpg"),
	})

	validationReport := report.Generate([]report.DocumentResult{{
		Collection: "yachts",
		DocumentID: "y1",
		TotalURLs:  1, InvalidURLs: 1,
		Fields: []report.FieldResult{{
			Verdict: validate.Verdict{
				URL:          "/a.jpg",
				Error:        "Relative URLs are not supported",
				ExpectedType: mediaurl.TypeImage,
			},
			Collection: "yachts",
			DocumentID: "y1",
			FieldPath:  "profileImage",
		}},
	}}, time.Now(), time.Now())
	require.NoError(t, repo.SaveValidation(ctx, validationReport))

	rep, err := svc.RepairFromReport(ctx, validationReport.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalFieldsRepaired)
	assert.Equal(t, 1, rep.RepairsByType[TypeRelativeURLFix])

	// The repair landed in the store.
	assert.Equal(t, "https://cdn.example.com/a.jpg", readString(t, s, "yachts", "y1", "profileImage"))

	// The repair report is persisted and loadable.
	loaded, err := svc.LoadReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, loaded.ID)
	assert.Equal(t, 1, loaded.TotalFieldsRepaired)
}

func TestRepairFromReportUnknownID(t *testing.T) {
	svc, _ := newService(store.NewMemoryStore())
	_, err := svc.RepairFromReport(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFixRelativeURLs(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	svc, _ := newService(s)

	seedDoc(t, s, "yachts", "y1", map[string]document.Value{
		"profileImage": document.String("/hero.jpg"),
		"coverImage":   document.String("https://cdn.example.com/ok.jpg"),
	})

	rep, err := svc.FixRelativeURLs(ctx, "", scan.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalFieldsRepaired)
	assert.Equal(t, "https://cdn.example.com/hero.jpg", readString(t, s, "yachts", "y1", "profileImage"))
}

func TestFixRelativeURLsBaseOverride(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	svc, _ := newService(s)

	seedDoc(t, s, "yachts", "y1", map[string]document.Value{
		"profileImage": document.String("/hero.jpg"),
	})

	_, err := svc.FixRelativeURLs(ctx, "https://other.example.com", scan.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/hero.jpg", readString(t, s, "yachts", "y1", "profileImage"))
}

func TestResolveBlobURLs(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	svc, _ := newService(s)

	seedDoc(t, s, "yachts", "y1", map[string]document.Value{
		"profileImage": document.String("blob:https://app.example.com/1"),
	})

	rep, err := svc.ResolveBlobURLs(ctx, "", scan.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.TotalFieldsRepaired)
	assert.Equal(t, placeholderImg, readString(t, s, "yachts", "y1", "profileImage"))
}
