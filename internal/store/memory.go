// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pbartsch/mediamend/internal/document"
)

// MemoryStore is a map-backed Store. Pagination is ordered by document ID so
// scans are deterministic.
type MemoryStore struct {
	mu                sync.RWMutex
	collections       map[string]map[string]document.Value
	reports           map[string]map[string][]byte
	reportCollections ReportCollections
}

// NewMemoryStore returns an empty in-memory store using the default report
// collection names.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCollections(DefaultReportCollections())
}

// NewMemoryStoreWithCollections returns an empty in-memory store that files
// reports under the configured collection names.
func NewMemoryStoreWithCollections(rc ReportCollections) *MemoryStore {
	return &MemoryStore{
		collections:       make(map[string]map[string]document.Value),
		reports:           make(map[string]map[string][]byte),
		reportCollections: rc,
	}
}

func (s *MemoryStore) GetDocument(_ context.Context, collection, id string) (document.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return document.Null(), fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	doc, ok := coll[id]
	if !ok {
		return document.Null(), fmt.Errorf("document %s/%s: %w", collection, id, ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) SetDocument(_ context.Context, collection, id string, value document.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]document.Value)
		s.collections[collection] = coll
	}
	coll[id] = value.Clone()
	return nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, collection, id string, updates map[string]document.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	doc, ok := coll[id]
	if !ok {
		return fmt.Errorf("document %s/%s: %w", collection, id, ErrNotFound)
	}
	for path, value := range updates {
		next, err := document.Apply(doc, document.ParsePath(path), value)
		if err != nil {
			return fmt.Errorf("update %s/%s field %q: %w", collection, id, path, err)
		}
		doc = next
	}
	coll[id] = doc
	return nil
}

func (s *MemoryStore) PageCollection(_ context.Context, collection, pageToken string, limit int) (Page, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll := s.collections[collection]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if pageToken != "" {
		start = sort.SearchStrings(ids, pageToken)
		// The token is the last ID of the previous page; resume after it.
		if start < len(ids) && ids[start] == pageToken {
			start++
		}
	}

	var page Page
	for i := start; i < len(ids) && len(page.Documents) < limit; i++ {
		page.Documents = append(page.Documents, Document{ID: ids[i], Data: coll[ids[i]].Clone()})
	}
	if n := len(page.Documents); n == limit && start+n < len(ids) {
		page.NextPageToken = page.Documents[n-1].ID
	}
	return page, nil
}

func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) SaveReport(_ context.Context, kind ReportKind, id string, data []byte) error {
	name := s.reportCollections.Name(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.reports[name]
	if !ok {
		coll = make(map[string][]byte)
		s.reports[name] = coll
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	coll[id] = buf
	return nil
}

func (s *MemoryStore) LoadReport(_ context.Context, kind ReportKind, id string) ([]byte, error) {
	name := s.reportCollections.Name(kind)
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.reports[name][id]
	if !ok {
		return nil, fmt.Errorf("report %s/%s: %w", kind, id, ErrNotFound)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *MemoryStore) Close() error { return nil }
