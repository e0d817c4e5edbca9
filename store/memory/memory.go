// Package memory provides in-memory implementations of the persistence
// collaborators, for tests and development.
package memory

import (
	"context"
	"sync"

	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/submission"
)

// =============================================================================
// CACHE - in-memory local key-value cache
// =============================================================================

// Cache implements entry.Cache with a mutex-guarded map.
type Cache struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewCache() *Cache {
	return &Cache{values: make(map[string]string)}
}

func (c *Cache) Get(key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *Cache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

// =============================================================================
// DOCUMENT STORE - in-memory submission documents
// =============================================================================

// DocumentStore implements submission.DocumentStore, enforcing doc-id
// uniqueness the way the remote store's constraint does.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]submission.Record
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]submission.Record)}
}

func (ds *DocumentStore) Create(_ context.Context, docID string, rec submission.Record) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if _, exists := ds.docs[docID]; exists {
		return submission.ErrDocumentExists
	}
	ds.docs[docID] = rec
	return nil
}

func (ds *DocumentStore) Get(_ context.Context, docID string) (submission.Record, bool, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	rec, ok := ds.docs[docID]
	return rec, ok, nil
}

func (ds *DocumentStore) ListByWorker(_ context.Context, workerID string) ([]submission.Record, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	var records []submission.Record
	for _, rec := range ds.docs {
		if rec.WorkerID == workerID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// =============================================================================
// MIRROR - in-memory entry mirror
// =============================================================================

// Mirror implements entry.Mirror, keeping the last mirrored state per
// user and date.
type Mirror struct {
	mu   sync.RWMutex
	days map[string]map[datemath.Date]entry.TimeEntry
}

func NewMirror() *Mirror {
	return &Mirror{days: make(map[string]map[datemath.Date]entry.TimeEntry)}
}

func (m *Mirror) SaveDay(_ context.Context, userID string, d datemath.Date, e *entry.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.days[userID] == nil {
		m.days[userID] = make(map[datemath.Date]entry.TimeEntry)
	}
	if e == nil {
		delete(m.days[userID], d)
		return nil
	}
	m.days[userID][d] = *e
	return nil
}

// Day returns the mirrored entry for a user and date, if present.
func (m *Mirror) Day(userID string, d datemath.Date) (entry.TimeEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.days[userID][d]
	return e, ok
}
