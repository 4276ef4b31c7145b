package web

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"songresolve/internal/metrics"
	"songresolve/internal/query"
)

type entry struct {
	q          *query.Query
	createdAt  time.Time
	lastActive time.Time
}

// QueryManager holds the queries created through the API.
type QueryManager struct {
	mu        sync.RWMutex
	queries   map[string]*entry
	retention time.Duration
	metrics   *metrics.Metrics
}

// NewQueryManager creates a manager that forgets finished queries after
// retention without activity. m may be nil.
func NewQueryManager(retention time.Duration, m *metrics.Metrics) *QueryManager {
	return &QueryManager{
		queries:   make(map[string]*entry),
		retention: retention,
		metrics:   m,
	}
}

// StartCleanup starts a background goroutine that drops stale queries.
// Stops when ctx is cancelled.
func (qm *QueryManager) StartCleanup(ctx context.Context) {
	if qm.retention <= 0 {
		return
	}
	interval := min(qm.retention/6, 10*time.Minute)
	go func() {
		ticker := time.NewTicker(max(interval, time.Second))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				qm.cleanup()
			}
		}
	}()
}

func (qm *QueryManager) cleanup() {
	cutoff := time.Now().Add(-qm.retention)

	qm.mu.Lock()
	var stale []*query.Query
	for id, e := range qm.queries {
		if e.q.ResolveFinished() && e.lastActive.Before(cutoff) {
			stale = append(stale, e.q)
			delete(qm.queries, id)
		}
	}
	n := len(qm.queries)
	qm.mu.Unlock()

	for _, q := range stale {
		q.Close()
	}
	qm.metrics.SetLiveQueries(n)
}

// Add stores q under its id.
func (qm *QueryManager) Add(q *query.Query) {
	now := time.Now()

	qm.mu.Lock()
	qm.queries[q.ID()] = &entry{q: q, createdAt: now, lastActive: now}
	n := len(qm.queries)
	qm.mu.Unlock()

	qm.metrics.SetLiveQueries(n)
}

// Get retrieves a query by id and marks it active.
func (qm *QueryManager) Get(id string) (*query.Query, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	e, ok := qm.queries[id]
	if !ok {
		return nil, fmt.Errorf("query not found: %s", id)
	}
	e.lastActive = time.Now()
	return e.q, nil
}

// List returns all queries, oldest first.
func (qm *QueryManager) List() []*query.Query {
	qm.mu.RLock()
	entries := make([]*entry, 0, len(qm.queries))
	for _, e := range qm.queries {
		entries = append(entries, e)
	}
	qm.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		return a.createdAt.Compare(b.createdAt)
	})
	queries := make([]*query.Query, len(entries))
	for i, e := range entries {
		queries[i] = e.q
	}
	return queries
}

// Remove drops and closes a query.
func (qm *QueryManager) Remove(id string) error {
	qm.mu.Lock()
	e, ok := qm.queries[id]
	delete(qm.queries, id)
	n := len(qm.queries)
	qm.mu.Unlock()

	if !ok {
		return fmt.Errorf("query not found: %s", id)
	}
	e.q.Close()
	qm.metrics.SetLiveQueries(n)
	return nil
}

// Len returns the number of held queries.
func (qm *QueryManager) Len() int {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return len(qm.queries)
}

// CloseAll closes and forgets every query.
func (qm *QueryManager) CloseAll() {
	qm.mu.Lock()
	entries := qm.queries
	qm.queries = make(map[string]*entry)
	qm.mu.Unlock()

	for _, e := range entries {
		e.q.Close()
	}
	qm.metrics.SetLiveQueries(0)
}
