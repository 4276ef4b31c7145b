// Package provider contains resolver backends for public music search APIs
// (Deezer, iTunes, MusicBrainz). Each sub-package implements resolver.Resolver; this
// package holds what they share.
package provider

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"songresolve/internal/query"
	"songresolve/internal/result"
)

// resultNamespace seeds the identities of remote results, so that resolving
// the same query again yields the same result ids.
var resultNamespace = uuid.MustParse("b3c1f4a2-7d5e-4e8a-9f61-2c0d8e7a9b14")

// Default rate limits per backend (requests per second).
var defaultRateLimits = map[string]rate.Limit{
	"deezer":      5,
	"itunes":      0.33,
	"musicbrainz": 1,
}

// RateLimiterMap holds one rate.Limiter per backend, created once at startup.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiterMap creates all backend rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[string]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Set replaces the limit for one backend.
func (m *RateLimiterMap) Set(name string, limit rate.Limit, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(limit, burst)
}

// Wait blocks until the rate limiter for the given backend allows a request,
// or the context is canceled. A nil map never blocks.
func (m *RateLimiterMap) Wait(ctx context.Context, name string) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

// Rank scores search hits against q and turns those scoring at least
// minScore into results, best first, at most maxResults of them. Hits are
// streamed from the backend's servers, so the results belong to no source.
// A hit keeps the same result id for q across rounds.
func Rank(q *query.Query, hits []result.Info, minScore float64, maxResults int) []query.Result {
	type scored struct {
		info  result.Info
		score float64
	}

	var kept []scored
	for _, h := range hits {
		score := q.HowSimilar(h.Artist, h.Album, h.Track)
		if score < minScore {
			continue
		}
		kept = append(kept, scored{h, score})
	}
	slices.SortStableFunc(kept, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	if maxResults > 0 && len(kept) > maxResults {
		kept = kept[:maxResults]
	}

	qid := q.ID()
	results := make([]query.Result, 0, len(kept))
	for _, s := range kept {
		results = append(results, result.NewWithID(ResultID(qid, s.info), s.info, nil, s.score))
	}
	return results
}

// ResultID derives a result identity from the query id and the hit's
// provider reference, falling back to its stream URL.
func ResultID(qid string, info result.Info) string {
	ref := info.ProviderRef
	if ref == "" {
		ref = info.URL
	}
	return uuid.NewSHA1(resultNamespace, []byte(qid+"\x00"+info.Provider+"\x00"+ref)).String()
}
