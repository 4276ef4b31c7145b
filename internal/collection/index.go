// Package collection indexes the local music library and resolves queries
// against it.
package collection

import (
	"slices"
	"sync"
	"time"

	"songresolve/internal/logger"
	"songresolve/internal/metrics"
	"songresolve/internal/notify"
	"songresolve/internal/source"
)

// Track is one indexed audio file.
type Track struct {
	Path     string
	Artist   string
	Album    string
	Title    string
	AlbumPos int
	Duration time.Duration
	Bitrate  int
	Size     int64
	Mimetype string
}

// Index is the in-memory catalogue of the local collection. It implements
// query.IndexSource: every completed load is announced to subscribers.
type Index struct {
	src     *source.Source
	log     *logger.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	tracks []Track

	ready notify.Feed[struct{}]
}

// NewIndex returns an empty index owned by src. A nil src gets a fresh
// local source. log and m may be nil.
func NewIndex(src *source.Source, log *logger.Logger, m *metrics.Metrics) *Index {
	if src == nil {
		src = source.NewLocal("My Collection")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Index{src: src, log: log, metrics: m}
}

// Source returns the owner of the indexed files.
func (ix *Index) Source() *source.Source { return ix.src }

// Replace swaps the index contents and announces the index as ready.
func (ix *Index) Replace(tracks []Track) {
	ix.mu.Lock()
	ix.tracks = slices.Clone(tracks)
	n := len(ix.tracks)
	ix.mu.Unlock()

	ix.metrics.SetIndexTracks(n)
	ix.log.Debug("Collection index ready with %d tracks", n)
	ix.ready.Send(struct{}{})
}

// Tracks returns a snapshot of the indexed tracks.
func (ix *Index) Tracks() []Track {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.tracks)
}

// Len returns the number of indexed tracks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.tracks)
}

// SubscribeIndexReady returns a subscription that fires after every load.
func (ix *Index) SubscribeIndexReady() *notify.Subscription[struct{}] {
	return ix.ready.Subscribe()
}

// Close ends every index subscription.
func (ix *Index) Close() {
	ix.ready.Close()
}
