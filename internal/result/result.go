// Package result implements the playable candidates resolvers hand to a query.
package result

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"songresolve/internal/query"
	"songresolve/internal/source"
)

// Info contains the track metadata a resolver found.
type Info struct {
	Artist      string
	Album       string
	Track       string
	AlbumPos    int
	Duration    time.Duration
	URL         string
	Mimetype    string
	Bitrate     int
	Size        int64
	ArtworkURL  string
	Provider    string // name of the backend that produced it
	ProviderRef string // backend specific id, path or URL
}

// Watchable is implemented by sources that report online status changes.
type Watchable interface {
	OnStatusChange(fn func()) (cancel func())
}

// Result is a scored candidate. It implements query.Result.
type Result struct {
	id   string
	info Info
	src  query.Source

	mu        sync.Mutex
	score     float64
	watchers  map[int]func()
	nextID    int
	srcCancel func()
}

// New returns a result with a random identity. src may be nil for results
// not tied to any collection.
func New(info Info, src query.Source, score float64) *Result {
	return NewWithID(uuid.New().String(), info, src, score)
}

// NewWithID returns a result with a caller-chosen identity.
func NewWithID(id string, info Info, src query.Source, score float64) *Result {
	if s, ok := src.(*source.Source); ok && s == nil {
		src = nil
	}
	return &Result{
		id:       id,
		info:     info,
		src:      src,
		score:    clamp(score),
		watchers: make(map[int]func()),
	}
}

// ID returns the result identity, stable across resolution rounds when the
// resolver chose it.
func (r *Result) ID() string { return r.id }

// Info returns the track metadata.
func (r *Result) Info() Info { return r.info }

// Artist returns the track artist.
func (r *Result) Artist() string { return r.info.Artist }

// Album returns the album name, possibly empty.
func (r *Result) Album() string { return r.info.Album }

// Track returns the track title.
func (r *Result) Track() string { return r.info.Track }

// URL returns where the track can be streamed from.
func (r *Result) URL() string { return r.info.URL }

// Mimetype returns the stream format, checked against the query's policy.
func (r *Result) Mimetype() string { return r.info.Mimetype }

// Source returns the owning source, or nil.
func (r *Result) Source() query.Source { return r.src }

// Score returns the match confidence.
func (r *Result) Score() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// SetScore updates the confidence and notifies watchers when it changes.
func (r *Result) SetScore(score float64) {
	score = clamp(score)

	r.mu.Lock()
	if r.score == score {
		r.mu.Unlock()
		return
	}
	r.score = score
	fns := r.snapshotLocked()
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnChange registers fn to run after the score or the source's online
// status changes.
func (r *Result) OnChange(fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.watchers[id] = fn

	if r.srcCancel == nil {
		if w, ok := r.src.(Watchable); ok {
			r.srcCancel = w.OnStatusChange(r.sourceChanged)
		}
	}

	return func() { r.unwatch(id) }
}

func (r *Result) unwatch(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.watchers, id)
	if len(r.watchers) == 0 && r.srcCancel != nil {
		r.srcCancel()
		r.srcCancel = nil
	}
}

func (r *Result) sourceChanged() {
	r.mu.Lock()
	fns := r.snapshotLocked()
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *Result) snapshotLocked() []func() {
	fns := make([]func(), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fns = append(fns, fn)
	}
	return fns
}

// ToMap flattens the result for the UI and script layers.
func (r *Result) ToMap() map[string]any {
	m := map[string]any{
		"id":       r.id,
		"artist":   r.info.Artist,
		"album":    r.info.Album,
		"track":    r.info.Track,
		"albumpos": r.info.AlbumPos,
		"duration": int(r.info.Duration.Seconds()),
		"url":      r.info.URL,
		"mimetype": r.info.Mimetype,
		"bitrate":  r.info.Bitrate,
		"size":     r.info.Size,
		"score":    r.Score(),
		"provider": r.info.Provider,
	}
	if r.src != nil {
		m["source"] = r.src.ID()
	}
	return m
}

func clamp(score float64) float64 {
	switch {
	case score != score, score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
