// Package query holds the request for a piece of music and the ranked set of
// playable candidates that resolver backends contribute to it.
//
// A Query is safe for concurrent use. Every mutation takes the query's lock
// only around the collection change and the recompute of its derived flags;
// notifications, dispatch and backend calls happen after the lock is
// released, so an event handler may call straight back into the query.
package query

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"

	"songresolve/internal/logger"
	"songresolve/internal/notify"
	"songresolve/internal/similarity"
	"songresolve/internal/sortname"
)

// Terms is what the query asks for: either Structured or FullText.
type Terms interface {
	keys(norm Normalizer) similarity.Keys
}

// Structured names the artist, track and optionally the album.
type Structured struct {
	Artist string
	Track  string
	Album  string
}

func (t Structured) keys(norm Normalizer) similarity.Keys {
	return similarity.Keys{
		Artist: norm(t.Artist, true),
		Album:  norm(t.Album, false),
		Track:  norm(t.Track, false),
	}
}

// FullText is a single free-form search string.
type FullText struct {
	Text string
}

func (t FullText) keys(norm Normalizer) similarity.Keys {
	rest := norm(t.Text, false)
	return similarity.Keys{
		Artist: norm(t.Text, true),
		Album:  rest,
		Track:  rest,
	}
}

// Normalizer turns a display string into a comparison key.
type Normalizer func(text string, isArtist bool) string

// Dispatcher submits a query to the resolver backends. Resolve must not block.
type Dispatcher interface {
	Resolve(q *Query)
}

// TopologyChange reports a resolver backend joining or leaving.
type TopologyChange struct {
	Added   bool
	Backend string
}

// TopologySource publishes resolver backend changes.
type TopologySource interface {
	SubscribeTopology() *notify.Subscription[TopologyChange]
}

// IndexSource publishes a signal each time the local index becomes ready.
type IndexSource interface {
	SubscribeIndexReady() *notify.Subscription[struct{}]
}

// Env carries the collaborators a Query talks to. Nil members are allowed.
type Env struct {
	Dispatcher     Dispatcher
	Topology       TopologySource
	Index          IndexSource
	Normalize      Normalizer
	AcceptMimetype func(mimetype string) bool
	Logger         *logger.Logger
}

// Factory creates queries bound to one Env.
type Factory struct {
	env Env
}

// NewFactory returns a Factory. A nil normalizer defaults to sortname.Sortname.
func NewFactory(env Env) *Factory {
	return &Factory{env: env}
}

// Option sets optional metadata hints on a new query.
type Option func(*Query)

// WithDuration sets the expected duration in seconds.
func WithDuration(seconds int) Option {
	return func(q *Query) { q.duration = seconds }
}

// WithAlbumPos sets the expected position on the album.
func WithAlbumPos(pos int) Option {
	return func(q *Query) {
		if pos > 0 {
			q.albumPos = pos
		}
	}
}

// Get returns a structured query. Auto-resolution only happens for queries
// with an identifier; such queries are submitted right away and refreshed
// whenever the local index becomes ready.
func (f *Factory) Get(artist, track, album, qid string, autoResolve bool, opts ...Option) *Query {
	if qid == "" {
		autoResolve = false
	}

	q := newQuery(f.env, Structured{Artist: artist, Track: track, Album: album}, qid, opts)
	q.listen(autoResolve, true)

	if autoResolve {
		q.Resolve()
	}
	return q
}

// GetFullText returns a free-text query. Identified queries are submitted
// right away and refreshed whenever the local index becomes ready.
func (f *Factory) GetFullText(text, qid string, opts ...Option) *Query {
	q := newQuery(f.env, FullText{Text: text}, qid, opts)
	q.listen(qid != "", false)

	if qid != "" {
		q.Resolve()
	}
	return q
}

// Album is an album hit contributed to a full-text query.
type Album struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// Artist is an artist hit contributed to a full-text query.
type Artist struct {
	Name string `json:"name"`
}

// PlayedBy records who played a query last and when.
type PlayedBy struct {
	Source Source
	At     time.Time
}

// Query is a request for one piece of music and the results gathered for it.
type Query struct {
	env   Env
	terms Terms
	keys  similarity.Keys

	duration int
	albumPos int

	events    notify.Feed[Event]
	listeners *listeners

	mu        sync.Mutex
	id        string
	results   []Result
	watches   map[string]func()
	albums    []Album
	artists   []Artist
	resolvers []BackendRef
	playedBy  PlayedBy
	submitted bool
	finished  bool
	solved    bool
	playable  bool
}

func newQuery(env Env, terms Terms, qid string, opts []Option) *Query {
	if env.Normalize == nil {
		env.Normalize = sortname.Sortname
	}
	if env.Logger == nil {
		env.Logger = logger.Discard()
	}

	q := &Query{
		env:      env,
		terms:    terms,
		id:       qid,
		duration: -1,
		watches:  make(map[string]func()),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.keys = terms.keys(env.Normalize)
	return q
}

// ID returns the query identifier, generating one on first use.
func (q *Query) ID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idLocked()
}

func (q *Query) idLocked() string {
	if q.id == "" {
		q.id = uuid.New().String()
	}
	return q.id
}

// Terms returns what the query asks for.
func (q *Query) Terms() Terms { return q.terms }

// IsFullText reports whether this is a free-text query.
func (q *Query) IsFullText() bool {
	_, ok := q.terms.(FullText)
	return ok
}

// Artist returns the requested artist, empty for free-text queries.
func (q *Query) Artist() string {
	if t, ok := q.terms.(Structured); ok {
		return t.Artist
	}
	return ""
}

// Track returns the requested track, empty for free-text queries.
func (q *Query) Track() string {
	if t, ok := q.terms.(Structured); ok {
		return t.Track
	}
	return ""
}

// Album returns the requested album, empty for free-text queries.
func (q *Query) Album() string {
	if t, ok := q.terms.(Structured); ok {
		return t.Album
	}
	return ""
}

// FullText returns the search text, empty for structured queries.
func (q *Query) FullText() string {
	if t, ok := q.terms.(FullText); ok {
		return t.Text
	}
	return ""
}

// ArtistSortKey returns the normalized artist, or the normalized text for
// free-text queries.
func (q *Query) ArtistSortKey() string { return q.keys.Artist }

// AlbumSortKey returns the normalized album, or the normalized text for
// free-text queries.
func (q *Query) AlbumSortKey() string { return q.keys.Album }

// TrackSortKey returns the normalized track, or the normalized text for
// free-text queries.
func (q *Query) TrackSortKey() string { return q.keys.Track }

// Duration returns the expected duration in seconds, or -1 when unknown.
func (q *Query) Duration() int { return q.duration }

// AlbumPos returns the expected album position, or 0 when unknown.
func (q *Query) AlbumPos() int { return q.albumPos }

// HowSimilar scores a candidate track against this query in [0,1].
func (q *Query) HowSimilar(artist, album, track string) float64 {
	norm := q.env.Normalize
	return similarity.Score(q.keys, q.IsFullText(), similarity.Keys{
		Artist: norm(artist, true),
		Album:  norm(album, false),
		Track:  norm(track, false),
	})
}

// SetPlayedBy records the last playback attribution.
func (q *Query) SetPlayedBy(src Source, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.playedBy = PlayedBy{Source: src, At: at}
}

// PlayedBy returns the last playback attribution.
func (q *Query) PlayedBy() PlayedBy {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playedBy
}

// ToMap flattens the query into a record for the UI and script layers.
func (q *Query) ToMap() map[string]any {
	m := map[string]any{
		"artist":   q.Artist(),
		"album":    q.Album(),
		"track":    q.Track(),
		"duration": q.duration,
		"qid":      q.ID(),
	}
	if q.IsFullText() {
		m["fulltext"] = q.FullText()
	}
	return m
}

func (q *Query) String() string {
	if q.IsFullText() {
		return fmt.Sprintf("Query(%s, Fulltext: %s)", q.ID(), q.FullText())
	}
	return fmt.Sprintf("Query(%s, %s - %s)", q.ID(), q.Artist(), q.Track())
}

// Close drops the query's subscriptions to resolver and index events and
// ends every subscription to its own events. Close is optional: an
// unreachable query unsubscribes itself.
func (q *Query) Close() {
	if q.listeners != nil {
		q.listeners.close()
	}
	q.events.Close()
}

// listeners holds the query's upstream subscriptions. It never references
// the query, so the query can be collected while they are open.
type listeners struct {
	topology *notify.Subscription[TopologyChange]
	index    *notify.Subscription[struct{}]
	once     sync.Once
}

func (l *listeners) close() {
	l.once.Do(func() {
		if l.topology != nil {
			l.topology.Close()
		}
		if l.index != nil {
			l.index.Close()
		}
	})
}

func (q *Query) listen(index, topology bool) {
	l := &listeners{}
	if index && q.env.Index != nil {
		l.index = q.env.Index.SubscribeIndexReady()
	}
	if topology && q.env.Topology != nil {
		l.topology = q.env.Topology.SubscribeTopology()
	}
	if l.index == nil && l.topology == nil {
		return
	}

	q.listeners = l
	runtime.AddCleanup(q, func(l *listeners) { l.close() }, l)

	var topoC <-chan TopologyChange
	var indexC <-chan struct{}
	if l.topology != nil {
		topoC = l.topology.C()
	}
	if l.index != nil {
		indexC = l.index.C()
	}
	go watch(weak.Make(q), topoC, indexC)
}

func watch(wp weak.Pointer[Query], topoC <-chan TopologyChange, indexC <-chan struct{}) {
	for topoC != nil || indexC != nil {
		select {
		case _, ok := <-topoC:
			if !ok {
				topoC = nil
				continue
			}
			q := wp.Value()
			if q == nil {
				return
			}
			q.onResolverChanged()
		case _, ok := <-indexC:
			if !ok {
				indexC = nil
				continue
			}
			q := wp.Value()
			if q == nil {
				return
			}
			q.RefreshResults()
		}
	}
}
