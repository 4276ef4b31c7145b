package query

import "slices"

// Source is the collection owner a result belongs to.
type Source interface {
	ID() string
	IsLocal() bool
	IsOnline() bool
}

// Result is a playable candidate offered by a resolver backend.
type Result interface {
	ID() string
	// Score is the match confidence in [0,1].
	Score() float64
	// Source returns nil for results not tied to any collection.
	Source() Source
	Mimetype() string
	// OnChange registers fn to run after the score or the source status
	// changes. The returned func cancels the registration.
	OnChange(fn func()) (cancel func())
}

const solvedScore = 0.99

// AddResults merges a batch of results into the ranked set. Results whose
// mimetype is rejected by the Env policy, and results already present, are
// skipped; ResultsAdded carries exactly the ones that went in.
func (q *Query) AddResults(rs []Result) {
	accepted := make([]Result, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			continue
		}
		if q.env.AcceptMimetype != nil && !q.env.AcceptMimetype(r.Mimetype()) {
			q.env.Logger.Debug("Won't accept result %s, unsupported mimetype %q", r.ID(), r.Mimetype())
			continue
		}
		accepted = append(accepted, r)
	}

	q.mu.Lock()
	added := make([]Result, 0, len(accepted))
	for _, r := range accepted {
		if _, dup := q.watches[r.ID()]; dup {
			continue
		}
		q.results = append(q.results, r)
		q.watches[r.ID()] = r.OnChange(q.onResultStatusChanged)
		added = append(added, r)
	}
	if len(added) > 0 {
		slices.SortStableFunc(q.results, compareResults)
	}
	tr := q.recomputeLocked()
	if len(added) > 0 {
		q.emitLocked(Event{Kind: ResultsAdded, Results: added})
	}
	q.emitTransitionsLocked(tr)
	q.mu.Unlock()

	q.afterCommit(tr)
}

// RemoveResult drops r from the ranked set. Removing an absent result only
// re-checks the state flags.
func (q *Query) RemoveResult(r Result) {
	if r == nil {
		return
	}

	q.mu.Lock()
	idx := slices.IndexFunc(q.results, func(x Result) bool { return x.ID() == r.ID() })
	var removed Result
	if idx >= 0 {
		removed = q.results[idx]
		q.results = slices.Delete(q.results, idx, idx+1)
		if cancel := q.watches[r.ID()]; cancel != nil {
			cancel()
		}
		delete(q.watches, r.ID())
	}
	tr := q.recomputeLocked()
	if removed != nil {
		q.emitLocked(Event{Kind: ResultRemoved, Results: []Result{removed}})
	}
	q.emitTransitionsLocked(tr)
	q.mu.Unlock()

	q.afterCommit(tr)
}

// ClearResults removes every result.
func (q *Query) ClearResults() {
	for _, r := range q.Results() {
		q.RemoveResult(r)
	}
}

// Results returns a snapshot of the ranked results, best first.
func (q *Query) Results() []Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.results)
}

// NumResults returns the number of results.
func (q *Query) NumResults() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.results)
}

// Solved reports whether some result is a near-perfect match.
func (q *Query) Solved() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.solved
}

// Playable reports whether some result can be played right now.
func (q *Query) Playable() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playable
}

// CheckResults recomputes the solved and playable flags from the current
// results and emits only the transitions. A query that stops being playable
// is sent back to the resolvers.
func (q *Query) CheckResults() {
	q.mu.Lock()
	tr := q.recomputeLocked()
	q.emitTransitionsLocked(tr)
	q.mu.Unlock()

	q.afterCommit(tr)
}

// AddAlbums records album hits. Albums already recorded under the same
// artist and name are skipped; AlbumsAdded carries the new ones.
func (q *Query) AddAlbums(albums []Album) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var added []Album
	for _, a := range albums {
		if slices.Contains(q.albums, a) || slices.Contains(added, a) {
			continue
		}
		added = append(added, a)
	}
	if len(added) == 0 {
		return
	}
	q.albums = append(q.albums, added...)
	q.emitLocked(Event{Kind: AlbumsAdded, Albums: added})
}

// AddArtists records artist hits. Artists already recorded are skipped;
// ArtistsAdded carries the new ones.
func (q *Query) AddArtists(artists []Artist) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var added []Artist
	for _, a := range artists {
		if slices.Contains(q.artists, a) || slices.Contains(added, a) {
			continue
		}
		added = append(added, a)
	}
	if len(added) == 0 {
		return
	}
	q.artists = append(q.artists, added...)
	q.emitLocked(Event{Kind: ArtistsAdded, Artists: added})
}

// Albums returns the album hits.
func (q *Query) Albums() []Album {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.albums)
}

// Artists returns the artist hits.
func (q *Query) Artists() []Artist {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.artists)
}

func (q *Query) onResultStatusChanged() {
	q.mu.Lock()
	slices.SortStableFunc(q.results, compareResults)
	tr := q.recomputeLocked()
	q.emitLocked(Event{Kind: ResultsChanged})
	q.emitTransitionsLocked(tr)
	q.mu.Unlock()

	q.afterCommit(tr)
}

// recomputeLocked derives the flags from q.results. q.mu must be held.
func (q *Query) recomputeLocked() transitions {
	playable, solved := false, false
	for _, r := range q.results {
		score := r.Score()
		src := r.Source()
		if src == nil && score > 0 {
			playable = true
		} else if src != nil && src.IsOnline() {
			playable = true
		}
		if score > solvedScore {
			solved = true
		}
		if playable && solved {
			break
		}
	}

	tr := transitions{playable: playable, solved: solved}
	if q.playable != playable {
		tr.playableChanged = true
		tr.regressed = q.playable
		q.playable = playable
	}
	if q.solved != solved {
		tr.solvedChanged = true
		q.solved = solved
	}
	return tr
}

// compareResults orders by descending score; on equal scores a result from
// the local source comes first.
func compareResults(a, b Result) int {
	as, bs := a.Score(), b.Score()
	switch {
	case as > bs:
		return -1
	case as < bs:
		return 1
	}

	al, bl := isLocal(a), isLocal(b)
	switch {
	case al && !bl:
		return -1
	case bl && !al:
		return 1
	}
	return 0
}

func isLocal(r Result) bool {
	src := r.Source()
	return src != nil && src.IsLocal()
}
