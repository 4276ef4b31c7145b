package query

import "songresolve/internal/notify"

// EventKind identifies a query notification.
type EventKind int

const (
	ResultsAdded EventKind = iota
	ResultRemoved
	ResultsChanged
	AlbumsAdded
	ArtistsAdded
	PlayableChanged
	SolvedChanged
	ResolvingFinished
)

var eventNames = map[EventKind]string{
	ResultsAdded:      "results_added",
	ResultRemoved:     "result_removed",
	ResultsChanged:    "results_changed",
	AlbumsAdded:       "albums_added",
	ArtistsAdded:      "artists_added",
	PlayableChanged:   "playable_changed",
	SolvedChanged:     "solved_changed",
	ResolvingFinished: "resolving_finished",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a notification emitted by a Query after a mutation commits.
//
// Results carries the added results for ResultsAdded and the single removed
// result for ResultRemoved. Value carries the new flag for PlayableChanged and
// SolvedChanged, and the solved state for ResolvingFinished.
type Event struct {
	Kind    EventKind
	QueryID string
	Results []Result
	Albums  []Album
	Artists []Artist
	Value   bool
}

// Subscribe returns a queued subscription to this query's events.
// Call Close on it when done.
func (q *Query) Subscribe() *notify.Subscription[Event] {
	return q.events.Subscribe()
}

// emitLocked queues ev for every subscriber. q.mu must be held, so events
// reach subscribers in the order their mutations committed.
func (q *Query) emitLocked(ev Event) {
	ev.QueryID = q.idLocked()
	q.events.Send(ev)
}

// transitions collects the flag changes made by one recompute.
type transitions struct {
	playableChanged bool
	playable        bool
	solvedChanged   bool
	solved          bool
	regressed       bool
}

// emitTransitionsLocked queues the flag changes in tr. q.mu must be held.
func (q *Query) emitTransitionsLocked(tr transitions) {
	if tr.playableChanged {
		q.emitLocked(Event{Kind: PlayableChanged, Value: tr.playable})
	}
	if tr.solvedChanged {
		q.emitLocked(Event{Kind: SolvedChanged, Value: tr.solved})
	}
}

// afterCommit sends a query that stopped being playable back to the
// resolvers. q.mu must not be held.
func (q *Query) afterCommit(tr transitions) {
	if tr.regressed {
		q.RefreshResults()
	}
}
