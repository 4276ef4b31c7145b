package query

// Backend is the part of a resolver backend a query knows about.
type Backend interface {
	Name() string
}

// BackendRef is a non-owning reference to a Backend. Get reports false once
// the backend has gone away.
type BackendRef interface {
	Get() (Backend, bool)
}

// State is where a query is in its resolution round.
type State int

const (
	Unresolved State = iota
	Resolving
	Finished
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// State returns the current resolution state.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.finished:
		return Finished
	case q.submitted:
		return Resolving
	}
	return Unresolved
}

// ResolveFinished reports whether the last resolution round has completed.
func (q *Query) ResolveFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

// Resolve submits the query to the dispatcher, starting a new round.
func (q *Query) Resolve() {
	q.mu.Lock()
	q.submitted = true
	q.finished = false
	q.mu.Unlock()

	q.dispatch()
}

// RefreshResults resubmits the query if its last round has finished.
// A round still in progress is left alone.
func (q *Query) RefreshResults() {
	q.mu.Lock()
	if !q.finished {
		q.mu.Unlock()
		return
	}
	q.finished = false
	q.submitted = true
	q.mu.Unlock()

	q.env.Logger.Debug("Re-resolving %s", q)
	q.dispatch()
}

func (q *Query) dispatch() {
	if q.env.Dispatcher != nil {
		q.env.Dispatcher.Resolve(q)
	}
}

// OnResolvingFinished is called by the dispatcher once no backend is working
// on the query any more. Only the first call of a round has an effect.
func (q *Query) OnResolvingFinished() {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		return
	}
	q.finished = true
	q.submitted = true
	q.resolvers = nil
	q.emitLocked(Event{Kind: ResolvingFinished, Value: q.solved})
	q.mu.Unlock()

	q.env.Logger.Debug("Finished resolving: %s", q)
}

// SetCurrentResolver records a backend that is working on the query.
func (q *Query) SetCurrentResolver(ref BackendRef) {
	if ref == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitted = true
	q.resolvers = append(q.resolvers, ref)
}

// CurrentResolver returns the most recently recorded backend that is still
// alive, or nil.
func (q *Query) CurrentResolver() Backend {
	q.mu.Lock()
	refs := make([]BackendRef, len(q.resolvers))
	copy(refs, q.resolvers)
	q.mu.Unlock()

	for i := len(refs) - 1; i >= 0; i-- {
		if b, ok := refs[i].Get(); ok {
			return b
		}
	}
	return nil
}

func (q *Query) onResolverChanged() {
	if !q.Solved() {
		q.RefreshResults()
	}
}
