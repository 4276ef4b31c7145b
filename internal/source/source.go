// Package source models the owners of music collections: this machine's own
// library and the remote peers it is connected to.
package source

import (
	"sync"

	"github.com/google/uuid"
)

// Source is a collection owner. The local source is always online; peers go
// online and offline as their connections come and go.
type Source struct {
	id    string
	name  string
	local bool

	mu       sync.Mutex
	online   bool
	watchers map[int]func()
	nextID   int
}

// NewLocal returns the source owning this machine's collection.
func NewLocal(name string) *Source {
	return &Source{
		id:       uuid.New().String(),
		name:     name,
		local:    true,
		online:   true,
		watchers: make(map[int]func()),
	}
}

// NewPeer returns a remote source. Peers start offline.
func NewPeer(id, name string) *Source {
	if id == "" {
		id = uuid.New().String()
	}
	return &Source{
		id:       id,
		name:     name,
		watchers: make(map[int]func()),
	}
}

func (s *Source) ID() string    { return s.id }
func (s *Source) Name() string  { return s.name }
func (s *Source) IsLocal() bool { return s.local }

// IsOnline reports whether the source can serve streams right now.
func (s *Source) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline updates the online status and notifies watchers on change.
// The local source cannot go offline.
func (s *Source) SetOnline(online bool) {
	s.mu.Lock()
	if s.local || s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	fns := make([]func(), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnStatusChange registers fn to run after every online status change.
func (s *Source) OnStatusChange(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// Watchers returns the number of registered status watchers.
func (s *Source) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

func (s *Source) String() string {
	if s.name != "" {
		return s.name
	}
	return s.id
}
