// Package resolver keeps the set of live resolver backends.
//
// Backends come and go at runtime. Queries and the pipeline hold Handles,
// which stop resolving once their backend has been removed.
package resolver

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"songresolve/internal/notify"
	"songresolve/internal/query"
)

// Resolver is a backend that finds results for a query.
type Resolver interface {
	Name() string
	// Weight orders backends; heavier ones are asked first.
	Weight() int
	Resolve(ctx context.Context, q *query.Query) ([]query.Result, error)
}

type slot struct {
	r   Resolver
	gen uint64
}

// Registry is the set of live backends. It implements query.TopologySource.
type Registry struct {
	mu    sync.RWMutex
	slots []slot
	free  []int
	n     int

	topology notify.Feed[query.TopologyChange]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers r and announces it to topology subscribers.
func (reg *Registry) Add(r Resolver) Handle {
	reg.mu.Lock()
	var idx int
	if n := len(reg.free); n > 0 {
		idx = reg.free[n-1]
		reg.free = reg.free[:n-1]
	} else {
		idx = len(reg.slots)
		reg.slots = append(reg.slots, slot{})
	}
	reg.slots[idx].r = r
	reg.slots[idx].gen++
	h := Handle{reg: reg, idx: idx, gen: reg.slots[idx].gen}
	reg.n++
	reg.mu.Unlock()

	reg.topology.Send(query.TopologyChange{Added: true, Backend: r.Name()})
	return h
}

// Remove unregisters the backend behind h. It reports false when h was
// already stale.
func (reg *Registry) Remove(h Handle) bool {
	reg.mu.Lock()
	if h.reg != reg || h.idx < 0 || h.idx >= len(reg.slots) {
		reg.mu.Unlock()
		return false
	}
	s := &reg.slots[h.idx]
	if s.r == nil || s.gen != h.gen {
		reg.mu.Unlock()
		return false
	}
	name := s.r.Name()
	s.r = nil
	reg.free = append(reg.free, h.idx)
	reg.n--
	reg.mu.Unlock()

	reg.topology.Send(query.TopologyChange{Added: false, Backend: name})
	return true
}

// Live returns handles to every registered backend, heaviest first and
// then by name.
func (reg *Registry) Live() []Handle {
	reg.mu.RLock()
	type entry struct {
		h Handle
		r Resolver
	}
	entries := make([]entry, 0, reg.n)
	for i, s := range reg.slots {
		if s.r != nil {
			entries = append(entries, entry{Handle{reg: reg, idx: i, gen: s.gen}, s.r})
		}
	}
	reg.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.r.Weight(), a.r.Weight()); c != 0 {
			return c
		}
		return cmp.Compare(a.r.Name(), b.r.Name())
	})

	handles := make([]Handle, len(entries))
	for i, e := range entries {
		handles[i] = e.h
	}
	return handles
}

// Len returns the number of registered backends.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.n
}

// SubscribeTopology returns a subscription to backend additions and removals.
func (reg *Registry) SubscribeTopology() *notify.Subscription[query.TopologyChange] {
	return reg.topology.Subscribe()
}

// Close ends every topology subscription.
func (reg *Registry) Close() {
	reg.topology.Close()
}

func (reg *Registry) lookup(idx int, gen uint64) (Resolver, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if idx < 0 || idx >= len(reg.slots) {
		return nil, false
	}
	s := reg.slots[idx]
	if s.r == nil || s.gen != gen {
		return nil, false
	}
	return s.r, true
}

// Handle is a non-owning reference to a registered backend. It implements
// query.BackendRef. The zero Handle refers to nothing.
type Handle struct {
	reg *Registry
	idx int
	gen uint64
}

// Resolver returns the backend, or false once it has been removed.
func (h Handle) Resolver() (Resolver, bool) {
	if h.reg == nil {
		return nil, false
	}
	return h.reg.lookup(h.idx, h.gen)
}

// Get returns the backend as a query.Backend, or false once it has been
// removed.
func (h Handle) Get() (query.Backend, bool) {
	r, ok := h.Resolver()
	if !ok {
		return nil, false
	}
	return r, true
}
