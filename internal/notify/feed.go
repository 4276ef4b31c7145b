// Package notify provides a broadcast feed with queued delivery.
//
// Every subscriber owns an unbounded FIFO mailbox drained by its own
// goroutine, so Send never blocks on a slow consumer and a handler never
// runs inside the call that emitted the value.
package notify

import "sync"

// Feed broadcasts values of type T to all current subscribers.
// The zero value is ready to use.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscribe registers a new subscriber. Values sent after Subscribe returns
// are delivered on the subscription's channel in send order.
func (f *Feed[T]) Subscribe() *Subscription[T] {
	s := newSubscription(f)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		s.shutdown()
		return s
	}
	if f.subs == nil {
		f.subs = make(map[*Subscription[T]]struct{})
	}
	f.subs[s] = struct{}{}
	return s
}

// Send queues v for every subscriber.
func (f *Feed[T]) Send(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for s := range f.subs {
		s.push(v)
	}
}

// Len returns the number of live subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription and rejects future ones.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.closed = true
	f.mu.Unlock()

	for s := range subs {
		s.shutdown()
	}
}

func (f *Feed[T]) remove(s *Subscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, s)
}

// Subscription is one subscriber's mailbox.
type Subscription[T any] struct {
	feed *Feed[T]

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool

	out  chan T
	done chan struct{}
	once sync.Once
}

func newSubscription[T any](f *Feed[T]) *Subscription[T] {
	s := &Subscription[T]{
		feed: f,
		out:  make(chan T),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// C returns the delivery channel. It is closed once the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close detaches the subscription from its feed. Undelivered values are dropped.
func (s *Subscription[T]) Close() {
	if s.feed != nil {
		s.feed.remove(s)
	}
	s.shutdown()
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, v)
	s.cond.Signal()
}

func (s *Subscription[T]) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Signal()
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *Subscription[T]) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		v := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
