// Package shutdown ties process signals to a cancellable context and runs
// registered cleanups once.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown.
type Handler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	cleanupFns []func()
	once       sync.Once
	done       chan struct{}
}

// New creates a handler whose context is derived from parent.
func New(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Context returns the shutdown context. It is cancelled when Shutdown runs.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers fn to run on shutdown. Cleanups run in reverse
// registration order.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen shuts down on SIGINT or SIGTERM.
func (h *Handler) Listen() {
	sigCtx, stop := signal.NotifyContext(h.ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		stop()
		h.Shutdown()
	}()
}

// Shutdown cancels the context and runs the cleanups. Only the first call
// has an effect.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		fns := h.cleanupFns
		h.cleanupFns = nil
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
		close(h.done)
	})
}

// Wait blocks until Shutdown has finished running the cleanups.
func (h *Handler) Wait() {
	<-h.done
}
