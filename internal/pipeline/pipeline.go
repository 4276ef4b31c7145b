// Package pipeline dispatches queries to the registered resolver backends.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"songresolve/internal/logger"
	"songresolve/internal/metrics"
	"songresolve/internal/query"
	"songresolve/internal/resolver"
)

// Options tune a resolution round.
type Options struct {
	// Timeout bounds each backend call. Zero means no limit.
	Timeout time.Duration
	// MaxParallel is the number of backends asked at once. Zero means one.
	MaxParallel int
	// StopWhenSolved skips backends not yet started once the query is solved.
	StopWhenSolved bool
}

// Pipeline runs resolution rounds. It implements query.Dispatcher.
type Pipeline struct {
	ctx     context.Context
	reg     *resolver.Registry
	log     *logger.Logger
	metrics *metrics.Metrics
	opts    Options

	wg sync.WaitGroup
}

// New returns a Pipeline whose rounds stop when ctx is cancelled.
// log and m may be nil.
func New(ctx context.Context, reg *resolver.Registry, log *logger.Logger, m *metrics.Metrics, opts Options) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	return &Pipeline{ctx: ctx, reg: reg, log: log, metrics: m, opts: opts}
}

// Resolve starts a resolution round for q and returns immediately.
func (p *Pipeline) Resolve(q *query.Query) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(q)
	}()
}

// Wait blocks until every round in flight has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(q *query.Query) {
	handles := p.reg.Live()
	p.log.Debug("Resolving %s with %d backends", q, len(handles))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxParallel)

	for _, h := range handles {
		if p.ctx.Err() != nil {
			break
		}
		if p.opts.StopWhenSolved && q.Solved() {
			p.log.Debug("%s solved, skipping remaining backends", q)
			break
		}
		r, ok := h.Resolver()
		if !ok {
			continue
		}

		q.SetCurrentResolver(h)
		g.Go(func() error {
			p.call(q, r)
			return nil
		})
	}
	g.Wait()

	q.OnResolvingFinished()
	p.metrics.QueryFinished(q.Solved())
}

func (p *Pipeline) call(q *query.Query, r resolver.Resolver) {
	ctx := p.ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := r.Resolve(ctx, q)
	p.metrics.BackendDone(r.Name(), len(results), time.Since(start), err)

	if err != nil {
		p.log.Warn("%s failed for %s: %v", r.Name(), q, err)
		return
	}
	p.log.Debug("%s returned %d results for %s", r.Name(), len(results), q)
	if len(results) > 0 {
		q.AddResults(results)
	}
}
