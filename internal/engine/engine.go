// Package engine assembles the resolution stack from a configuration.
package engine

import (
	"context"
	"fmt"

	"songresolve/internal/collection"
	"songresolve/internal/config"
	"songresolve/internal/logger"
	"songresolve/internal/metrics"
	"songresolve/internal/pipeline"
	"songresolve/internal/provider"
	"songresolve/internal/provider/deezer"
	"songresolve/internal/provider/itunes"
	"songresolve/internal/provider/musicbrainz"
	"songresolve/internal/query"
	"songresolve/internal/resolver"
	"songresolve/internal/source"
)

// Engine owns the local collection, the resolver backends and the pipeline
// that queries are dispatched through.
type Engine struct {
	Config   config.Config
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Local    *source.Source
	Index    *collection.Index
	Registry *resolver.Registry
	Pipeline *pipeline.Pipeline
	Queries  *query.Factory

	watcher *collection.Watcher
	cancel  context.CancelFunc
}

// New validates cfg and wires the backends it enables. Nothing is read from
// disk until Start.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}

	ctx, cancel := context.WithCancel(ctx)
	e := &Engine{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics.New(),
		Local:    source.NewLocal("My Collection"),
		Registry: resolver.NewRegistry(),
		cancel:   cancel,
	}
	e.Index = collection.NewIndex(e.Local, log, e.Metrics)

	limiter := provider.NewRateLimiterMap()
	for _, name := range cfg.Backends {
		var r resolver.Resolver
		switch name {
		case config.BackendCollection:
			r = collection.NewResolver(e.Index, cfg.MinScore, cfg.MaxResults)
		case config.BackendDeezer:
			r = deezer.New(limiter, cfg.MinScore, cfg.MaxResults)
		case config.BackendITunes:
			r = itunes.New(limiter, cfg.MinScore, cfg.MaxResults)
		case config.BackendMusicBrainz:
			r = musicbrainz.New(limiter, cfg.MinScore)
		default:
			cancel()
			return nil, fmt.Errorf("unknown backend %q", name)
		}
		e.Registry.Add(r)
		log.Debug("Registered backend %s", name)
	}

	e.Pipeline = pipeline.New(ctx, e.Registry, log, e.Metrics, pipeline.Options{
		Timeout:        cfg.ResolveTimeout,
		MaxParallel:    cfg.MaxParallelBackends,
		StopWhenSolved: cfg.StopWhenSolved,
	})

	e.Queries = query.NewFactory(query.Env{
		Dispatcher:     e.Pipeline,
		Topology:       e.Registry,
		Index:          e.Index,
		AcceptMimetype: cfg.AcceptMimetype,
		Logger:         log,
	})

	return e, nil
}

// Start indexes the collection and, if configured, watches it for changes.
func (e *Engine) Start(ctx context.Context) error {
	if !e.Config.HasBackend(config.BackendCollection) {
		return nil
	}

	stats, err := e.Index.Scan(ctx, e.Config.CollectionDirs)
	if err != nil {
		return fmt.Errorf("failed to scan collection: %w", err)
	}
	e.Log.Debug("Scan found %d files, indexed %d", stats.Files, stats.Indexed)

	if e.Config.WatchCollection {
		e.watcher = collection.NewWatcher(e.Index, e.Config.CollectionDirs, e.Log)
		if err := e.watcher.Start(ctx); err != nil {
			e.watcher = nil
			e.Log.Warn("Collection watcher unavailable: %v", err)
		}
	}
	return nil
}

// Close stops in-flight rounds and releases every subscription.
func (e *Engine) Close() {
	e.cancel()
	if e.watcher != nil {
		e.watcher.Close()
	}
	e.Pipeline.Wait()
	e.Index.Close()
	e.Registry.Close()
}
