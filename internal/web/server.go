package web

import (
	"context"
	"net/http"

	"songresolve/internal/logger"
	"songresolve/internal/metrics"
	"songresolve/internal/query"
)

type Server struct {
	ctx     context.Context
	queries *QueryManager
	factory *query.Factory
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewServer(ctx context.Context, factory *query.Factory, queries *QueryManager, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		ctx:     ctx,
		queries: queries,
		factory: factory,
		metrics: m,
		logger:  log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/queries", s.handleQueries)
	mux.HandleFunc("/api/queries/", s.handleQueryAction)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.metrics.Handler())

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
