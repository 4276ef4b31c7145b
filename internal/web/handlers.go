package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"songresolve/internal/query"
)

type CreateQueryRequest struct {
	Artist   string `json:"artist"`
	Track    string `json:"track"`
	Album    string `json:"album"`
	FullText string `json:"fulltext"`
	QID      string `json:"qid"`
	Duration int    `json:"duration"`
}

type QueryResponse struct {
	ID       string           `json:"id"`
	Artist   string           `json:"artist,omitempty"`
	Track    string           `json:"track,omitempty"`
	Album    string           `json:"album,omitempty"`
	FullText string           `json:"fulltext,omitempty"`
	State    string           `json:"state"`
	Solved   bool             `json:"solved"`
	Playable bool             `json:"playable"`
	Results  []map[string]any `json:"results"`
	Albums   []query.Album    `json:"albums,omitempty"`
	Artists  []query.Artist   `json:"artists,omitempty"`
}

// mapper is implemented by results that can describe themselves.
type mapper interface {
	ToMap() map[string]any
}

func resultMaps(rs []query.Result) []map[string]any {
	out := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		if m, ok := r.(mapper); ok {
			out = append(out, m.ToMap())
			continue
		}
		out = append(out, map[string]any{"id": r.ID(), "score": r.Score(), "mimetype": r.Mimetype()})
	}
	return out
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateQuery(w, r)
	case http.MethodGet:
		queries := s.queries.List()
		responses := make([]*QueryResponse, len(queries))
		for i, q := range queries {
			responses[i] = queryToResponse(q)
		}
		writeJSON(w, http.StatusOK, responses)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req CreateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.FullText = strings.TrimSpace(req.FullText)
	if req.FullText == "" && strings.TrimSpace(req.Track) == "" {
		http.Error(w, "track or fulltext is required", http.StatusBadRequest)
		return
	}

	qid := req.QID
	if qid == "" {
		qid = uuid.New().String()
	}
	if _, err := s.queries.Get(qid); err == nil {
		http.Error(w, "query already exists: "+qid, http.StatusConflict)
		return
	}

	var opts []query.Option
	if req.Duration > 0 {
		opts = append(opts, query.WithDuration(req.Duration))
	}

	// Queries with an id resolve as soon as they are created.
	var q *query.Query
	if req.FullText != "" {
		q = s.factory.GetFullText(req.FullText, qid, opts...)
	} else {
		q = s.factory.Get(req.Artist, req.Track, req.Album, qid, true, opts...)
	}
	s.queries.Add(q)
	s.logger.Info("Created %s", q)

	writeJSON(w, http.StatusCreated, queryToResponse(q))
}

func (s *Server) handleQueryAction(w http.ResponseWriter, r *http.Request) {
	// Extract query ID from path: /api/queries/{id} or /api/queries/{id}/refresh
	path := strings.TrimPrefix(r.URL.Path, "/api/queries/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Query ID required", http.StatusBadRequest)
		return
	}

	id := parts[0]

	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		q, err := s.queries.Get(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, queryToResponse(q))

	case r.Method == http.MethodDelete && len(parts) == 1:
		if err := s.queries.Remove(id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "refresh":
		q, err := s.queries.Get(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if q.State() == query.Unresolved {
			q.Resolve()
		} else {
			q.RefreshResults()
		}
		writeJSON(w, http.StatusAccepted, queryToResponse(q))

	default:
		http.Error(w, "Invalid request", http.StatusBadRequest)
	}
}

func queryToResponse(q *query.Query) *QueryResponse {
	return &QueryResponse{
		ID:       q.ID(),
		Artist:   q.Artist(),
		Track:    q.Track(),
		Album:    q.Album(),
		FullText: q.FullText(),
		State:    q.State().String(),
		Solved:   q.Solved(),
		Playable: q.Playable(),
		Results:  resultMaps(q.Results()),
		Albums:   q.Albums(),
		Artists:  q.Artists(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
