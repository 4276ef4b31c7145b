package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"songresolve/internal/query"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for simplicity
	},
}

// EventMessage is one query notification as sent to websocket clients.
type EventMessage struct {
	Type    string           `json:"type"`
	QueryID string           `json:"query_id"`
	Results []map[string]any `json:"results,omitempty"`
	Albums  []query.Album    `json:"albums,omitempty"`
	Artists []query.Artist   `json:"artists,omitempty"`
	Value   *bool            `json:"value,omitempty"`
	Query   *QueryResponse   `json:"query,omitempty"`
}

func eventToMessage(ev query.Event) EventMessage {
	msg := EventMessage{
		Type:    ev.Kind.String(),
		QueryID: ev.QueryID,
		Albums:  ev.Albums,
		Artists: ev.Artists,
	}
	if len(ev.Results) > 0 {
		msg.Results = resultMaps(ev.Results)
	}
	switch ev.Kind {
	case query.PlayableChanged, query.SolvedChanged, query.ResolvingFinished:
		v := ev.Value
		msg.Value = &v
	}
	return msg
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	queryID := r.URL.Query().Get("query_id")
	if queryID == "" {
		http.Error(w, "query_id required", http.StatusBadRequest)
		return
	}
	q, err := s.queries.Get(queryID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	follow := r.URL.Query().Get("follow") == "1"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before the snapshot so no event falls in between
	sub := q.Subscribe()
	defer sub.Close()

	snapshot := queryToResponse(q)
	if err := s.writeMessage(conn, EventMessage{Type: "snapshot", QueryID: snapshot.ID, Query: snapshot}); err != nil {
		return
	}
	if !follow && snapshot.State == query.Finished.String() {
		return
	}

	// Send ping to keep connection alive
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := s.writeMessage(conn, eventToMessage(ev)); err != nil {
				return
			}
			if ev.Kind == query.ResolvingFinished && !follow {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "resolving finished"))
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) writeMessage(conn *websocket.Conn, msg EventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal event: %v", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("Failed to write WebSocket message: %v", err)
		return err
	}
	return nil
}
