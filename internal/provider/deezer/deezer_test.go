package deezer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"songresolve/internal/query"
)

func structured(artist, track, album string) *query.Query {
	return query.NewFactory(query.Env{}).Get(artist, track, album, "", false)
}

func santeria() trackItem {
	return trackItem{
		ID:         1,
		Title:      "Santeria",
		TitleShort: "Santeria",
		Link:       "https://www.deezer.com/track/1",
		Preview:    "https://cdn.example.com/preview-1.mp3",
		Duration:   240,
		Artist:     artist{ID: 100, Name: "Marracash"},
		Album: albumInfo{
			ID:       200,
			Title:    "Santeria",
			CoverBig: "https://example.com/cover-big.jpg",
			CoverXL:  "https://example.com/cover-xl.jpg",
		},
	}
}

func TestResolve(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "songresolve/1.0" {
			t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		if got := r.URL.Query().Get("q"); got != `track:"Santeria" artist:"Marracash"` {
			t.Errorf("q = %q", got)
		}
		unrelated := santeria()
		unrelated.TitleShort = "Completely Different Song"
		unrelated.Artist.Name = "Somebody Else"
		unrelated.Preview = "https://cdn.example.com/preview-2.mp3"
		json.NewEncoder(w).Encode(searchResponse{Data: []trackItem{unrelated, santeria()}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	results, err := c.Resolve(context.Background(), structured("Marracash", "Santeria", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Score() != 1.0 {
		t.Errorf("Score = %v, want 1", r.Score())
	}
	if r.Source() != nil {
		t.Errorf("preview result should belong to no source")
	}
	if r.Mimetype() != "audio/mpeg" {
		t.Errorf("Mimetype = %q", r.Mimetype())
	}
}

func TestResolveTwiceKeepsResultSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Data: []trackItem{santeria()}})
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL
	q := structured("Marracash", "Santeria", "")

	for i := 0; i < 3; i++ {
		results, err := c.Resolve(context.Background(), q)
		if err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
		q.AddResults(results)
	}
	if q.NumResults() != 1 {
		t.Errorf("NumResults = %d after three rounds, want 1", q.NumResults())
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	c := New(nil, 0.5, 10)
	results, err := c.Resolve(context.Background(), structured("", "", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty query, got %d", len(results))
	}
}

func TestResolveNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Data: []trackItem{}})
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	results, err := c.Resolve(context.Background(), structured("", "nonexistent", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestResolveAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{
			Error: &apiError{Type: "Exception", Message: "Quota exceeded", Code: 4},
		})
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	_, err := c.Resolve(context.Background(), structured("", "test", ""))
	if err == nil {
		t.Fatal("expected error for API error response")
	}
}

func TestResolveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	if _, err := c.Resolve(context.Background(), structured("a", "b", "")); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name string
		q    *query.Query
		want string
	}{
		{
			name: "all fields",
			q:    structured("Marracash", "Santeria", "Santeria"),
			want: `track:"Santeria" artist:"Marracash" album:"Santeria"`,
		},
		{
			name: "title only",
			q:    structured("", "Santeria", ""),
			want: `track:"Santeria"`,
		},
		{
			name: "quotes stripped",
			q:    structured("Marracash", `"Money"`, ""),
			want: `track:"Money" artist:"Marracash"`,
		},
		{
			name: "full text",
			q:    query.NewFactory(query.Env{}).GetFullText(" marracash santeria ", ""),
			want: "marracash santeria",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.q)
			if got != tt.want {
				t.Errorf("buildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSkipsMissingPreview(t *testing.T) {
	noPreview := santeria()
	noPreview.Preview = ""
	live := santeria()
	live.Title = "Salvador Dalí (Live @ Santeria Tour 2017)"
	live.TitleShort = "Salvador Dalí"

	results := parseResults([]trackItem{noPreview, live})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Track != "Salvador Dalí" {
		t.Errorf("expected TitleShort, got %q", results[0].Track)
	}
	if results[0].ArtworkURL != "https://example.com/cover-xl.jpg" {
		t.Errorf("ArtworkURL = %q, want cover-xl", results[0].ArtworkURL)
	}
}
