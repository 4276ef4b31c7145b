package itunes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"songresolve/internal/query"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		if params.Get("term") != "One More Time Daft Punk" || params.Get("entity") != "song" {
			t.Errorf("unexpected params: %v", params)
		}
		json.NewEncoder(w).Encode(searchResponse{
			ResultCount: 2,
			Results: []resultItem{
				{
					TrackName:      "One More Time",
					ArtistName:     "Daft Punk",
					CollectionName: "Discovery",
					TrackNumber:    1,
					ArtworkURL100:  "https://example.com/100x100bb.jpg",
					PreviewURL:     "https://audio.example.com/preview.m4a",
					TrackViewURL:   "https://music.example.com/track/1",
				},
				{
					TrackName:  "One More Time",
					ArtistName: "Daft Punk",
				},
			},
		})
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	q := query.NewFactory(query.Env{}).Get("Daft Punk", "One More Time", "", "", false)
	results, err := c.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Mimetype() != "audio/mp4" || results[0].Score() != 1.0 {
		t.Errorf("result = %s %v", results[0].Mimetype(), results[0].Score())
	}
}

func TestResolveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(nil, 0.5, 10)
	c.apiURL = srv.URL

	q := query.NewFactory(query.Env{}).GetFullText("daft punk", "")
	if _, err := c.Resolve(context.Background(), q); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestBuildTerm(t *testing.T) {
	f := query.NewFactory(query.Env{})
	tests := []struct {
		name string
		q    *query.Query
		want string
	}{
		{"title and artist", f.Get("Daft Punk", "Aerodynamic", "Discovery", "", false), "Aerodynamic Daft Punk"},
		{"title only", f.Get("", "Aerodynamic", "", "", false), "Aerodynamic"},
		{"empty", f.Get("", "", "", "", false), ""},
		{"full text", f.GetFullText("daft punk discovery", ""), "daft punk discovery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTerm(tt.q); got != tt.want {
				t.Errorf("buildTerm() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseArtworkUpgrade(t *testing.T) {
	results := parseResults([]resultItem{{
		TrackName:     "x",
		PreviewURL:    "https://audio.example.com/p.m4a",
		ArtworkURL100: "https://example.com/100x100bb.jpg",
	}})
	if results[0].ArtworkURL != "https://example.com/600x600bb.jpg" {
		t.Errorf("ArtworkURL = %q", results[0].ArtworkURL)
	}
}
