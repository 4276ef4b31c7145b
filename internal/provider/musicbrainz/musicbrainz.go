// Package musicbrainz looks queries up in the MusicBrainz catalogue. It
// finds no playable results; it contributes the artists and albums a query
// matches.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"songresolve/internal/provider"
	"songresolve/internal/query"
	"songresolve/internal/sortname"
)

// Client is a MusicBrainz Web API client that implements resolver.Resolver.
type Client struct {
	httpClient *http.Client
	apiURL     string
	limiter    *provider.RateLimiterMap
	minScore   float64
}

// New creates a new MusicBrainz client. limiter may be nil.
func New(limiter *provider.RateLimiterMap, minScore float64) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     "https://musicbrainz.org/ws/2",
		limiter:    limiter,
		minScore:   minScore,
	}
}

func (c *Client) Name() string { return "musicbrainz" }
func (c *Client) Weight() int  { return 10 }

// Resolve searches recordings matching q and adds their artists and albums
// to it. It never returns results.
func (c *Client) Resolve(ctx context.Context, q *query.Query) ([]query.Result, error) {
	term := buildQuery(q)
	if term == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=10", c.apiURL, url.QueryEscape(term))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", "songresolve/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("musicbrainz search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}

	artists, albums := c.collectHits(q, searchResp.Recordings)
	q.AddArtists(artists)
	q.AddAlbums(albums)
	return nil, nil
}

// doWithRetry executes the request, retrying once on 429/503.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		resp.Body.Close()
		retryAfter := 2
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if parsed, err := strconv.Atoi(ra); err == nil {
				retryAfter = parsed
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(retryAfter) * time.Second):
		}

		return c.httpClient.Do(req.Clone(ctx))
	}

	return resp, nil
}

func buildQuery(q *query.Query) string {
	if q.IsFullText() {
		return strings.TrimSpace(q.FullText())
	}

	var parts []string
	if q.Track() != "" {
		parts = append(parts, fmt.Sprintf("recording:%q", q.Track()))
	}
	if q.Artist() != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", q.Artist()))
	}
	if q.Album() != "" {
		parts = append(parts, fmt.Sprintf("release:%q", q.Album()))
	}
	return strings.Join(parts, " AND ")
}

// collectHits keeps recordings scoring at least minScore against q and
// returns their distinct artists and albums in response order.
func (c *Client) collectHits(q *query.Query, recordings []recording) ([]query.Artist, []query.Album) {
	seenArtists := make(map[string]bool)
	seenAlbums := make(map[string]bool)
	var artists []query.Artist
	var albums []query.Album

	for _, rec := range recordings {
		artist := joinArtistCredits(rec.ArtistCredit)
		var album string
		var albumArtist string
		if len(rec.Releases) > 0 {
			rel := pickBestRelease(rec.Releases)
			album = rel.Title
			albumArtist = artist
			if len(rel.ArtistCredit) > 0 {
				albumArtist = rel.ArtistCredit[0].Artist.Name
			}
		}

		if q.HowSimilar(artist, album, rec.Title) < c.minScore {
			continue
		}

		for _, ac := range rec.ArtistCredit {
			key := sortname.Sortname(ac.Artist.Name, true)
			if key == "" || seenArtists[key] {
				continue
			}
			seenArtists[key] = true
			artists = append(artists, query.Artist{Name: ac.Artist.Name})
		}

		if album != "" {
			key := sortname.Sortname(albumArtist, true) + "\x00" + sortname.Sortname(album, false)
			if !seenAlbums[key] {
				seenAlbums[key] = true
				albums = append(albums, query.Album{Name: album, Artist: albumArtist})
			}
		}
	}
	return artists, albums
}

func joinArtistCredits(credits []artistCredit) string {
	var parts []string
	for _, ac := range credits {
		parts = append(parts, ac.Artist.Name)
	}
	return strings.Join(parts, ", ")
}

// pickBestRelease prefers official album releases without secondary types,
// then the earliest date.
func pickBestRelease(releases []release) release {
	best := releases[0]
	bestScore := releaseScore(best)

	for _, rel := range releases[1:] {
		s := releaseScore(rel)
		if s > bestScore || (s == bestScore && rel.Date != "" && (best.Date == "" || rel.Date < best.Date)) {
			best = rel
			bestScore = s
		}
	}
	return best
}

func releaseScore(rel release) int {
	score := 0
	if rel.Status == "Official" {
		score += 4
	}
	if rel.ReleaseGroup.PrimaryType == "Album" {
		score += 2
	}
	if len(rel.ReleaseGroup.SecondaryTypes) == 0 {
		score++
	}
	return score
}

// MusicBrainz API response types

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Releases     []release      `json:"releases"`
}

type artistCredit struct {
	Artist artistInfo `json:"artist"`
}

type artistInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	ReleaseGroup releaseGroup   `json:"release-group"`
}

type releaseGroup struct {
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
}
