// Package deezer resolves queries to 30 second previews from the Deezer
// search API.
package deezer

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
	"songresolve/internal/result"
)

// Client is a Deezer API client that implements resolver.Resolver.
type Client struct {
	httpClient *http.Client
	apiURL     string
	limiter    *provider.RateLimiterMap
	minScore   float64
	maxResults int
}

// New creates a new Deezer client. limiter may be nil.
func New(limiter *provider.RateLimiterMap, minScore float64, maxResults int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     "https://api.deezer.com",
		limiter:    limiter,
		minScore:   minScore,
		maxResults: maxResults,
	}
}

func (c *Client) Name() string { return "deezer" }
func (c *Client) Weight() int  { return 50 }

// Resolve searches Deezer for q and returns the previews that match.
func (c *Client) Resolve(ctx context.Context, q *query.Query) ([]query.Result, error) {
	term := buildQuery(q)
	if term == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx, c.Name()); err != nil {
		return nil, err
	}

	limit := c.maxResults
	if limit <= 0 {
		limit = 10
	}
	reqURL := fmt.Sprintf("%s/search?q=%s&limit=%s", c.apiURL, url.QueryEscape(term), strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create deezer request: %w", err)
	}
	req.Header.Set("User-Agent", "songresolve/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deezer search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode deezer response: %w", err)
	}

	if searchResp.Error != nil {
		return nil, fmt.Errorf("deezer API error: %s", searchResp.Error.Message)
	}

	return provider.Rank(q, parseResults(searchResp.Data), c.minScore, c.maxResults), nil
}

// buildQuery uses Deezer's advanced search syntax for structured queries.
func buildQuery(q *query.Query) string {
	if q.IsFullText() {
		return strings.TrimSpace(q.FullText())
	}

	escape := func(s string) string {
		return strings.ReplaceAll(s, "\"", "")
	}
	var parts []string
	if q.Track() != "" {
		parts = append(parts, "track:\""+escape(q.Track())+"\"")
	}
	if q.Artist() != "" {
		parts = append(parts, "artist:\""+escape(q.Artist())+"\"")
	}
	if q.Album() != "" {
		parts = append(parts, "album:\""+escape(q.Album())+"\"")
	}
	return strings.Join(parts, " ")
}

// parseResults keeps the tracks that have a preview to stream.
func parseResults(items []trackItem) []result.Info {
	var results []result.Info
	for _, item := range items {
		if item.Preview == "" {
			continue
		}

		var artworkURL string
		if item.Album.CoverXL != "" {
			artworkURL = item.Album.CoverXL
		} else if item.Album.CoverBig != "" {
			artworkURL = item.Album.CoverBig
		}

		results = append(results, result.Info{
			Track:       item.TitleShort,
			Artist:      item.Artist.Name,
			Album:       item.Album.Title,
			Duration:    30 * time.Second,
			URL:         item.Preview,
			Mimetype:    "audio/mpeg",
			Bitrate:     128,
			ArtworkURL:  artworkURL,
			Provider:    "deezer",
			ProviderRef: item.Link,
		})
	}
	return results
}

// Deezer API response types

type searchResponse struct {
	Data  []trackItem `json:"data"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type trackItem struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	TitleShort   string    `json:"title_short"`
	TitleVersion string    `json:"title_version"`
	Link         string    `json:"link"`
	Preview      string    `json:"preview"`
	Duration     int       `json:"duration"`
	Artist       artist    `json:"artist"`
	Album        albumInfo `json:"album"`
}

type artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type albumInfo struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	CoverBig string `json:"cover_big"`
	CoverXL  string `json:"cover_xl"`
}
