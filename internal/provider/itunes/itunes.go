// Package itunes resolves queries to previews from the iTunes Search API.
package itunes

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

// Client is an iTunes Search API client that implements resolver.Resolver.
type Client struct {
	httpClient *http.Client
	apiURL     string
	limiter    *provider.RateLimiterMap
	minScore   float64
	maxResults int
}

// New creates a new iTunes client. limiter may be nil.
func New(limiter *provider.RateLimiterMap, minScore float64, maxResults int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     "https://itunes.apple.com/search",
		limiter:    limiter,
		minScore:   minScore,
		maxResults: maxResults,
	}
}

func (c *Client) Name() string { return "itunes" }
func (c *Client) Weight() int  { return 40 }

// Resolve searches iTunes for q and returns the previews that match.
func (c *Client) Resolve(ctx context.Context, q *query.Query) ([]query.Result, error) {
	term := buildTerm(q)
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
	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s?%s", c.apiURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create itunes request: %w", err)
	}
	req.Header.Set("User-Agent", "songresolve/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("itunes search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode itunes response: %w", err)
	}

	return provider.Rank(q, parseResults(searchResp.Results), c.minScore, c.maxResults), nil
}

// buildTerm joins the structured fields; iTunes has no field syntax.
func buildTerm(q *query.Query) string {
	if q.IsFullText() {
		return strings.TrimSpace(q.FullText())
	}

	var parts []string
	if q.Track() != "" {
		parts = append(parts, q.Track())
	}
	if q.Artist() != "" {
		parts = append(parts, q.Artist())
	}
	return strings.Join(parts, " ")
}

func parseResults(items []resultItem) []result.Info {
	var results []result.Info
	for _, item := range items {
		if item.PreviewURL == "" {
			continue
		}

		artworkURL := item.ArtworkURL100
		// Upgrade to 600x600 artwork
		if artworkURL != "" {
			artworkURL = strings.Replace(artworkURL, "100x100", "600x600", 1)
		}

		results = append(results, result.Info{
			Track:       item.TrackName,
			Artist:      item.ArtistName,
			Album:       item.CollectionName,
			AlbumPos:    item.TrackNumber,
			Duration:    30 * time.Second,
			URL:         item.PreviewURL,
			Mimetype:    "audio/mp4",
			ArtworkURL:  artworkURL,
			Provider:    "itunes",
			ProviderRef: item.TrackViewURL,
		})
	}
	return results
}

// iTunes Search API response types

type searchResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []resultItem `json:"results"`
}

type resultItem struct {
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackNumber      int    `json:"trackNumber"`
	TrackTimeMillis  int    `json:"trackTimeMillis"`
	ArtworkURL100    string `json:"artworkUrl100"`
	PreviewURL       string `json:"previewUrl"`
	TrackViewURL     string `json:"trackViewUrl"`
}
