package collection

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"songresolve/internal/query"
	"songresolve/internal/result"
	"songresolve/internal/similarity"
	"songresolve/internal/sortname"
)

// resultNamespace seeds the identities of local results, so that resolving
// the same query again yields the same result ids.
var resultNamespace = uuid.MustParse("6f1f0c7e-2b7d-4c55-9a0e-5b8f3f6f2a41")

// Resolver answers queries from the local collection index.
type Resolver struct {
	ix         *Index
	minScore   float64
	maxResults int
}

// NewResolver returns a resolver that keeps matches scoring at least
// minScore, at most maxResults of them.
func NewResolver(ix *Index, minScore float64, maxResults int) *Resolver {
	return &Resolver{ix: ix, minScore: minScore, maxResults: maxResults}
}

func (r *Resolver) Name() string { return "collection" }
func (r *Resolver) Weight() int  { return 100 }

type match struct {
	t     Track
	score float64
}

// Resolve scores every indexed track against q. Free-text queries also
// collect the albums and artists the text names.
func (r *Resolver) Resolve(ctx context.Context, q *query.Query) ([]query.Result, error) {
	tracks := r.ix.Tracks()
	if len(tracks) == 0 {
		return nil, nil
	}

	var matches []match
	for _, t := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := q.HowSimilar(t.Artist, t.Album, t.Title)
		if score < r.minScore {
			continue
		}
		matches = append(matches, match{t: t, score: score})
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		return cmp.Compare(b.score, a.score)
	})
	if r.maxResults > 0 && len(matches) > r.maxResults {
		matches = matches[:r.maxResults]
	}

	if q.IsFullText() {
		r.addHits(q, tracks)
	}

	qid := q.ID()
	results := make([]query.Result, 0, len(matches))
	for _, m := range matches {
		id := uuid.NewSHA1(resultNamespace, []byte(qid+"\x00"+m.t.Path)).String()
		results = append(results, result.NewWithID(id, result.Info{
			Artist:      m.t.Artist,
			Album:       m.t.Album,
			Track:       m.t.Title,
			AlbumPos:    m.t.AlbumPos,
			Duration:    m.t.Duration,
			URL:         "file://" + m.t.Path,
			Mimetype:    m.t.Mimetype,
			Bitrate:     m.t.Bitrate,
			Size:        m.t.Size,
			Provider:    r.Name(),
			ProviderRef: m.t.Path,
		}, r.ix.Source(), m.score))
	}
	return results, nil
}

func (r *Resolver) addHits(q *query.Query, tracks []Track) {
	seenAlbums := make(map[string]bool)
	seenArtists := make(map[string]bool)
	var albums []query.Album
	var artists []query.Artist

	for _, t := range tracks {
		artistKey := sortname.Sortname(t.Artist, true)
		if artistKey != "" && !seenArtists[artistKey] &&
			similarity.Ratio(q.ArtistSortKey(), artistKey) >= r.minScore {
			seenArtists[artistKey] = true
			artists = append(artists, query.Artist{Name: t.Artist})
		}

		albumKey := sortname.Sortname(t.Album, false)
		key := artistKey + "\x00" + albumKey
		if albumKey != "" && !seenAlbums[key] &&
			similarity.Ratio(q.AlbumSortKey(), albumKey) >= r.minScore {
			seenAlbums[key] = true
			albums = append(albums, query.Album{Name: t.Album, Artist: t.Artist})
		}
	}

	q.AddArtists(artists)
	q.AddAlbums(albums)
}
