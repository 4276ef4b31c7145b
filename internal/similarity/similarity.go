// Package similarity scores how closely a candidate track matches a query.
package similarity

// Keys are the normalized artist, album and track names being compared.
type Keys struct {
	Artist string
	Album  string
	Track  string
}

// Field weights for structured queries. The album counts least so that the
// same recording on a compilation still ranks high.
const (
	artistWeight = 4
	albumWeight  = 1
	trackWeight  = 5
)

// Score returns a confidence in [0,1] that cand names the same track as q.
//
// Free-text queries take the best of the three field ratios, since the text
// may name any of them. Structured queries combine the ratios with fixed
// weights and do not penalize a candidate when the query has no album.
func Score(q Keys, fullText bool, cand Keys) float64 {
	artist := Ratio(q.Artist, cand.Artist)
	album := Ratio(q.Album, cand.Album)
	track := Ratio(q.Track, cand.Track)

	if fullText {
		return max(artist, album, track)
	}

	if q.Album == "" {
		album = 1.0
	}

	return (artistWeight*artist + albumWeight*album + trackWeight*track) /
		(artistWeight + albumWeight + trackWeight)
}

// Ratio converts the edit distance between a and b into a similarity in
// [0,1], relative to the longer string. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-distance(ra, rb)) / float64(maxLen)
}

// EditDistance returns the number of single-character insertions, deletions,
// substitutions and adjacent transpositions needed to turn source into target.
func EditDistance(source, target string) int {
	return distance([]rune(source), []rune(target))
}

// distance is the Berghel-Roach extension of the Levenshtein table: besides
// the usual three moves, a cell may be reached from two rows and columns back
// when the two characters before it are swapped.
func distance(s, t []rune) int {
	n, m := len(s), len(t)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	d := make([][]int, n+1)
	for i := range d {
		d[i] = make([]int, m+1)
		d[i][0] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j] = j
	}

	for i := 1; i <= n; i++ {
		si := s[i-1]
		for j := 1; j <= m; j++ {
			tj := t[j-1]

			cost := 1
			if si == tj {
				cost = 0
			}

			cell := min(d[i][j-1]+1, d[i-1][j-1]+cost, d[i-1][j]+1)

			if i > 1 && j > 1 {
				trans := d[i-2][j-2] + 1
				if s[i-2] != tj {
					trans++
				}
				if si != t[j-2] {
					trans++
				}
				cell = min(cell, trans)
			}

			d[i][j] = cell
		}
	}

	return d[n][m]
}
