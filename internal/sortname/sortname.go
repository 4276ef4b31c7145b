// Package sortname turns display strings into comparison keys.
package sortname

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
)

// Release noise that never helps matching one track against another.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]\s*official\s+(music\s+|lyric\s+)?(video|audio|visualizer)\s*[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]\s*(lyrics?|visual(izer)?|audio|hd|hq|4k|explicit|clean)\s*[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[]\s*(feat\.?|ft\.?|featuring)\s+[^\)\]]+[\)\]]`),
}

var spaceRun = regexp.MustCompile(`\s+`)

var leadingArticles = []string{"the ", "a ", "an "}

// Sortname returns the normalized key for text. Diacritics are transliterated,
// case is folded, punctuation becomes whitespace and runs of whitespace
// collapse to one space. Artist keys additionally lose a leading article.
func Sortname(text string, isArtist bool) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	for _, p := range noisePatterns {
		s = p.ReplaceAllString(s, "")
	}

	s = strings.ToLower(unidecode.Unidecode(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if r == '\'' {
			return -1
		}
		return ' '
	}, s)
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))

	if isArtist {
		for _, article := range leadingArticles {
			if strings.HasPrefix(s, article) && len(s) > len(article) {
				s = s[len(article):]
				break
			}
		}
	}

	return s
}

// "Artist - Title", as typed into a search box.
var artistTitleSeparator = regexp.MustCompile(`^(.+?)\s+[-–—]\s+(.+)$`)

// SplitArtistTitle reports the artist and title of an "Artist - Title"
// string. ok is false when text has no separator.
func SplitArtistTitle(text string) (artist, title string, ok bool) {
	m := artistTitleSeparator.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
