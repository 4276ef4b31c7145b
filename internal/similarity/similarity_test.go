package similarity

import (
	"math"
	"testing"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"ab", "ba", 1},
		{"abcd", "acbd", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"daft punk", "daft punk", 0},
		{"daft punk", "daft pnuk", 1},
		{"one more time", "one more tmie", 1},
		{"björk", "bjork", 1},
		{"a", "b", 1},
	}

	for _, tt := range tests {
		if got := EditDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEditDistanceSymmetric(t *testing.T) {
	words := []string{"", "a", "ab", "ba", "abc", "daft punk", "daft pnuk", "one more time", "kitten", "sitting", "queen"}
	for _, a := range words {
		for _, b := range words {
			if ab, ba := EditDistance(a, b), EditDistance(b, a); ab != ba {
				t.Errorf("EditDistance(%q, %q) = %d but reversed = %d", a, b, ab, ba)
			}
		}
	}
}

func TestEditDistanceEmpty(t *testing.T) {
	for _, s := range []string{"x", "hello", "one more time", "日本語"} {
		want := len([]rune(s))
		if got := EditDistance("", s); got != want {
			t.Errorf("EditDistance(\"\", %q) = %d, want %d", s, got, want)
		}
		if got := EditDistance(s, ""); got != want {
			t.Errorf("EditDistance(%q, \"\") = %d, want %d", s, got, want)
		}
	}
}

func TestEditDistanceTriangle(t *testing.T) {
	words := []string{"daft punk", "daft pank", "draft punk", "punk daft", "discovery"}
	for _, a := range words {
		for _, b := range words {
			for _, c := range words {
				if EditDistance(a, c) > EditDistance(a, b)+EditDistance(b, c) {
					t.Errorf("triangle inequality violated for %q, %q, %q", a, b, c)
				}
			}
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "abc", 1.0},
		{"abc", "", 0.0},
		{"", "abc", 0.0},
		{"abcd", "abce", 0.75},
		{"ab", "ba", 0.5},
	}

	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatioIdentical(t *testing.T) {
	for _, s := range []string{"", "a", "daft punk", "one more time", "日本語"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestScoreStructured(t *testing.T) {
	q := Keys{Artist: "daft punk", Track: "one more time"}

	tests := []struct {
		name      string
		cand      Keys
		wantAbove float64
		wantBelow float64
	}{
		{
			name:      "exact match with album on candidate",
			cand:      Keys{Artist: "daft punk", Album: "discovery", Track: "one more time"},
			wantAbove: 0.999,
		},
		{
			name:      "typo in track",
			cand:      Keys{Artist: "daft punk", Track: "one more tmie"},
			wantAbove: 0.9,
			wantBelow: 0.99,
		},
		{
			name:      "right track wrong artist",
			cand:      Keys{Artist: "romanthony", Track: "one more time"},
			wantAbove: 0.5,
			wantBelow: 0.75,
		},
		{
			name:      "unrelated",
			cand:      Keys{Artist: "queen", Track: "bohemian rhapsody"},
			wantBelow: 0.35,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(q, false, tt.cand)
			if tt.wantAbove > 0 && got < tt.wantAbove {
				t.Errorf("Score = %.4f, want above %.4f", got, tt.wantAbove)
			}
			if tt.wantBelow > 0 && got > tt.wantBelow {
				t.Errorf("Score = %.4f, want below %.4f", got, tt.wantBelow)
			}
		})
	}
}

func TestScoreEmptyQueryAlbumIgnoresCandidateAlbum(t *testing.T) {
	q := Keys{Artist: "daft punk", Track: "one more time"}
	base := Score(q, false, Keys{Artist: "daft punk", Track: "one more tme"})

	for _, album := range []string{"", "discovery", "something else entirely", "x"} {
		got := Score(q, false, Keys{Artist: "daft punk", Album: album, Track: "one more tme"})
		if got != base {
			t.Errorf("album %q changed score: %v, want %v", album, got, base)
		}
	}
}

func TestScoreAlbumWeighted(t *testing.T) {
	q := Keys{Artist: "daft punk", Album: "discovery", Track: "one more time"}
	got := Score(q, false, Keys{Artist: "daft punk", Album: "homework", Track: "one more time"})

	want := (4*1.0 + 1*Ratio("discovery", "homework") + 5*1.0) / 10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestScoreFullTextTakesBestField(t *testing.T) {
	q := Keys{Artist: "discovery", Album: "discovery", Track: "discovery"}
	got := Score(q, true, Keys{Artist: "daft punk", Album: "discovery", Track: "one more time"})
	if got != 1.0 {
		t.Errorf("Score = %v, want 1.0 for album hit", got)
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []Keys{
		{},
		{Artist: "a"},
		{Artist: "daft punk", Album: "discovery", Track: "one more time"},
		{Track: "日本語"},
	}
	for _, q := range inputs {
		for _, c := range inputs {
			for _, ft := range []bool{false, true} {
				got := Score(q, ft, c)
				if math.IsNaN(got) || got < 0 || got > 1 {
					t.Errorf("Score(%+v, %v, %+v) = %v out of range", q, ft, c, got)
				}
			}
		}
	}
}
