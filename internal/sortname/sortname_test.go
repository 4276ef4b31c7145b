package sortname

import "testing"

func TestSortname(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		isArtist bool
		want     string
	}{
		{name: "plain", text: "One More Time", want: "one more time"},
		{name: "empty", text: "", want: ""},
		{name: "whitespace only", text: "   ", want: ""},
		{name: "collapse whitespace", text: "  One   More\tTime ", want: "one more time"},
		{name: "punctuation", text: "Harder, Better, Faster, Stronger", want: "harder better faster stronger"},
		{name: "apostrophe dropped", text: "Don't Stop Me Now", want: "dont stop me now"},
		{name: "diacritics", text: "Björk", isArtist: true, want: "bjork"},
		{name: "accented title", text: "Café del Mar", want: "cafe del mar"},
		{name: "leading article on artist", text: "The Weeknd", isArtist: true, want: "weeknd"},
		{name: "leading article kept on title", text: "The Less I Know The Better", want: "the less i know the better"},
		{name: "article only artist", text: "The", isArtist: true, want: "the"},
		{name: "a as artist article", text: "A Tribe Called Quest", isArtist: true, want: "tribe called quest"},
		{name: "official video", text: "Blinding Lights (Official Video)", want: "blinding lights"},
		{name: "official music video brackets", text: "Blinding Lights [Official Music Video]", want: "blinding lights"},
		{name: "official lyric video", text: "Blinding Lights (Official Lyric Video)", want: "blinding lights"},
		{name: "lyrics suffix", text: "Blinding Lights (Lyrics)", want: "blinding lights"},
		{name: "featuring", text: "Get Lucky (feat. Pharrell Williams)", want: "get lucky"},
		{name: "ft bracket", text: "Get Lucky [ft. Pharrell]", want: "get lucky"},
		{name: "remix kept", text: "One More Time (Radio Edit)", want: "one more time radio edit"},
		{name: "digits", text: "99 Problems", want: "99 problems"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sortname(tt.text, tt.isArtist)
			if got != tt.want {
				t.Errorf("Sortname(%q, %v) = %q, want %q", tt.text, tt.isArtist, got, tt.want)
			}
		})
	}
}

func TestSortnameIdempotent(t *testing.T) {
	inputs := []string{"The Weeknd", "Björk", "Get Lucky (feat. Pharrell)", "AC/DC"}
	for _, in := range inputs {
		once := Sortname(in, false)
		if twice := Sortname(once, false); twice != once {
			t.Errorf("Sortname not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSplitArtistTitle(t *testing.T) {
	tests := []struct {
		text       string
		wantArtist string
		wantTitle  string
		wantOK     bool
	}{
		{"Daft Punk - One More Time", "Daft Punk", "One More Time", true},
		{"Daft Punk – Digital Love", "Daft Punk", "Digital Love", true},
		{"  Queen   -   Bohemian Rhapsody ", "Queen", "Bohemian Rhapsody", true},
		{"Jay-Z", "", "", false},
		{"one more time", "", "", false},
	}

	for _, tt := range tests {
		artist, title, ok := SplitArtistTitle(tt.text)
		if ok != tt.wantOK || artist != tt.wantArtist || title != tt.wantTitle {
			t.Errorf("SplitArtistTitle(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.text, artist, title, ok, tt.wantArtist, tt.wantTitle, tt.wantOK)
		}
	}
}
