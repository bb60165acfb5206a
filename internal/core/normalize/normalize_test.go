package normalize

import "testing"

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"official video suffix", "Tera Buzz (Official Video)", "tera buzz"},
		{"lyrics in brackets", "Artist - Song [Lyrics]", "artist song"},
		{"full audio", "Song Name | Full Audio", "song name |"},
		{"trademark glyphs", "Brand® Anthem™ ©2020", "brand anthem 2020"},
		{"unicode dashes", "Left – Right — Center", "left right center"},
		{"collapse whitespace", "   many    spaces\there  ", "many spaces here"},
		{"word bounded", "Musical Videotape", "musical videotape"},
		{"only noise", "(Official Music Video)", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.input); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleIsIdempotent(t *testing.T) {
	inputs := []string{
		"Tera Buzz (Official Video)",
		"OFFICIAL-VIDEO",
		"offi(cial) vi-deo",
		"[Lyric] Music - Audio (Full)",
		"Straße ™ — Remix",
		"a (b) [c] {d}",
		"video-official-music",
		"  ",
	}

	for _, in := range inputs {
		once := Title(in)
		if twice := Title(once); twice != once {
			t.Errorf("Title not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
