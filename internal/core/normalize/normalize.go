// Package normalize cleans raw video titles into catalog search queries.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	noiseWords = regexp.MustCompile(`\b(official|video|music|audio|full|lyrics?)\b`)
	whitespace = regexp.MustCompile(`\s+`)

	// brackets, trademark glyphs and dashes all become a space
	noiseGlyphs = strings.NewReplacer(
		"[", " ", "]", " ",
		"(", " ", ")", " ",
		"{", " ", "}", " ",
		"®", " ", "™", " ", "©", " ",
		"-", " ", "–", " ", "—", " ",
	)
)

// Title strips platform noise from a raw video title: case, brackets,
// stopwords like "official video", trademark glyphs and dashes.
// Title(Title(s)) == Title(s) for every s.
func Title(s string) string {
	out := s
	for {
		next := clean(out)
		if next == out {
			return next
		}
		out = next
	}
}

func clean(s string) string {
	// a Caser holds state, so one per call
	s = cases.Fold().String(s)
	s = noiseGlyphs.Replace(s)
	s = noiseWords.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
