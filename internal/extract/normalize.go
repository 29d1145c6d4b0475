package extract

import "regexp"

var (
	hyphenBreakRe   = regexp.MustCompile(`(\w)-\n(\w)`)
	spaceRunRe      = regexp.MustCompile(`[ \t]{2,}`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Normalize repairs the artifacts of text-layer extraction: words
// hyphenated across line breaks are rejoined, runs of spaces collapse
// to one, trailing space before newlines is stripped, and runs of
// blank lines are capped at one.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return text
}
