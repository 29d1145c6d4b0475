package docx

import "strings"

// boldPrefixes are letter-convention line openers rendered bold without
// bullet treatment.
var boldPrefixes = []string{
	"Kind Attention",
	"Offer Ref",
	"Date",
	"Mr.",
	"Ms.",
	"M/s",
	"Chief",
	"Subject",
	"Best Regards",
}

// bulletGlyphs mark a line as a list item.
var bulletGlyphs = []string{"•", "·", "*", "-"}

// ParseInline splits a line on paired ** delimiters into bold and
// plain runs. Unpaired delimiters are left in the text untouched.
func ParseInline(line string) []Run {
	var runs []Run
	rest := line
	for {
		open := strings.Index(rest, "**")
		if open < 0 {
			break
		}
		close := strings.Index(rest[open+2:], "**")
		if close < 0 {
			break
		}
		if before := rest[:open]; before != "" {
			runs = append(runs, Run{Text: before})
		}
		if inner := rest[open+2 : open+2+close]; inner != "" {
			runs = append(runs, Run{Text: inner, Bold: true})
		}
		rest = rest[open+2+close+2:]
	}
	if rest != "" || len(runs) == 0 {
		runs = append(runs, Run{Text: rest})
	}
	return runs
}

// BodyParagraphs converts generated prose into blocks: bullet-glyph
// lines become list items, convention prefixes render bold, and inline
// ** spans become bold runs. extraIndent deepens every bullet, used by
// the executive summary.
func BodyParagraphs(text string, extraIndent int) []Block {
	var blocks []Block
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if glyph, ok := bulletGlyph(line); ok {
			item := strings.TrimSpace(strings.TrimPrefix(line, glyph))
			blocks = append(blocks, Paragraph{
				Runs:    ParseInline(item),
				Bullet:  true,
				Indent:  bulletIndent + extraIndent,
				Hanging: bulletHanging,
			})
			continue
		}
		p := Paragraph{Runs: ParseInline(line)}
		if hasBoldPrefix(line) {
			p.Bold = true
			for i := range p.Runs {
				p.Runs[i].Bold = true
			}
		}
		blocks = append(blocks, p)
	}
	return blocks
}

func bulletGlyph(line string) (string, bool) {
	for _, g := range bulletGlyphs {
		// A bare glyph with no following space is prose, not a bullet.
		if strings.HasPrefix(line, g+" ") {
			return g, true
		}
	}
	return "", false
}

func hasBoldPrefix(line string) bool {
	for _, p := range boldPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
