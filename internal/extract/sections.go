package extract

import (
	"regexp"
	"strings"
)

// sectionHints are the headings under which RFQ documents describe the
// system and its process flow. Matching is case-insensitive.
var sectionHints = []string{
	"Proposed System Description",
	"Process flow of the System",
	"Summary of the System",
	"Concept Description",
	"Layout Overview",
	"Inbound",
	"Outbound",
	"Sorting",
	"NEO",
	"PTL",
	"CBS",
	"SWEDI",
	"Process flow:",
}

// minHintBlock is the minimum size for a hint-anchored block to count
// as real section content rather than a table-of-contents entry.
const minHintBlock = 200

// minFlowBlock is the minimum size for the trailing process-flow list.
const minFlowBlock = 120

var processFlowRe = regexp.MustCompile(`(?is)Process flow[:：-]?\s*(.+?)(?:\n\n|$)`)

// FocusProcessText narrows a normalised document blob to the spans
// following known section headings, plus any trailing process-flow
// list. When nothing matches, the whole blob passes through verbatim.
func FocusProcessText(blob string) string {
	var blocks []string
	seen := make(map[string]bool)

	for _, hint := range sectionHints {
		re, err := hintPattern(hint)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(blob, -1) {
			block := strings.TrimSpace(m[1])
			if len(block) < minHintBlock || seen[block] {
				continue
			}
			seen[block] = true
			blocks = append(blocks, block)
		}
	}

	if m := processFlowRe.FindStringSubmatch(blob); m != nil {
		block := strings.TrimSpace(m[1])
		if len(block) >= minFlowBlock && !seen[block] {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		return blob
	}
	return strings.Join(blocks, "\n\n")
}

// hintPattern anchors on a heading and captures up to the next
// heading-looking line (short, capitalised) or end of blob.
func hintPattern(hint string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?is)` + regexp.QuoteMeta(hint) + `(.+?)(?:\n[A-Z][^\n]{0,60}\n|$)`)
}
