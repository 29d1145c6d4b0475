package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

// styleBlock is appended verbatim to every marshalled diagram so all
// renders share one palette.
const styleBlock = `classDef main fill:#5178B7,stroke:#5178B7,color:#ffffff,stroke-width:2px;
classDef sub fill:#FFC000,stroke:#B8860B,color:#111111,stroke-width:1.6px;
classDef accept fill:#96D157,stroke:#5A9831,color:#111111,stroke-width:2px;
classDef reject fill:#9C1922,stroke:#7F1420,color:#ffffff,stroke-width:2px;
linkStyle default stroke:#060c71,stroke-width:1.6px;`

var (
	// Bracket pairs ordered so two-character openers win over their
	// one-character prefixes.
	nodeRe  = regexp.MustCompile(`^\s*([A-Za-z][\w]*)\s*(\(\(|\(\[|\[\[|\[/|\[|\(|\{)\s*(.+?)\s*(\)\)|\]\)|\]\]|/\]|\]|\)|\})`)
	edgeRe  = regexp.MustCompile(`^\s*([A-Za-z][\w]*)\s*[-.]+>\s*(?:\|[^|]*\|\s*)?([A-Za-z][\w]*)`)
	classRe = regexp.MustCompile(`^\s*class\s+([A-Za-z][\w]*)\s+([A-Za-z_][\w]*);?\s*$`)

	fenceOpenRe  = regexp.MustCompile("(?s)^```(?:mermaid)?\\s*")
	fenceCloseRe = regexp.MustCompile("(?s)\\s*```\\s*$")
	flowchartRe  = regexp.MustCompile(`(?is)(flowchart\s+TD[\s\S]+)$`)
)

// shapeOpeners maps a Mermaid bracket opener to a shape kind.
var shapeOpeners = map[string]Shape{
	"((": ShapeTerminal,
	"([": ShapeTerminal,
	"[[": ShapeSubroutine,
	"[/": ShapeData,
	"[":  ShapeProcess,
	"(":  ShapeProcess,
	"{":  ShapeDecision,
}

// shapeBrackets maps a shape kind to its open/close bracket pair for
// marshalling. Terminals emit the stadium form; the circle form is
// still accepted on parse.
var shapeBrackets = map[Shape][2]string{
	ShapeProcess:    {"[", "]"},
	ShapeDecision:   {"{", "}"},
	ShapeTerminal:   {"([", "])"},
	ShapeData:       {"[/", "/]"},
	ShapeSubroutine: {"[[", "]]"},
}

// Marshal renders the diagram as Mermaid flowchart source: the node and
// edge lines, the fixed style block, and one class line per node.
func Marshal(d *Diagram) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for _, n := range d.Nodes {
		br, ok := shapeBrackets[n.Shape]
		if !ok {
			br = shapeBrackets[ShapeProcess]
		}
		label := strings.ReplaceAll(n.Label, "\n", "<br/>")
		fmt.Fprintf(&b, "    %s%s%s%s\n", n.ID, br[0], label, br[1])
	}
	for _, e := range d.Edges {
		fmt.Fprintf(&b, "    %s --> %s\n", e.From, e.To)
	}

	b.WriteString("\n")
	b.WriteString(styleBlock)
	b.WriteString("\n")
	for _, n := range d.Nodes {
		if cls, ok := d.Classes[n.ID]; ok {
			fmt.Fprintf(&b, "class %s %s;\n", n.ID, cls)
		}
	}
	return b.String()
}

// Parse reads Mermaid flowchart source into a Diagram. Lines that match
// none of the node/edge/class grammars are ignored, which also skips the
// flowchart header and style block. Node declarations embedded in edge
// lines (A[Box] --> B{Check}) are collected as well.
func Parse(code string) (*Diagram, error) {
	d := &Diagram{Classes: make(map[string]Class)}
	seen := make(map[string]bool)

	addNode := func(id, opener, label string) {
		if seen[id] {
			return
		}
		seen[id] = true
		shape, ok := shapeOpeners[opener]
		if !ok {
			shape = ShapeProcess
		}
		label = strings.ReplaceAll(label, "<br/>", "\n")
		label = strings.ReplaceAll(label, `\n`, "\n")
		d.Nodes = append(d.Nodes, Node{ID: id, Label: strings.TrimSpace(label), Shape: shape})
	}

	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") ||
			strings.HasPrefix(trimmed, "classDef") || strings.HasPrefix(trimmed, "linkStyle") {
			continue
		}
		if m := classRe.FindStringSubmatch(line); m != nil {
			d.Classes[m[1]] = Class(m[2])
			continue
		}

		// A line may declare nodes on both sides of an arrow; walk every
		// segment so inline declarations are not lost.
		rest := line
		for {
			m := nodeRe.FindStringSubmatchIndex(rest)
			if m == nil {
				break
			}
			id := rest[m[2]:m[3]]
			opener := rest[m[4]:m[5]]
			label := rest[m[6]:m[7]]
			addNode(id, opener, label)
			rest = rest[m[1]:]
		}
		if m := edgeRe.FindStringSubmatch(line); m != nil {
			d.Edges = append(d.Edges, Edge{From: m[1], To: m[2]})
		}
	}

	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("diagram: no nodes found in mermaid source")
	}
	return d, nil
}

// StripFences removes an enclosing Markdown code fence and, when the
// remainder does not start with the flowchart keyword, salvages a
// trailing flowchart block if one is present.
func StripFences(raw string) string {
	out := strings.TrimSpace(raw)
	out = fenceOpenRe.ReplaceAllString(out, "")
	out = fenceCloseRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	if !strings.HasPrefix(strings.ToLower(out), "flowchart") {
		if m := flowchartRe.FindStringSubmatch(out); m != nil {
			out = strings.TrimSpace(m[1])
		}
	}
	return out
}

// Sanitize normalises labels for remote renderers: literal newlines and
// escaped \n inside bracket pairs become <br/>, and runs of spaces
// collapse. The surrounding structure is left untouched.
func Sanitize(code string) string {
	if code == "" {
		return code
	}
	s := strings.ReplaceAll(code, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for _, pair := range [][2]string{{"[[", "]]"}, {"((", "))"}, {"([", "])"}, {"[/", "/]"}, {"[", "]"}, {"(", ")"}, {"{", "}"}} {
		s = fixBracketLabels(s, pair[0], pair[1])
	}
	return s
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

func fixBracketLabels(s, left, right string) string {
	pat := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(left) + `(.*?)` + regexp.QuoteMeta(right))
	return pat.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[len(left) : len(match)-len(right)]
		inner = strings.ReplaceAll(inner, `\n`, "<br/>")
		inner = strings.ReplaceAll(inner, "\n", "<br/>")
		inner = strings.TrimSpace(multiSpaceRe.ReplaceAllString(inner, " "))
		return left + inner + right
	})
}
