package diagram

import "strings"

// ClassRules is a keyword rule table for guessing a node's style class
// from its label. The lists are not assumed exhaustive: an unmatched
// label falls back to the secondary category rather than erroring, and
// callers may swap in their own table.
type ClassRules struct {
	Reject  []string
	Accept  []string
	Primary []string
}

// DefaultClassRules covers the intralogistics vocabulary the synthesizer
// is prompted with.
func DefaultClassRules() ClassRules {
	return ClassRules{
		Reject: []string{
			"reject", "rejection", "fail", "error", "technical",
			"rts", "return to sender",
		},
		Accept: []string{
			"accept", "approved", "success", "output", "dispatch",
		},
		Primary: []string{
			"infeed", "volume distribution", "vds", "induct", "sorter",
			"cbs", "swedi", "scanning", "print & apply", "dimension", "weigh",
		},
	}
}

// Infer guesses the style class for a label. Order matters: reject
// keywords win over accept, accept over primary.
func (r ClassRules) Infer(label string) Class {
	l := strings.ToLower(label)
	for _, k := range r.Reject {
		if strings.Contains(l, k) {
			return ClassReject
		}
	}
	for _, k := range r.Accept {
		if strings.Contains(l, k) {
			return ClassAccept
		}
	}
	for _, k := range r.Primary {
		if strings.Contains(l, k) {
			return ClassPrimary
		}
	}
	return ClassSecondary
}

// FillClasses returns a copy of the diagram in which every node missing
// a class assignment gets one inferred from its label. The input is not
// mutated.
func FillClasses(d *Diagram, rules ClassRules) *Diagram {
	out := &Diagram{
		Nodes:   append([]Node(nil), d.Nodes...),
		Edges:   append([]Edge(nil), d.Edges...),
		Classes: make(map[string]Class, len(d.Nodes)),
	}
	for id, cls := range d.Classes {
		out.Classes[id] = cls
	}
	for _, n := range out.Nodes {
		if _, ok := out.Classes[n.ID]; !ok {
			out.Classes[n.ID] = rules.Infer(n.Label)
		}
	}
	return out
}
