// Package diagram holds the structured flow-diagram model, the Mermaid
// codec for it, and the text-to-diagram synthesizer.
package diagram

import (
	"fmt"
	"strings"
)

// Shape classifies a diagram node by its flowchart role.
type Shape string

const (
	ShapeProcess    Shape = "process"
	ShapeDecision   Shape = "decision"
	ShapeTerminal   Shape = "terminal"
	ShapeData       Shape = "data"
	ShapeSubroutine Shape = "subroutine"
)

// Class is the style category assigned to a node. The wire names match
// the classDef block emitted into the Mermaid source.
type Class string

const (
	ClassPrimary   Class = "main"
	ClassSecondary Class = "sub"
	ClassAccept    Class = "accept"
	ClassReject    Class = "reject"
)

// knownClasses is the closed set of valid style categories.
var knownClasses = map[Class]bool{
	ClassPrimary:   true,
	ClassSecondary: true,
	ClassAccept:    true,
	ClassReject:    true,
}

// Node is one step in the diagram. ID is the join key for edges and
// class assignments and must be unique within a diagram.
type Node struct {
	ID    string
	Label string
	Shape Shape
}

// Edge is a directed connection between two node IDs.
type Edge struct {
	From string
	To   string
}

// Diagram is the structured form of one flow diagram. Values are treated
// as immutable once produced: every edit path returns a new Diagram.
type Diagram struct {
	Nodes   []Node
	Edges   []Edge
	Classes map[string]Class
}

// labelDelimiters are the raw markup characters a label must not carry,
// since they would be re-parsed as node syntax.
const labelDelimiters = "[]{}|<>`"

// Validate checks the structural invariants: unique node IDs, every edge
// endpoint resolving to a declared node, exactly one class per node from
// the closed set, and labels free of markup delimiters.
func (d *Diagram) Validate() error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("diagram: no nodes")
	}

	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("diagram: node with empty id")
		}
		if ids[n.ID] {
			return fmt.Errorf("diagram: duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		if strings.ContainsAny(n.Label, labelDelimiters) {
			return fmt.Errorf("diagram: node %q label contains markup delimiters", n.ID)
		}
	}

	for _, e := range d.Edges {
		if !ids[e.From] {
			return fmt.Errorf("diagram: edge source %q is not a declared node", e.From)
		}
		if !ids[e.To] {
			return fmt.Errorf("diagram: edge target %q is not a declared node", e.To)
		}
	}

	for _, n := range d.Nodes {
		cls, ok := d.Classes[n.ID]
		if !ok {
			return fmt.Errorf("diagram: node %q has no class assignment", n.ID)
		}
		if !knownClasses[cls] {
			return fmt.Errorf("diagram: node %q has unknown class %q", n.ID, cls)
		}
	}
	for id := range d.Classes {
		if !ids[id] {
			return fmt.Errorf("diagram: class assigned to unknown node %q", id)
		}
	}
	return nil
}

// Node returns the node with the given ID, if declared.
func (d *Diagram) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
