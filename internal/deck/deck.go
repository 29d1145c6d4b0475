// Package deck converts a flow diagram into an editable
// presentation-graphics file: one autoshape per node, one connector
// per edge, coloured by style class.
package deck

import (
	"fmt"

	"propgen/internal/diagram"
)

// EMU geometry for a 4:3 slide.
const (
	slideWidth  = 9144000
	slideHeight = 6858000

	shapeWidth  = 2377440 // 2.6"
	shapeHeight = 548640  // 0.6"
	columnStep  = 731520  // 0.8"
	topMargin   = 365760  // 0.4"
)

// shapeGeometry maps node shapes to DrawingML flowchart presets.
var shapeGeometry = map[diagram.Shape]string{
	diagram.ShapeTerminal:   "flowChartTerminator",
	diagram.ShapeProcess:    "flowChartProcess",
	diagram.ShapeSubroutine: "flowChartPredefinedProcess",
	diagram.ShapeDecision:   "flowChartDecision",
	diagram.ShapeData:       "flowChartInputOutput",
}

// palette is the fill/outline pair for each style class, matching the
// rendered diagram's colours.
var palette = map[diagram.Class][2]string{
	diagram.ClassPrimary:   {"5178B7", "2F5496"},
	diagram.ClassSecondary: {"FFC000", "B8860B"},
	diagram.ClassAccept:    {"96D157", "5A9831"},
	diagram.ClassReject:    {"9C1922", "7F1420"},
}

// placedShape is a node with its resolved slide geometry and colours.
type placedShape struct {
	node    diagram.Node
	geom    string
	fill    string
	outline string
	x, y    int64
}

// Export produces the presentation package for a diagram. Nodes
// missing an explicit class get one inferred from their label.
func Export(d *diagram.Diagram) ([]byte, error) {
	if d == nil || len(d.Nodes) == 0 {
		return nil, fmt.Errorf("diagram has no nodes to export")
	}
	d = diagram.FillClasses(d, diagram.DefaultClassRules())

	shapes := make([]placedShape, len(d.Nodes))
	index := make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		geom, ok := shapeGeometry[n.Shape]
		if !ok {
			geom = "flowChartProcess"
		}
		colors := palette[d.Classes[n.ID]]
		shapes[i] = placedShape{
			node:    n,
			geom:    geom,
			fill:    colors[0],
			outline: colors[1],
			x:       (slideWidth - shapeWidth) / 2,
			y:       topMargin + int64(i)*columnStep,
		}
		index[n.ID] = i
	}

	type connector struct{ from, to int }
	conns := make([]connector, 0, len(d.Edges))
	for _, e := range d.Edges {
		from, okF := index[e.From]
		to, okT := index[e.To]
		if !okF || !okT {
			return nil, fmt.Errorf("edge %s->%s references unknown node", e.From, e.To)
		}
		conns = append(conns, connector{from: from, to: to})
	}

	var edges []edgeGeometry
	for _, c := range conns {
		src, dst := shapes[c.from], shapes[c.to]
		edges = append(edges, edgeGeometry{
			x1: src.x + shapeWidth/2,
			y1: src.y + shapeHeight,
			x2: dst.x + shapeWidth/2,
			y2: dst.y,
		})
	}
	return writePresentation(shapes, edges)
}
