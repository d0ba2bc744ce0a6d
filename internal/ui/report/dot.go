package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"importcycles/internal/engine/graph"
)

type DOTGenerator struct {
	graph   *graph.Graph
	baseDir string
}

// NewDOTGenerator labels nodes relative to baseDir when it is non-empty.
func NewDOTGenerator(g *graph.Graph, baseDir string) *DOTGenerator {
	return &DOTGenerator{graph: g, baseDir: baseDir}
}

func (d *DOTGenerator) Generate(cycles []graph.Cycle) string {
	var buf strings.Builder

	buf.WriteString("digraph imports {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := make(map[string]map[string]bool)
	inCycle := make(map[string]bool)
	for _, cycle := range cycles {
		for i := range cycle {
			from := cycle[i]
			to := cycle[(i+1)%len(cycle)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			inCycle[from] = true
		}
	}

	for _, node := range d.graph.Nodes() {
		label := d.label(node.Path)
		if inCycle[node.Path] {
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", node.Path, label)
		} else {
			fmt.Fprintf(&buf, "  %q [label=%q, color=\"darkslategrey\"];\n", node.Path, label)
		}
	}
	buf.WriteString("\n")

	for _, node := range d.graph.Nodes() {
		for _, e := range node.Edges() {
			if cycleEdges[e.From][e.To] {
				fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", e.From, e.To)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [color=\"forestgreen\"];\n", e.From, e.To)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (d *DOTGenerator) label(path string) string {
	if d.baseDir == "" {
		return path
	}
	rel, err := filepath.Rel(d.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
