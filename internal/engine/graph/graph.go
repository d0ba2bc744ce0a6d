package graph

import (
	"fmt"

	"importcycles/internal/core/errors"
	"importcycles/internal/engine/parser"
)

// Edge is one import/require relationship between two resolved files.
// Specifier, Kind and Span are diagnostics only.
type Edge struct {
	From      string
	To        string
	Specifier string
	Kind      parser.RequestKind
	Span      parser.Span
}

func (e Edge) String() string {
	return fmt.Sprintf("%s:%d:%d %s %q -> %s", e.From, e.Span.Start.Line, e.Span.Start.Column, e.Kind, e.Specifier, e.To)
}

// Node is one file. It keeps the first edge seen to each destination, in
// discovery order.
type Node struct {
	Path    string
	edges   map[string]*Edge
	targets []string
}

func newNode(path string) *Node {
	return &Node{Path: path, edges: make(map[string]*Edge)}
}

// Targets returns the destinations of the node's edges in discovery order.
func (n *Node) Targets() []string {
	return append([]string(nil), n.targets...)
}

func (n *Node) Edge(to string) (Edge, bool) {
	e, ok := n.edges[to]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

func (n *Node) Edges() []Edge {
	out := make([]Edge, 0, len(n.targets))
	for _, to := range n.targets {
		out = append(out, *n.edges[to])
	}
	return out
}

func (n *Node) HasSelfLoop() bool {
	_, ok := n.edges[n.Path]
	return ok
}

// Graph maps file identifiers to nodes and remembers insertion order.
// Every edge destination is itself a node of the graph.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges int
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode creates the node for path if needed and reports whether it was new.
func (g *Graph) AddNode(path string) (*Node, bool) {
	if n, ok := g.nodes[path]; ok {
		return n, false
	}
	n := newNode(path)
	g.nodes[path] = n
	g.order = append(g.order, path)
	return n, true
}

// AddEdge records e on its source node unless an edge to the same
// destination is already recorded. Both endpoints must already be nodes.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	from, ok := g.nodes[e.From]
	if !ok {
		return false, errors.AddContext(errors.Invariant("edge source is not a node"), errors.CtxPath, e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return false, errors.AddContext(errors.Invariant("edge destination is not a node"), errors.CtxPath, e.To)
	}
	if _, dup := from.edges[e.To]; dup {
		return false, nil
	}
	stored := e
	from.edges[e.To] = &stored
	from.targets = append(from.targets, e.To)
	g.edges++
	return true, nil
}

func (g *Graph) Node(path string) (*Node, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, path := range g.order {
		out = append(out, g.nodes[path])
	}
	return out
}

// Paths returns all file identifiers in insertion order.
func (g *Graph) Paths() []string {
	return append([]string(nil), g.order...)
}

func (g *Graph) Len() int {
	return len(g.order)
}

func (g *Graph) EdgeCount() int {
	return g.edges
}
