package graph

import (
	"context"
	"time"

	"importcycles/internal/core/errors"
	"importcycles/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Component is a strongly connected component, listed in the order its
// members were popped off the Tarjan stack.
type Component []string

// IsCycle reports whether c witnesses a cycle in g: more than one member, or
// a single member that imports itself.
func (c Component) IsCycle(g *Graph) bool {
	if len(c) > 1 {
		return true
	}
	if len(c) == 1 {
		if n, ok := g.Node(c[0]); ok {
			return n.HasSelfLoop()
		}
	}
	return false
}

type tarjanFrame struct {
	node *Node
	next int
}

// tarjan holds the bookkeeping of one SCC pass. The depth-first search keeps
// its own frame stack so import chains of any length are safe.
type tarjan struct {
	graph      *Graph
	index      int
	indexOf    map[string]int
	lowLink    map[string]int
	onStack    map[string]bool
	stack      []string
	frames     []tarjanFrame
	components []Component
}

func newTarjan(g *Graph) *tarjan {
	n := g.Len()
	return &tarjan{
		graph:   g,
		indexOf: make(map[string]int, n),
		lowLink: make(map[string]int, n),
		onStack: make(map[string]bool, n),
		stack:   make([]string, 0, n),
	}
}

// StronglyConnectedComponents partitions g with Tarjan's algorithm. Roots are
// taken in insertion order.
func StronglyConnectedComponents(ctx context.Context, g *Graph) ([]Component, error) {
	_, span := observability.Tracer.Start(ctx, "graph.StronglyConnectedComponents")
	defer span.End()
	start := time.Now()

	t := newTarjan(g)
	for _, root := range g.Nodes() {
		if _, seen := t.indexOf[root.Path]; seen {
			continue
		}
		if err := t.run(root); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	cyclic := 0
	for _, c := range t.components {
		if c.IsCycle(g) {
			cyclic++
		}
	}
	observability.StronglyConnectedComponents.Set(float64(cyclic))
	observability.AnalysisDuration.WithLabelValues("scc").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("components", len(t.components)), attribute.Int("cyclic", cyclic))

	return t.components, nil
}

func (t *tarjan) push(node *Node) {
	t.indexOf[node.Path] = t.index
	t.lowLink[node.Path] = t.index
	t.index++
	t.stack = append(t.stack, node.Path)
	t.onStack[node.Path] = true
	t.frames = append(t.frames, tarjanFrame{node: node})
}

func (t *tarjan) run(root *Node) error {
	t.push(root)

	for len(t.frames) > 0 {
		top := &t.frames[len(t.frames)-1]
		v := top.node.Path

		if top.next < len(top.node.targets) {
			w := top.node.targets[top.next]
			top.next++

			if _, seen := t.indexOf[w]; !seen {
				next, ok := t.graph.Node(w)
				if !ok {
					return errors.AddContext(errors.Invariant("edge destination is not a node"), errors.CtxPath, w)
				}
				t.push(next)
				continue
			}
			if t.onStack[w] && t.indexOf[w] < t.lowLink[v] {
				t.lowLink[v] = t.indexOf[w]
			}
			continue
		}

		// All edges of v are done: return to the caller frame.
		t.frames = t.frames[:len(t.frames)-1]
		if len(t.frames) > 0 {
			parent := t.frames[len(t.frames)-1].node.Path
			if t.lowLink[v] < t.lowLink[parent] {
				t.lowLink[parent] = t.lowLink[v]
			}
		}

		if t.lowLink[v] == t.indexOf[v] {
			if err := t.popComponent(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *tarjan) popComponent(root string) error {
	component := make(Component, 0, 1)
	for {
		if len(t.stack) == 0 {
			return errors.AddContext(errors.Invariant("tarjan stack exhausted before component root"), errors.CtxPath, root)
		}
		last := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[last] = false
		component = append(component, last)
		if last == root {
			break
		}
	}
	t.components = append(t.components, component)
	return nil
}
