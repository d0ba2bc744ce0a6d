package graph

import (
	"context"
	"sort"
	"time"

	"importcycles/internal/core/errors"
	"importcycles/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Cycle is a sequence of files where each imports the next and the last
// imports the first.
type Cycle []string

// Sorted returns a copy of c with its members in lexical order.
func (c Cycle) Sorted() Cycle {
	out := append(Cycle(nil), c...)
	sort.Strings(out)
	return out
}

// MinimalCycles reduces the cyclic components to a small set of shortest
// cycles. For every member of a cyclic component it finds the shortest cycle
// through that member inside the component, then keeps cycles shortest first
// as long as each one covers at least one member not covered yet. A single
// file that imports itself yields a one-element cycle.
func MinimalCycles(ctx context.Context, g *Graph, components []Component) ([]Cycle, error) {
	_, span := observability.Tracer.Start(ctx, "graph.MinimalCycles")
	defer span.End()
	start := time.Now()

	candidates := make([]Cycle, 0)
	for _, component := range components {
		if !component.IsCycle(g) {
			continue
		}
		if len(component) == 1 {
			candidates = append(candidates, Cycle{component[0]})
			continue
		}

		members := make(map[string]bool, len(component))
		for _, path := range component {
			members[path] = true
		}
		for _, path := range component {
			cycle, err := shortestCycleThrough(g, path, members)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			candidates = append(candidates, cycle)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) < len(candidates[j])
	})

	seen := make(map[string]bool)
	result := make([]Cycle, 0)
	for _, cycle := range candidates {
		fresh := false
		for _, path := range cycle {
			if !seen[path] {
				fresh = true
				break
			}
		}
		if !fresh {
			continue
		}
		for _, path := range cycle {
			seen[path] = true
		}
		result = append(result, cycle)
	}

	observability.CyclesReported.Set(float64(len(result)))
	observability.AnalysisDuration.WithLabelValues("minimal_cycles").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("cycles", len(result)))

	return result, nil
}

// shortestCycleThrough runs a breadth-first search from start's successors,
// never leaving members, until an edge back to start is found. The returned
// cycle begins with start.
func shortestCycleThrough(g *Graph, start string, members map[string]bool) (Cycle, error) {
	pred := make(map[string]string, len(members))
	queue := make([]string, 0, len(members))
	queue = append(queue, start)
	found := false

	for head := 0; head < len(queue) && !found; head++ {
		curr := queue[head]
		node, ok := g.Node(curr)
		if !ok {
			return nil, errors.AddContext(errors.Invariant("component member is not a node"), errors.CtxPath, curr)
		}
		for _, next := range node.targets {
			if !members[next] {
				continue
			}
			if next == start {
				pred[start] = curr
				found = true
				break
			}
			if _, visited := pred[next]; visited {
				continue
			}
			pred[next] = curr
			queue = append(queue, next)
		}
	}
	if !found {
		return nil, errors.AddContext(errors.Invariant("component member cannot reach itself"), errors.CtxPath, start)
	}

	reversed := make([]string, 0, len(members))
	for curr := pred[start]; curr != start; {
		if len(reversed) >= len(members) {
			return nil, errors.AddContext(errors.Invariant("predecessor chain does not return to start"), errors.CtxPath, start)
		}
		reversed = append(reversed, curr)
		p, ok := pred[curr]
		if !ok {
			return nil, errors.AddContext(errors.Invariant("predecessor chain is broken"), errors.CtxPath, curr)
		}
		curr = p
	}

	cycle := make(Cycle, 0, len(reversed)+1)
	cycle = append(cycle, start)
	for i := len(reversed) - 1; i >= 0; i-- {
		cycle = append(cycle, reversed[i])
	}
	return cycle, nil
}
