package graph

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

func componentSets(components []Component) map[string]string {
	// member -> canonical key of its component
	out := make(map[string]string)
	for _, c := range components {
		members := append([]string(nil), c...)
		sort.Strings(members)
		key := fmt.Sprint(members)
		for _, m := range c {
			out[m] = key
		}
	}
	return out
}

func TestSCC_SimpleCycle(t *testing.T) {
	g := newTestGraph(t, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"})

	components, err := StronglyConnectedComponents(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 1 || len(components[0]) != 3 {
		t.Fatalf("expected one component of 3, got %v", components)
	}
	if !components[0].IsCycle(g) {
		t.Error("expected component to be a cycle")
	}
}

func TestSCC_Acyclic(t *testing.T) {
	g := newTestGraph(t,
		[2]string{"a", "b"}, [2]string{"a", "c"},
		[2]string{"b", "d"}, [2]string{"c", "d"},
	)

	components, err := StronglyConnectedComponents(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 4 {
		t.Fatalf("expected 4 singleton components, got %v", components)
	}
	for _, c := range components {
		if c.IsCycle(g) {
			t.Errorf("unexpected cycle %v", c)
		}
	}
	// Components are emitted in reverse topological order.
	if components[0][0] != "d" {
		t.Errorf("expected sink first, got %v", components)
	}
}

func TestSCC_SelfLoop(t *testing.T) {
	g := newTestGraph(t, [2]string{"a", "a"}, [2]string{"a", "b"})

	components, err := StronglyConnectedComponents(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	cycles := 0
	for _, c := range components {
		if c.IsCycle(g) {
			cycles++
			if len(c) != 1 || c[0] != "a" {
				t.Errorf("expected self loop component [a], got %v", c)
			}
		}
	}
	if cycles != 1 {
		t.Errorf("expected exactly one cyclic component, got %d", cycles)
	}
}

func TestSCC_DeepChain(t *testing.T) {
	const count = 200000
	g := NewGraph()
	name := func(i int) string { return fmt.Sprintf("f%06d.js", i) }
	for i := 0; i < count; i++ {
		g.AddNode(name(i))
	}
	for i := 0; i < count; i++ {
		if _, err := g.AddEdge(Edge{From: name(i), To: name((i + 1) % count)}); err != nil {
			t.Fatal(err)
		}
	}

	components, err := StronglyConnectedComponents(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if len(components) != 1 || len(components[0]) != count {
		t.Fatalf("expected a single component of %d, got %d components", count, len(components))
	}
}

// TestSCC_MatchesGonum checks the partition against gonum's implementation on
// random graphs.
func TestSCC_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		nodes := 2 + rng.Intn(30)
		edges := rng.Intn(nodes * 3)

		g := NewGraph()
		oracle := simple.NewDirectedGraph()
		name := func(i int64) string { return fmt.Sprintf("n%d", i) }
		for i := 0; i < nodes; i++ {
			g.AddNode(name(int64(i)))
			oracle.AddNode(simple.Node(i))
		}
		for i := 0; i < edges; i++ {
			from, to := int64(rng.Intn(nodes)), int64(rng.Intn(nodes))
			if from == to {
				continue
			}
			if _, err := g.AddEdge(Edge{From: name(from), To: name(to)}); err != nil {
				t.Fatal(err)
			}
			oracle.SetEdge(oracle.NewEdge(simple.Node(from), simple.Node(to)))
		}

		components, err := StronglyConnectedComponents(context.Background(), g)
		if err != nil {
			t.Fatal(err)
		}

		// Partition completeness: every node exactly once.
		count := make(map[string]int)
		for _, c := range components {
			for _, m := range c {
				count[m]++
			}
		}
		if len(count) != nodes {
			t.Fatalf("round %d: expected %d nodes in partition, got %d", round, nodes, len(count))
		}
		for m, n := range count {
			if n != 1 {
				t.Fatalf("round %d: %s appears in %d components", round, m, n)
			}
		}

		want := make([]Component, 0)
		for _, scc := range topo.TarjanSCC(oracle) {
			c := make(Component, 0, len(scc))
			for _, n := range scc {
				c = append(c, name(n.ID()))
			}
			want = append(want, c)
		}
		got, expected := componentSets(components), componentSets(want)
		for m, key := range expected {
			if got[m] != key {
				t.Fatalf("round %d: node %s in %s, gonum says %s", round, m, got[m], key)
			}
		}
	}
}
