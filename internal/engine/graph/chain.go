package graph

// FindImportChain returns the shortest chain of imports leading from one file
// to another, both ends included.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	if _, ok := g.nodes[from]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.nodes[curr].targets {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p, ok := prev[node]
					if !ok {
						return nil, false
					}
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}
