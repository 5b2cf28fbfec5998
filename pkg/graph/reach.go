package graph

// Reachable returns, in BFS order, every node a cascade started at seeds
// could ever infect: nodes reachable along out-arcs, where fact-checkers are
// neither infected nor relay. Seeds are included unless they are
// fact-checkers or unknown. Hops maps each reached node to its distance from
// the nearest seed, which is also the earliest timestep it can be infected.
func Reachable(g *Graph, seeds []NodeID) (order []NodeID, hops map[NodeID]int) {
	hops = make(map[NodeID]int)
	queue := make([]NodeID, 0, len(seeds))

	for _, id := range seeds {
		n, ok := g.Node(id)
		if !ok || n.FactChecker {
			continue
		}
		if _, seen := hops[id]; seen {
			continue
		}
		hops[id] = 0
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, arc := range g.OutArcs(current) {
			if _, seen := hops[arc.Target]; seen {
				continue
			}
			target, _ := g.Node(arc.Target)
			if target.FactChecker {
				continue
			}
			hops[arc.Target] = hops[current] + 1
			queue = append(queue, arc.Target)
		}
	}

	return order, hops
}
