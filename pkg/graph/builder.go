package graph

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/modsync/pkg/types"
)

// Graph is the hard-edge dependency graph over a set of selected
// components. An edge A -> B means "B must be installed before A".
//
// Only selected components participate: edges pointing at unselected or
// unknown identifiers are dropped at build time, so a deselected
// component never blocks resolution of the rest.
type Graph struct {
	// nodes holds the participating component IDs in input list order.
	nodes []uuid.UUID

	// edges maps each node to its prerequisites, in first-declared order.
	edges map[uuid.UUID][]uuid.UUID

	// index maps each node to its position in the input list.
	index map[uuid.UUID]int
}

// Build constructs the hard-edge graph from a component list. Unselected
// components are excluded entirely. Restrictions do not contribute edges.
func Build(components []*types.Component) *Graph {
	g := &Graph{
		edges: make(map[uuid.UUID][]uuid.UUID),
		index: make(map[uuid.UUID]int),
	}

	for _, c := range components {
		if !c.IsSelected {
			continue
		}
		if _, seen := g.index[c.ID]; seen {
			continue
		}
		g.index[c.ID] = len(g.nodes)
		g.nodes = append(g.nodes, c.ID)
		g.edges[c.ID] = nil
	}

	for _, c := range components {
		if _, ok := g.index[c.ID]; !ok {
			continue
		}
		for _, dep := range c.Dependencies {
			g.addEdge(c.ID, dep)
		}
		for _, after := range c.InstallAfter {
			g.addEdge(c.ID, after)
		}
		for _, before := range c.InstallBefore {
			g.addEdge(before, c.ID)
		}
	}

	return g
}

// addEdge records "to must be installed before from", ignoring edges to
// components outside the graph and duplicate declarations.
func (g *Graph) addEdge(from, to uuid.UUID) {
	if _, ok := g.index[from]; !ok {
		return
	}
	if _, ok := g.index[to]; !ok {
		return
	}
	if from == to {
		return
	}
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns the participating component IDs in input order.
func (g *Graph) Nodes() []uuid.UUID {
	return append([]uuid.UUID(nil), g.nodes...)
}

// Prerequisites returns the components that must be installed before id.
func (g *Graph) Prerequisites(id uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID(nil), g.edges[id]...)
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}
