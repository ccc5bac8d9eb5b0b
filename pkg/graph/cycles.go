package graph

import (
	"github.com/google/uuid"
)

// CycleResult reports every distinct cycle found in the hard-edge graph.
type CycleResult struct {
	HasCycles bool
	Cycles    [][]uuid.UUID
}

type visitColor uint8

const (
	colorWhite visitColor = iota // unvisited
	colorGray                    // on the current recursion stack
	colorBlack                   // fully explored
)

// DetectCycles walks the graph depth-first from every unvisited node and
// collects each cycle closed by a back-edge to a node still on the
// recursion stack. A node fully explored without finding a cycle is never
// re-explored. The walk follows input list order, so the result is
// deterministic for a given input sequence.
func (g *Graph) DetectCycles() CycleResult {
	colors := make(map[uuid.UUID]visitColor, len(g.nodes))
	stack := make([]uuid.UUID, 0, len(g.nodes))
	stackPos := make(map[uuid.UUID]int, len(g.nodes))

	var result CycleResult

	var visit func(id uuid.UUID)
	visit = func(id uuid.UUID) {
		colors[id] = colorGray
		stackPos[id] = len(stack)
		stack = append(stack, id)

		for _, pre := range g.edges[id] {
			switch colors[pre] {
			case colorWhite:
				visit(pre)
			case colorGray:
				// Back-edge: the stack slice from pre to the top is one cycle.
				start := stackPos[pre]
				cycle := append([]uuid.UUID(nil), stack[start:]...)
				result.Cycles = append(result.Cycles, cycle)
			}
		}

		stack = stack[:len(stack)-1]
		delete(stackPos, id)
		colors[id] = colorBlack
	}

	for _, id := range g.nodes {
		if colors[id] == colorWhite {
			visit(id)
		}
	}

	result.HasCycles = len(result.Cycles) > 0
	return result
}
