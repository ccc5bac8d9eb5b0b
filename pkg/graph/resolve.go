package graph

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/types"
)

// Resolve produces a total install order over the selected components in
// list: for every hard edge A -> B, B appears before A. Ties are broken
// by input list order, so identical input yields identical output.
//
// Resolution fails with *MutualExclusionError when two selected
// components restrict each other, and with *CyclicGraphError when the
// hard-edge graph contains a cycle. Both are terminal for this attempt;
// the caller must mutate the list and re-invoke.
func Resolve(list []*types.Component) ([]uuid.UUID, error) {
	logger := logging.GetLogger("graph")

	if pairs := findRestrictionConflicts(list); len(pairs) > 0 {
		logger.Debug().Int("conflicts", len(pairs)).Msg("restriction conflicts block resolution")
		return nil, &MutualExclusionError{Pairs: pairs}
	}

	g := Build(list)

	if result := g.DetectCycles(); result.HasCycles {
		logger.Debug().Int("cycles", len(result.Cycles)).Msg("cycles block resolution")
		return nil, &CyclicGraphError{Result: result}
	}

	order := g.topoSort()
	logger.Trace().Int("components", len(order)).Msg("install order resolved")
	return order, nil
}

// findRestrictionConflicts returns every violated mutual-exclusion pair
// among selected components, in input order, each pair reported once.
func findRestrictionConflicts(list []*types.Component) []RestrictionPair {
	selected := make(map[uuid.UUID]bool, len(list))
	for _, c := range list {
		if c.IsSelected {
			selected[c.ID] = true
		}
	}

	seen := make(map[[2]uuid.UUID]bool)
	var pairs []RestrictionPair
	for _, c := range list {
		if !c.IsSelected {
			continue
		}
		for _, r := range c.Restrictions {
			if !selected[r] || r == c.ID {
				continue
			}
			key := [2]uuid.UUID{c.ID, r}
			if c.ID.String() > r.String() {
				key = [2]uuid.UUID{r, c.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, RestrictionPair{First: c.ID, Second: r})
		}
	}
	return pairs
}

// topoSort runs Kahn's algorithm over the graph. Nodes whose remaining
// prerequisites are all emitted become ready; among ready nodes the one
// earliest in the input list is emitted next. The graph must be acyclic.
func (g *Graph) topoSort() []uuid.UUID {
	remaining := make(map[uuid.UUID]int, len(g.nodes))
	dependents := make(map[uuid.UUID][]uuid.UUID, len(g.nodes))
	for _, id := range g.nodes {
		remaining[id] = len(g.edges[id])
		for _, pre := range g.edges[id] {
			dependents[pre] = append(dependents[pre], id)
		}
	}

	// ready holds zero-in-degree nodes ordered by input list position.
	var ready []uuid.UUID
	insert := func(id uuid.UUID) {
		pos := g.index[id]
		i := len(ready)
		for i > 0 && g.index[ready[i-1]] > pos {
			i--
		}
		ready = append(ready, uuid.Nil)
		copy(ready[i+1:], ready[i:])
		ready[i] = id
	}

	for _, id := range g.nodes {
		if remaining[id] == 0 {
			insert(id)
		}
	}

	order := make([]uuid.UUID, 0, len(g.nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			remaining[dep]--
			if remaining[dep] == 0 {
				insert(dep)
			}
		}
	}

	return order
}
