package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CyclicGraphError reports that no install order exists because the
// hard-edge graph contains at least one cycle. It carries the full cycle
// result so a caller can present or resolve the cycles without
// re-deriving them.
type CyclicGraphError struct {
	Result CycleResult
}

func (e *CyclicGraphError) Error() string {
	parts := make([]string, 0, len(e.Result.Cycles))
	for _, cycle := range e.Result.Cycles {
		ids := make([]string, len(cycle))
		for i, id := range cycle {
			ids[i] = id.String()
		}
		parts = append(parts, strings.Join(ids, " -> "))
	}
	return fmt.Sprintf("dependency graph contains %d cycle(s): %s",
		len(e.Result.Cycles), strings.Join(parts, "; "))
}

// RestrictionPair is one violated mutual-exclusion constraint: both
// components are selected while at least one restricts the other.
type RestrictionPair struct {
	First  uuid.UUID
	Second uuid.UUID
}

// MutualExclusionError reports selected components that restrict each
// other. It is a conflict, not an ordering problem, and blocks
// resolution independently of cycle detection.
type MutualExclusionError struct {
	Pairs []RestrictionPair
}

func (e *MutualExclusionError) Error() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = fmt.Sprintf("%s <-> %s", p.First, p.Second)
	}
	return fmt.Sprintf("mutually exclusive components selected: %s", strings.Join(parts, "; "))
}
