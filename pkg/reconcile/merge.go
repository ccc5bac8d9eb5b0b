package reconcile

import (
	"github.com/google/uuid"

	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/types"
)

// MatchedPair records one existing/incoming pairing decided during a
// merge, with the score that ranked it and, when the identifiers
// differed, the resolution that picked the survivor.
type MatchedPair struct {
	ExistingID uuid.UUID
	IncomingID uuid.UUID
	Score      float64
	Resolution *GuidResolution
}

// MergeReport summarizes what a merge did, for display or auditing.
type MergeReport struct {
	Pairs    []MatchedPair
	AddedIDs []uuid.UUID

	// ManualResolutions lists identifier conflicts that could not be
	// decided automatically. The merged list already carries the default
	// choice (the existing identifier); the operator may override.
	ManualResolutions []GuidResolution
}

// RequiresManualResolution reports whether any pairing needs an operator
// decision before the merged list should be trusted.
func (r *MergeReport) RequiresManualResolution() bool {
	return len(r.ManualResolutions) > 0
}

// MergeLists merges an incoming component list over an existing one.
//
// Records are paired first by identifier equality, then by best fuzzy
// name/author score among the leftovers (ties keep the first candidate in
// input order). A matched pair yields one merged record: the incoming
// record's content, carrying over the existing record's selection and
// install progress. When a pair carries two different identifiers,
// ResolveGuidConflict picks the survivor and every edge in the merged
// list that referenced the rejected identifier is rewritten to the chosen
// one. Unmatched existing records are retained; unmatched incoming
// records are appended in input order.
//
// Both input lists are left unmodified.
func MergeLists(existing, incoming []*types.Component, m *Matcher) ([]*types.Component, *MergeReport) {
	logger := logging.GetLogger("reconcile")
	report := &MergeReport{}

	claimed := make(map[int]bool, len(incoming))
	pairFor := make(map[int]int, len(existing)) // existing index -> incoming index

	// First pass: identifier equality.
	byID := make(map[uuid.UUID]int, len(incoming))
	for i, in := range incoming {
		if _, dup := byID[in.ID]; !dup {
			byID[in.ID] = i
		}
	}
	for i, ex := range existing {
		if j, ok := byID[ex.ID]; ok && !claimed[j] {
			pairFor[i] = j
			claimed[j] = true
		}
	}

	// Second pass: best fuzzy score among the leftovers.
	for i, ex := range existing {
		if _, done := pairFor[i]; done {
			continue
		}
		bestJ := -1
		bestScore := 0.0
		for j, in := range incoming {
			if claimed[j] {
				continue
			}
			if !m.MatchComponents(ex, in) {
				continue
			}
			score := m.ScoreComponents(ex, in)
			if score > bestScore {
				bestScore = score
				bestJ = j
			}
		}
		if bestJ >= 0 {
			pairFor[i] = bestJ
			claimed[bestJ] = true
		}
	}

	idRemap := make(map[uuid.UUID]uuid.UUID)
	merged := make([]*types.Component, 0, len(existing)+len(incoming))

	for i, ex := range existing {
		j, ok := pairFor[i]
		if !ok {
			merged = append(merged, ex.Clone())
			continue
		}
		in := incoming[j]

		out := in.Clone()
		out.IsSelected = ex.IsSelected
		out.InstallState = ex.InstallState
		out.LastStartedAt = ex.LastStartedAt
		out.LastCompletedAt = ex.LastCompletedAt

		pair := MatchedPair{
			ExistingID: ex.ID,
			IncomingID: in.ID,
			Score:      m.ScoreComponents(ex, in),
		}

		if ex.ID != in.ID {
			res := ResolveGuidConflict(ex, in)
			out.ID = res.ChosenID
			idRemap[res.RejectedID] = res.ChosenID
			pair.Resolution = &res
			if res.RequiresManualResolution {
				report.ManualResolutions = append(report.ManualResolutions, res)
				logger.Info().
					Str("existing", ex.ID.String()).
					Str("incoming", in.ID.String()).
					Str("name", ex.Name).
					Msg("identifier conflict needs manual resolution")
			}
		}

		report.Pairs = append(report.Pairs, pair)
		merged = append(merged, out)
	}

	for j, in := range incoming {
		if claimed[j] {
			continue
		}
		merged = append(merged, in.Clone())
		report.AddedIDs = append(report.AddedIDs, in.ID)
	}

	if len(idRemap) > 0 {
		rewriteEdges(merged, idRemap)
	}

	logger.Debug().
		Int("pairs", len(report.Pairs)).
		Int("added", len(report.AddedIDs)).
		Int("manual", len(report.ManualResolutions)).
		Msg("lists merged")
	return merged, report
}

// rewriteEdges replaces every reference to a rejected identifier with its
// chosen replacement, across component and option edge sets.
func rewriteEdges(list []*types.Component, remap map[uuid.UUID]uuid.UUID) {
	apply := func(ids []uuid.UUID) {
		for i, id := range ids {
			if chosen, ok := remap[id]; ok {
				ids[i] = chosen
			}
		}
	}
	for _, c := range list {
		apply(c.Dependencies)
		apply(c.Restrictions)
		apply(c.InstallBefore)
		apply(c.InstallAfter)
		for i := range c.Options {
			apply(c.Options[i].Dependencies)
			apply(c.Options[i].Restrictions)
		}
	}
}
