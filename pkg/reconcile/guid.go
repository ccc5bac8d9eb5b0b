package reconcile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arthur-debert/modsync/pkg/types"
)

// GuidResolution records which identifier survives when two records with
// different identifiers have been established to denote the same logical
// component.
type GuidResolution struct {
	ChosenID   uuid.UUID
	RejectedID uuid.UUID

	// RequiresManualResolution is set when both identifiers are
	// referenced elsewhere (or own sub-identifiers), so neither can be
	// discarded without breaking edges. ChosenID then defaults to the
	// existing identifier pending an operator decision.
	RequiresManualResolution bool

	Reason string
}

// ResolveGuidConflict decides which identifier survives for a matched
// pair carrying different identifiers. An identifier with intricate
// usage, referenced by edges or owning option sub-identifiers, must not
// be silently discarded: doing so would break those references without
// signaling the operator.
//
//	existing intricate, incoming intricate  -> manual, default existing
//	existing intricate, incoming plain      -> existing
//	existing plain,     incoming intricate  -> incoming
//	existing plain,     incoming plain      -> existing (stability)
func ResolveGuidConflict(existing, incoming *types.Component) GuidResolution {
	exIntricate := existing.HasIntricateIDUsage()
	inIntricate := incoming.HasIntricateIDUsage()

	switch {
	case exIntricate && inIntricate:
		return GuidResolution{
			ChosenID:                 existing.ID,
			RejectedID:               incoming.ID,
			RequiresManualResolution: true,
			Reason: fmt.Sprintf(
				"both identifiers for %q are referenced by other components or options; defaulting to the existing identifier pending manual review",
				existing.Name),
		}
	case exIntricate:
		return GuidResolution{
			ChosenID:   existing.ID,
			RejectedID: incoming.ID,
			Reason: fmt.Sprintf(
				"existing identifier for %q is referenced elsewhere; keeping it",
				existing.Name),
		}
	case inIntricate:
		return GuidResolution{
			ChosenID:   incoming.ID,
			RejectedID: existing.ID,
			Reason: fmt.Sprintf(
				"incoming identifier for %q is referenced elsewhere; adopting it",
				incoming.Name),
		}
	default:
		return GuidResolution{
			ChosenID:   existing.ID,
			RejectedID: incoming.ID,
			Reason: fmt.Sprintf(
				"neither identifier for %q is referenced elsewhere; keeping the existing one",
				existing.Name),
		}
	}
}
