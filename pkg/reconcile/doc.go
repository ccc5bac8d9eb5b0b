// Package reconcile decides component identity across list merges.
//
// When a freshly imported component list is merged over a locally edited
// one, records must be paired up: first by identifier equality, then by
// fuzzy name/author similarity. Once a fuzzy pair carries two different
// identifiers, exactly one of them survives; the choice follows how
// entangled each identifier is with the rest of the list (see
// ResolveGuidConflict).
//
// Everything in this package is a pure function of its inputs. UI
// notification and dialog flow live entirely outside the core.
package reconcile
