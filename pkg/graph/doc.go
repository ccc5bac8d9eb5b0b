// Package graph builds the dependency graph over a component list,
// detects cycles among its hard ordering edges, and resolves a
// deterministic install order.
//
// The graph is an adjacency map over component IDs, rebuilt fresh on
// every call. Resolution is pure computation: no I/O, no shared state,
// and the same input list always yields byte-identical output. Ties are
// broken by the caller-supplied input order, never by ID or name.
//
// Restrictions are not ordering edges. They are validated separately as
// mutual-exclusion constraints and reported as conflicts, not cycles.
package graph
