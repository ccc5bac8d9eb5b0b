// Package types defines the core data model shared across modsync:
// component records, install states, and the persisted session state.
//
// Types here are plain values. Graph edges between components reference
// component IDs only, never pointers to other records, so lists can be
// copied, merged, and re-resolved freely without aliasing concerns.
package types
