// Package checkpoint persists per-component install progress and manages
// full snapshots of the destination directory.
//
// One Manager owns one session: a JSON document under the destination's
// hidden metadata folder, written atomically via a temp file, plus at
// most one zip archive holding the last known-good snapshot of the tree.
// Snapshot creation and restore stage through temporary directories so a
// partially written archive can never overwrite a known-good one.
//
// The manager assumes single-writer access per session. Concurrent
// sessions against the same destination directory are unsupported and
// will corrupt state.
package checkpoint
