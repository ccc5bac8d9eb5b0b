// Package paths centralizes path derivation for modsync.
//
// All durable per-destination state lives under a hidden metadata folder
// inside the destination directory itself:
//
//	<dest>/.modsync/checkpoints/sessions/install_session.json
//	<dest>/.modsync/checkpoints/last_good_backup.zip
//
// The metadata folder is always excluded from snapshots and restores, so
// a rollback never clobbers the state that describes it.
package paths
