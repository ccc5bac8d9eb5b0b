package paths

import (
	"path/filepath"
	"strings"
)

const (
	// MetadataDirName is the hidden folder modsync owns inside a
	// destination directory.
	MetadataDirName = ".modsync"

	checkpointsDirName = "checkpoints"
	sessionsDirName    = "sessions"
	sessionFileName    = "install_session.json"
	backupFileName     = "last_good_backup.zip"
)

// Checkpoints derives every checkpoint-related path for one destination
// directory. It performs no I/O.
type Checkpoints struct {
	destDir string
}

// ForDestination returns the checkpoint path layout for destDir.
func ForDestination(destDir string) Checkpoints {
	return Checkpoints{destDir: filepath.Clean(destDir)}
}

// DestDir returns the destination directory this layout belongs to.
func (c Checkpoints) DestDir() string {
	return c.destDir
}

// MetadataDir returns the hidden metadata folder inside the destination.
func (c Checkpoints) MetadataDir() string {
	return filepath.Join(c.destDir, MetadataDirName)
}

// CheckpointsDir returns the folder holding session and backup data.
func (c Checkpoints) CheckpointsDir() string {
	return filepath.Join(c.MetadataDir(), checkpointsDirName)
}

// SessionsDir returns the folder holding session files.
func (c Checkpoints) SessionsDir() string {
	return filepath.Join(c.CheckpointsDir(), sessionsDirName)
}

// SessionFile returns the path of the persisted session document.
func (c Checkpoints) SessionFile() string {
	return filepath.Join(c.SessionsDir(), sessionFileName)
}

// BackupArchive returns the path of the last-known-good snapshot archive.
func (c Checkpoints) BackupArchive() string {
	return filepath.Join(c.CheckpointsDir(), backupFileName)
}

// IsMetadataPath reports whether path lies inside the metadata folder.
// Both arguments are expected to be absolute or both relative.
func (c Checkpoints) IsMetadataPath(path string) bool {
	meta := c.MetadataDir()
	cleaned := filepath.Clean(path)
	if cleaned == meta {
		return true
	}
	return strings.HasPrefix(cleaned, meta+string(filepath.Separator))
}
