package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/modsync/pkg/paths"
)

func TestCheckpointLayout(t *testing.T) {
	c := paths.ForDestination("/games/kotor")

	assert.Equal(t, "/games/kotor", c.DestDir())
	assert.Equal(t, filepath.Join("/games/kotor", ".modsync"), c.MetadataDir())
	assert.Equal(t,
		filepath.Join("/games/kotor", ".modsync", "checkpoints", "sessions", "install_session.json"),
		c.SessionFile())
	assert.Equal(t,
		filepath.Join("/games/kotor", ".modsync", "checkpoints", "last_good_backup.zip"),
		c.BackupArchive())
}

func TestForDestinationCleansPath(t *testing.T) {
	c := paths.ForDestination("/games/kotor/./override/..")
	assert.Equal(t, "/games/kotor", c.DestDir())
}

func TestIsMetadataPath(t *testing.T) {
	c := paths.ForDestination("/games/kotor")

	assert.True(t, c.IsMetadataPath("/games/kotor/.modsync"))
	assert.True(t, c.IsMetadataPath("/games/kotor/.modsync/checkpoints/last_good_backup.zip"))
	assert.False(t, c.IsMetadataPath("/games/kotor/override"))
	assert.False(t, c.IsMetadataPath("/games/kotor/.modsync-lookalike"))
}
