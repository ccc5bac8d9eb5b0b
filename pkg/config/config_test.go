package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, def.Matcher, cfg.Matcher)
	assert.False(t, cfg.Install.PromoteSnapshotAfterEach)
	assert.Equal(t, -1, cfg.Snapshot.CompressionLevel)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[matcher]
word_overlap_min = 0.65

[install]
promote_snapshot_after_each = true
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.65, cfg.Matcher.WordOverlapMin)
	assert.True(t, cfg.Install.PromoteSnapshotAfterEach)

	// Untouched keys keep their defaults.
	assert.Equal(t, config.Default().Matcher.ContainmentMin, cfg.Matcher.ContainmentMin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MODSYNC_MATCHER__EDIT_SIMILARITY_MIN", "0.9")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Matcher.EditSimilarityMin)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
