// Package config loads modsync configuration with koanf, layering
// defaults, an optional modsync.toml file, and MODSYNC_-prefixed
// environment variables, in that order.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/reconcile"
)

// FileName is the configuration file looked up in the working directory
// (or at an explicit path given to Load).
const FileName = "modsync.toml"

// InstallConfig tunes the orchestration loop.
type InstallConfig struct {
	// PromoteSnapshotAfterEach moves the rollback point forward after
	// every successfully applied component instead of keeping the
	// pre-run snapshot for the whole run.
	PromoteSnapshotAfterEach bool `koanf:"promote_snapshot_after_each"`
}

// SnapshotConfig tunes backup archive creation.
type SnapshotConfig struct {
	// CompressionLevel is the deflate level for the backup archive,
	// -2 through 9 as accepted by flate. -1 selects the default.
	CompressionLevel int `koanf:"compression_level"`
}

// Config is the full modsync configuration.
type Config struct {
	Matcher  reconcile.MatcherConfig `koanf:"matcher"`
	Install  InstallConfig           `koanf:"install"`
	Snapshot SnapshotConfig          `koanf:"snapshot"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Matcher:  reconcile.DefaultMatcherConfig(),
		Snapshot: SnapshotConfig{CompressionLevel: -1},
	}
}

// Load layers configuration from defaults, then the TOML file at path
// (skipped when path is empty or the file does not exist), then
// MODSYNC_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"matcher.prefix_suffix_max":           def.Matcher.PrefixSuffixMax,
		"matcher.containment_min":             def.Matcher.ContainmentMin,
		"matcher.edit_similarity_min":         def.Matcher.EditSimilarityMin,
		"matcher.word_overlap_min":            def.Matcher.WordOverlapMin,
		"install.promote_snapshot_after_each": def.Install.PromoteSnapshotAfterEach,
		"snapshot.compression_level":          def.Snapshot.CompressionLevel,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if path == "" {
		path = FileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", path)
		}
	}

	// MODSYNC_MATCHER__WORD_OVERLAP_MIN maps to matcher.word_overlap_min;
	// the double underscore separates sections since key names themselves
	// contain single underscores.
	if err := k.Load(env.Provider("MODSYNC_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "MODSYNC_")), "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "failed to unmarshal configuration")
	}
	return &cfg, nil
}
