// Package config loads verify-lock settings from an optional TOML file and
// the environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"verify-lock/internal/digest"
	"verify-lock/internal/logging"
	"verify-lock/internal/manifest"
	"verify-lock/internal/walkwalk"
)

const (
	// DefaultFile is read from the working directory when present.
	DefaultFile = "verify-lock.toml"

	EnvConfig   = "VERIFY_LOCK_CONFIG"
	EnvLogLevel = "VERIFY_LOCK_LOG_LEVEL"
)

// Config holds the resolved settings of one verify-lock or gen-lock run.
type Config struct {
	SourceDir  string         `toml:"source_dir"`
	Manifest   string         `toml:"manifest"`
	Exclude    []string       `toml:"exclude"`
	Extensions []string       `toml:"extensions"`
	Digest     string         `toml:"digest"`
	Recursive  bool           `toml:"recursive"`
	LogLevel   string         `toml:"log_level"`
	Semantic   SemanticConfig `toml:"semantic"`
}

// SemanticConfig drives the structured lock comparison.
type SemanticConfig struct {
	Committed    string   `toml:"committed"`
	RegenCmd     []string `toml:"regen_cmd"`
	LockName     string   `toml:"lock_name"`
	DiffContext  int      `toml:"diff_context"`
	MaxDiffBytes int      `toml:"max_diff_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SourceDir:  ".",
		Extensions: []string{walkwalk.DefaultExt},
		Digest:     string(digest.Default),
		LogLevel:   "info",
		Semantic: SemanticConfig{
			DiffContext:  3,
			MaxDiffBytes: 2_000_000,
		},
	}
}

// Load reads path on top of Default. When required is false a missing file
// is not an error and yields the defaults.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// ManifestPath returns the configured manifest or the default one inside
// SourceDir.
func (c Config) ManifestPath() string {
	if c.Manifest != "" {
		return c.Manifest
	}
	return filepath.Join(c.SourceDir, manifest.DefaultName)
}

// CommittedLockPath returns the committed structured lock, defaulting to
// proto.lock inside SourceDir.
func (c Config) CommittedLockPath(lockName string) string {
	if c.Semantic.Committed != "" {
		return c.Semantic.Committed
	}
	return filepath.Join(c.SourceDir, lockName)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	if strings.TrimSpace(c.SourceDir) == "" {
		err = multierr.Append(err, errors.New("source_dir must be non-empty"))
	}
	if _, derr := digest.Parse(c.Digest); derr != nil {
		err = multierr.Append(err, derr)
	}
	if _, lerr := logging.ParseLevel(c.LogLevel); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	if len(walkwalk.ExtSet(c.Extensions)) == 0 {
		err = multierr.Append(err, errors.New("extensions must list at least one extension"))
	}
	for i, name := range c.Exclude {
		if strings.TrimSpace(name) == "" {
			err = multierr.Append(err, fmt.Errorf("exclude[%d] is empty", i))
		}
	}
	if c.Semantic.DiffContext < 0 {
		err = multierr.Append(err, fmt.Errorf("semantic.diff_context must be >= 0 (got %d)", c.Semantic.DiffContext))
	}
	if c.Semantic.MaxDiffBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("semantic.max_diff_bytes must be >= 0 (got %d)", c.Semantic.MaxDiffBytes))
	}
	return err
}
