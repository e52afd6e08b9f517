package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verify-lock/internal/config"
	"verify-lock/internal/digest"
	"verify-lock/internal/lockcheck"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/structdiff"
)

func newFlags(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddCommonFlags(fs, o)
	AddSelectionFlags(fs, o)
	fs.StringVar(&o.Manifest, "manifest", "", "")
	return fs
}

func noEnv(string) string { return "" }

func TestExitCode(t *testing.T) {
	drift := lockcheck.Result{Untracked: []string{"a.proto"}}.Err()
	semantic := structdiff.Outcome{Differences: []structdiff.Difference{{Path: "$"}}}.Err()
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitDrift, ExitCode(drift))
	assert.Equal(t, ExitDrift, ExitCode(fmt.Errorf("wrapped: %w", semantic)))
	assert.Equal(t, ExitFailure, ExitCode(&lockerr.ParseError{Path: "p", Line: 1}))
	assert.Equal(t, ExitFailure, ExitCode(lockerr.ErrCancelled))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("other")))
}

func TestResolveFlagsOverConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vl.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
source_dir = "from-config"
exclude = ["a.proto"]
digest = "blake3"
`), 0o644))

	var o Options
	fs := newFlags(&o)
	require.NoError(t, fs.Parse([]string{
		"--config", cfgPath,
		"--source-dir", "from-flag",
		"--manifest", "m.sum",
		"--exclude", "x.proto", "--exclude", "y.proto",
		"--ext", "proto,def",
	}))
	cfg, err := o.Resolve(fs, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.SourceDir)
	assert.Equal(t, "m.sum", cfg.ManifestPath())
	assert.Equal(t, []string{"x.proto", "y.proto"}, cfg.Exclude)
	assert.Equal(t, []string{"proto", "def"}, cfg.Extensions)
	// Not set on the command line: config wins over flag defaults.
	assert.Equal(t, "blake3", cfg.Digest)

	opts := CheckOptions(cfg, nil)
	assert.Equal(t, digest.BLAKE3, opts.Digest)
	assert.True(t, opts.Exclusions.Has("y.proto"))
	assert.False(t, opts.Exclusions.Has("a.proto"))
}

func TestResolveConfigFromEnv(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "vl.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("source_dir = \"env-dir\"\n"), 0o644))
	env := map[string]string{config.EnvConfig: cfgPath, config.EnvLogLevel: "debug"}

	var o Options
	fs := newFlags(&o)
	require.NoError(t, fs.Parse(nil))
	cfg, err := o.Resolve(fs, func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "env-dir", cfg.SourceDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("env-dir", "proto.sum"), cfg.ManifestPath())
}

func TestResolveExplicitConfigMustExist(t *testing.T) {
	var o Options
	fs := newFlags(&o)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}))
	_, err := o.Resolve(fs, noEnv)
	assert.Error(t, err)
}

func TestResolveValidates(t *testing.T) {
	var o Options
	fs := newFlags(&o)
	require.NoError(t, fs.Parse([]string{"--digest", "md5", "--log-level", "loud"}))
	_, err := o.Resolve(fs, noEnv)
	assert.ErrorContains(t, err, "unknown digest algorithm")
	assert.ErrorContains(t, err, "unknown log level")
}
