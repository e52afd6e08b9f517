package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadMissingOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"), true)
	assert.ErrorContains(t, err, "config load failed")
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
source_dir = "proto"
manifest = "proto/proto.sum"
exclude = ["legacy.proto", "v1/old.proto"]
extensions = [".proto", ".def"]
digest = "blake3"
recursive = true
log_level = "debug"

[semantic]
committed = "proto/proto.lock"
regen_cmd = ["protolock", "init", "--protoroot", "{src}", "--lockdir", "{out}"]
diff_context = 5
`)
	cfg, err := Load(p, true)
	require.NoError(t, err)
	assert.Equal(t, "proto", cfg.SourceDir)
	assert.Equal(t, "proto/proto.sum", cfg.ManifestPath())
	assert.Equal(t, []string{"legacy.proto", "v1/old.proto"}, cfg.Exclude)
	assert.Equal(t, []string{".proto", ".def"}, cfg.Extensions)
	assert.Equal(t, "blake3", cfg.Digest)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "proto/proto.lock", cfg.CommittedLockPath("proto.lock"))
	assert.Len(t, cfg.Semantic.RegenCmd, 6)
	assert.Equal(t, 5, cfg.Semantic.DiffContext)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2_000_000, cfg.Semantic.MaxDiffBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, "source_dir = \"x\"\nmanifets = \"typo\"\n")
	_, err := Load(p, true)
	assert.ErrorContains(t, err, "unknown keys manifets")
}

func TestLoadRejectsBadTOML(t *testing.T) {
	p := writeConfig(t, "source_dir = \n")
	_, err := Load(p, true)
	assert.ErrorContains(t, err, "config parse failed")
}

func TestDefaultPaths(t *testing.T) {
	cfg := Default()
	cfg.SourceDir = "defs"
	assert.Equal(t, filepath.Join("defs", "proto.sum"), cfg.ManifestPath())
	assert.Equal(t, filepath.Join("defs", "proto.lock"), cfg.CommittedLockPath("proto.lock"))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{EnvLogLevel: " warn "}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidateAggregates(t *testing.T) {
	cfg := Default()
	cfg.SourceDir = " "
	cfg.Digest = "md5"
	cfg.LogLevel = "loud"
	cfg.Extensions = nil
	cfg.Exclude = []string{"ok.proto", ""}
	cfg.Semantic.DiffContext = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
	assert.ErrorContains(t, err, "exclude[1] is empty")
}
