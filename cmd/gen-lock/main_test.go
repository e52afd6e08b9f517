package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verify-lock/internal/cli"
	"verify-lock/internal/digest"
)

func noEnv(string) string { return "" }

func TestGenLockWritesSortedManifest(t *testing.T) {
	src := t.TempDir()
	for name, body := range map[string]string{"b.proto": "b", "a.proto": "a", "legacy.proto": "l", "README.md": "r"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(body), 0o644))
	}
	out := filepath.Join(t.TempDir(), "locks", "proto.sum")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"--source-dir", src, "--out", out, "--exclude", "legacy.proto", "--log-level", "off"},
		&stdout, &stderr, noEnv)
	require.Equal(t, cli.ExitOK, code, stderr.String())
	assert.Equal(t, "wrote 2 entries to "+out+"\n", stdout.String())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	want := digest.Bytes(digest.SHA256, []byte("a")) + "  a.proto\n" +
		digest.Bytes(digest.SHA256, []byte("b")) + "  b.proto\n"
	assert.Equal(t, want, string(got))
}

func TestGenLockDefaultOutput(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.proto"), []byte("a"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--source-dir", src, "--digest", "blake3", "--log-level", "off"},
		&stdout, &stderr, noEnv)
	require.Equal(t, cli.ExitOK, code, stderr.String())

	got, err := os.ReadFile(filepath.Join(src, "proto.sum"))
	require.NoError(t, err)
	assert.Equal(t, digest.Bytes(digest.BLAKE3, []byte("a"))+"  a.proto\n", string(got))
}

func TestGenLockMissingSourceDir(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--source-dir", filepath.Join(t.TempDir(), "nope"), "--log-level", "off"},
		&stdout, &stderr, noEnv)
	assert.Equal(t, cli.ExitFailure, code)
	assert.True(t, strings.HasPrefix(stderr.String(), "gen-lock: "))
}
