package structdiff

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"verify-lock/internal/diff"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/textutil"
)

// Generator writes a fresh lock artifact for sourceDir into outDir and
// returns its path.
type Generator interface {
	Generate(ctx context.Context, sourceDir, outDir string) (string, error)
}

// Placeholders substituted in CommandGenerator.Args.
const (
	SourcePlaceholder = "{src}"
	OutPlaceholder    = "{out}"
)

// DefaultCommand runs protolock in init mode against a scratch lock dir.
var DefaultCommand = []string{"protolock", "init", "--protoroot", SourcePlaceholder, "--lockdir", OutPlaceholder}

// DefaultLockName is the artifact file protolock writes.
const DefaultLockName = "proto.lock"

// CommandGenerator runs an external lock tool.
type CommandGenerator struct {
	// Command is argv; {src} and {out} are replaced in every element.
	Command  []string
	LockName string
	Logger   *zap.Logger
}

// Generate runs the command and returns the path of the produced lock.
func (g CommandGenerator) Generate(ctx context.Context, sourceDir, outDir string) (string, error) {
	argv := g.Command
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	lockName := g.LockName
	if lockName == "" {
		lockName = DefaultLockName
	}
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}

	args := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, SourcePlaceholder, sourceDir)
		args[i] = strings.ReplaceAll(a, OutPlaceholder, outDir)
	}
	log.Debug("regenerating lock", zap.Strings("argv", args))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", lockerr.Cancelled(cerr)
		}
		return "", fmt.Errorf("lock generator %q failed: %w\n%s", args[0], err, textutil.Indent(strings.TrimSpace(output.String()), "  "))
	}
	lock := filepath.Join(outDir, lockName)
	if _, err := os.Stat(lock); err != nil {
		return "", &lockerr.IOError{Op: "stat regenerated lock", Path: lock, Err: err}
	}
	return lock, nil
}

// VerifyRegenerated regenerates the lock for sourceDir into a scratch
// directory, compares it with committedPath and removes the scratch
// directory again.
func VerifyRegenerated(ctx context.Context, gen Generator, sourceDir, committedPath string, opt diff.Options) (Outcome, error) {
	tmp, err := os.MkdirTemp("", "verify-lock-")
	if err != nil {
		return Outcome{}, &lockerr.IOError{Op: "create scratch dir", Path: os.TempDir(), Err: err}
	}
	defer os.RemoveAll(tmp)

	lock, err := gen.Generate(ctx, sourceDir, tmp)
	if err != nil {
		return Outcome{}, err
	}
	return CompareFiles(committedPath, lock, opt)
}
