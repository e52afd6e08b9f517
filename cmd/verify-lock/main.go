// Command verify-lock checks that the tracked protocol definition files of a
// directory still match their committed lock manifest. It is meant to run as
// a CI test step.
//
// Usage:
//
//	verify-lock --source-dir proto --manifest proto/proto.sum [--exclude name]...
//	verify-lock semantic --committed proto/proto.lock --regen
//
// Exit status is 0 when sources and lock agree, 1 when they drifted (the
// report is written to stderr) and 2 on any I/O, parse, config or
// cancellation failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"verify-lock/internal/cli"
	"verify-lock/internal/diff"
	"verify-lock/internal/lockcheck"
	"verify-lock/internal/structdiff"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, cli.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	root := newRootCmd(stdout, stderr, getenv)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	code := cli.ExitCode(err)
	// Drift was already reported in full.
	if err != nil && code != cli.ExitDrift {
		fmt.Fprintf(stderr, "verify-lock: %v\n", err)
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	var o cli.Options
	root := &cobra.Command{
		Use:   "verify-lock",
		Short: "Verify that protocol definition files match the committed lock manifest",
		Long: `Hashes every tracked source file and compares it with the committed lock
manifest. Reports files that changed, files without a manifest entry and
entries whose file is gone. Exit 0 if everything matches, 1 on drift,
2 on failure.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.Resolve(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			log, err := cli.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := lockcheck.Verify(cmd.Context(), cli.CheckOptions(cfg, log))
			if err != nil {
				return err
			}
			if res.Consistent() {
				fmt.Fprint(stdout, lockcheck.Report(res))
				return nil
			}
			fmt.Fprint(stderr, lockcheck.Report(res))
			return res.Err()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	cli.AddCommonFlags(root.PersistentFlags(), &o)
	root.Flags().StringVar(&o.Manifest, "manifest", "", "lock manifest path (default <source-dir>/proto.sum)")
	cli.AddSelectionFlags(root.Flags(), &o)

	root.AddCommand(newSemanticCmd(&o, stdout, stderr, getenv))
	return root
}

type semanticFlags struct {
	committed    string
	regenerated  string
	regen        bool
	regenCmd     string
	lockName     string
	diffContext  int
	maxDiffBytes int
}

func newSemanticCmd(o *cli.Options, stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	var sf semanticFlags
	cmd := &cobra.Command{
		Use:   "semantic",
		Short: "Compare the committed structured lock with a regenerated one",
		Long: `Decodes the committed JSON lock and a regenerated one and compares them
ignoring object key and array order. Either pass an already regenerated lock
with --regenerated, or let --regen run the lock tool into a scratch
directory. A unified diff of the two files is printed on mismatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (sf.regenerated != "") == sf.regen {
				return errors.New("exactly one of --regenerated or --regen is required")
			}
			cfg, err := o.Resolve(cmd.Flags(), getenv)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("committed") {
				cfg.Semantic.Committed = sf.committed
			}
			if fs.Changed("regen-cmd") {
				cfg.Semantic.RegenCmd = strings.Fields(sf.regenCmd)
			}
			if fs.Changed("lock-name") {
				cfg.Semantic.LockName = sf.lockName
			}
			if fs.Changed("diff-context") {
				cfg.Semantic.DiffContext = sf.diffContext
			}
			if fs.Changed("max-diff-bytes") {
				cfg.Semantic.MaxDiffBytes = sf.maxDiffBytes
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := cli.Logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			lockName := cfg.Semantic.LockName
			if lockName == "" {
				lockName = structdiff.DefaultLockName
			}
			committed := cfg.CommittedLockPath(lockName)
			dopt := diff.Options{MaxBytes: cfg.Semantic.MaxDiffBytes, Context: cfg.Semantic.DiffContext}

			var out structdiff.Outcome
			if sf.regenerated != "" {
				out, err = structdiff.CompareFiles(committed, sf.regenerated, dopt)
			} else {
				gen := structdiff.CommandGenerator{Command: cfg.Semantic.RegenCmd, LockName: lockName, Logger: log}
				out, err = structdiff.VerifyRegenerated(cmd.Context(), gen, cfg.SourceDir, committed, dopt)
			}
			if err != nil {
				return err
			}
			if out.Equal() {
				fmt.Fprint(stdout, structdiff.Report(out))
				return nil
			}
			fmt.Fprint(stderr, structdiff.Report(out))
			return out.Err()
		},
	}
	f := cmd.Flags()
	f.StringVar(&sf.committed, "committed", "", "committed lock (default <source-dir>/<lock-name>)")
	f.StringVar(&sf.regenerated, "regenerated", "", "already regenerated lock to compare against")
	f.BoolVar(&sf.regen, "regen", false, "run the lock tool into a scratch directory")
	f.StringVar(&sf.regenCmd, "regen-cmd", "", "lock tool command line; {src} and {out} are substituted (default \""+strings.Join(structdiff.DefaultCommand, " ")+"\")")
	f.StringVar(&sf.lockName, "lock-name", "", "file name the lock tool writes (default "+structdiff.DefaultLockName+")")
	f.IntVar(&sf.diffContext, "diff-context", diff.DefaultContext, "context lines in the unified diff")
	f.IntVar(&sf.maxDiffBytes, "max-diff-bytes", 2_000_000, "skip the unified diff above this combined size (0 = no limit)")
	return cmd
}
