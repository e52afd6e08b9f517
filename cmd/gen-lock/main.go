// Command gen-lock writes a fresh lock manifest for the tracked protocol
// definition files of a directory. Maintainers run it after reviewing a
// compatible change; verify-lock only ever reads its output.
//
// Usage:
//
//	gen-lock --source-dir proto [--out proto/proto.sum] [--exclude name]...
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verify-lock/internal/cli"
	"verify-lock/internal/lockcheck"
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
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "gen-lock: %v\n", err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	var o cli.Options
	root := &cobra.Command{
		Use:   "gen-lock",
		Short: "Write the lock manifest for the current protocol definition files",
		Long: `Hashes every tracked, non-excluded source file and writes one
"<digest>  <name>" line per file, sorted by name. The manifest is replaced
atomically. Commit the result after reviewing the changed definitions.`,
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

			opts := cli.CheckOptions(cfg, log)
			m, err := lockcheck.BuildManifest(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := m.WriteFile(opts.ManifestPath); err != nil {
				return err
			}
			log.Info("manifest written", zap.String("path", opts.ManifestPath), zap.Int("entries", m.Len()))
			fmt.Fprintf(stdout, "wrote %d entries to %s\n", m.Len(), opts.ManifestPath)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	cli.AddCommonFlags(f, &o)
	f.StringVar(&o.Manifest, "out", "", "manifest to write (default <source-dir>/proto.sum)")
	cli.AddSelectionFlags(f, &o)
	return root
}
