// Package cli holds the flag wiring and exit-code contract shared by the
// verify-lock and gen-lock commands.
//
// Precedence, lowest first: built-in defaults, TOML config file,
// environment, explicitly set flags.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"verify-lock/internal/config"
	"verify-lock/internal/digest"
	"verify-lock/internal/lockcheck"
	"verify-lock/internal/logging"
	"verify-lock/internal/structdiff"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitDrift   = 1 // sources and lock disagree
	ExitFailure = 2 // I/O, parse, config or cancellation failure
)

// ExitCode maps the error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ile *lockcheck.InconsistentLockError
	var sme *structdiff.MismatchError
	if errors.As(err, &ile) || errors.As(err, &sme) {
		return ExitDrift
	}
	return ExitFailure
}

// Options receives raw flag values.
type Options struct {
	ConfigPath string
	SourceDir  string
	Manifest   string
	Exclude    []string
	Exts       []string
	Digest     string
	Recursive  bool
	LogLevel   string
}

// AddCommonFlags registers flags every command accepts.
func AddCommonFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.ConfigPath, "config", "", "TOML config file (default ./"+config.DefaultFile+" if present, or $"+config.EnvConfig+")")
	fs.StringVar(&o.SourceDir, "source-dir", ".", "directory holding the tracked definition files")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level: debug, info, warn, error, off")
}

// AddSelectionFlags registers the flags that choose and hash tracked files.
func AddSelectionFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringArrayVar(&o.Exclude, "exclude", nil, "file name exempt from checking (repeatable)")
	fs.StringSliceVar(&o.Exts, "ext", nil, "tracked file extension (repeatable or comma-separated; default .proto)")
	fs.StringVar(&o.Digest, "digest", string(digest.Default), "digest algorithm: sha256 or blake3")
	fs.BoolVar(&o.Recursive, "recursive", false, "also track files in subdirectories")
}

// Resolve merges defaults, config file, environment and the flags the user
// actually set, then validates the result.
func (o *Options) Resolve(fs *pflag.FlagSet, getenv func(string) string) (config.Config, error) {
	path, required := o.ConfigPath, fs.Changed("config")
	if !required {
		if env := getenv(config.EnvConfig); env != "" {
			path, required = env, true
		}
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyEnv(getenv)

	if fs.Changed("source-dir") {
		cfg.SourceDir = o.SourceDir
	}
	// gen-lock names the manifest flag --out.
	if fs.Changed("manifest") || fs.Changed("out") {
		cfg.Manifest = o.Manifest
	}
	if fs.Changed("exclude") {
		cfg.Exclude = append([]string(nil), o.Exclude...)
	}
	if fs.Changed("ext") {
		cfg.Extensions = append([]string(nil), o.Exts...)
	}
	if fs.Changed("digest") {
		cfg.Digest = o.Digest
	}
	if fs.Changed("recursive") {
		cfg.Recursive = o.Recursive
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Logger builds the runtime logger for cfg.
func Logger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.ProfileRuntime, cfg.LogLevel)
}

// CheckOptions translates a validated config into lockcheck options.
func CheckOptions(cfg config.Config, log *zap.Logger) lockcheck.Options {
	// Validate already rejected unknown algorithms.
	alg, _ := digest.Parse(cfg.Digest)
	return lockcheck.Options{
		SourceDir:    cfg.SourceDir,
		ManifestPath: cfg.ManifestPath(),
		Exclusions:   lockcheck.NewExclusions(cfg.Exclude...),
		Exts:         cfg.Extensions,
		Digest:       alg,
		Recursive:    cfg.Recursive,
		Logger:       log,
	}
}

// Getenv is the environment lookup used by the commands.
var Getenv = os.Getenv
