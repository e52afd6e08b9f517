// Package logging builds the zap logger shared by the verify-lock commands.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Profile selects where and how much a logger writes.
type Profile int

const (
	// ProfileRuntime logs to stderr at the requested level.
	ProfileRuntime Profile = iota
	// ProfileTest discards everything unless EnvTestLevel is set.
	ProfileTest
)

// EnvTestLevel enables logging in the test profile.
const EnvTestLevel = "VERIFY_LOCK_TEST_LOG_LEVEL"

// ParseLevel maps a level name to a zap level. "off" (and aliases) returns
// a level above Fatal so nothing is written.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "off", "none", "disabled":
		return zapcore.FatalLevel + 1, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

// New returns a logger for profile at level.
func New(profile Profile, level string) (*zap.Logger, error) {
	if profile == ProfileTest {
		level = os.Getenv(EnvTestLevel)
		if level == "" {
			return zap.NewNop(), nil
		}
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = profile == ProfileRuntime
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}
