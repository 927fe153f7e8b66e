package logging

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "PKGCTL_LOG_LEVEL"
	EnvLogTimestamp = "PKGCTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "PKGCTL_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup. Out defaults to stderr.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Out       io.Writer
}

var configureOnce sync.Once

func ConfigureTests() {
	configureOnce.Do(func() {
		apply(DefaultConfig(ProfileTest))
	})
}

// Configure installs cfg as the process logger. Only the first call wins.
func Configure(cfg Config) {
	configureOnce.Do(func() {
		apply(cfg)
	})
}

func apply(cfg Config) {
	out := cfg.Out
	if out == nil {
		out = colorable.NewColorableStderr()
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	ctx := zerolog.New(writer).Level(cfg.Level).With().Str("app", "pkgctl")
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	log.Logger = ctx.Logger()
}

func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false}
	default:
		return Config{Level: zerolog.WarnLevel, Timestamp: true}
	}
}

// ApplyEnv overrides cfg from environment values fetched through lookup.
func ApplyEnv(cfg *Config, lookup func(string) string) {
	if lookup == nil {
		return
	}
	if lvl, ok := ParseLevel(lookup(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(lookup(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(lookup(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a user-facing level name onto zerolog. ok is false for
// empty or unknown input.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
