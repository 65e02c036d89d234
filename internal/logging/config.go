package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "PLUGINWIRE_LOG_LEVEL"
	EnvLogTimestamp = "PLUGINWIRE_LOG_TIMESTAMP"
	EnvLogNoColor   = "PLUGINWIRE_LOG_NOCOLOR"
	EnvLogFile      = "PLUGINWIRE_LOG_FILE"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config selects level, console format and the optional rotating file sink.
// Console output always goes to stderr; stdout carries protocol bytes.
type Config struct {
	Level      zerolog.Level
	Timestamp  bool
	NoColor    bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the global logger for profile once per process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		Apply(DefaultConfig(profile))
	})
}

// Apply installs cfg, with environment overrides, as the global logger.
func Apply(cfg Config) {
	applyEnvOverrides(&cfg)
	zerolog.SetGlobalLevel(cfg.Level)
	log.Logger = New(cfg, os.Stderr)
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
		cfg.NoColor = true
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// New builds a logger writing human-readable lines to console and, when
// cfg.File is set, JSON lines to a rotating file.
func New(cfg Config, console io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	var out io.Writer = cw
	if strings.TrimSpace(cfg.File) != "" {
		out = zerolog.MultiLevelWriter(cw, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    max(cfg.MaxSizeMB, 1),
			MaxBackups: max(cfg.MaxBackups, 1),
			MaxAge:     max(cfg.MaxAgeDays, 1),
			Compress:   cfg.Compress,
		})
	}

	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.File = v
	}
}

// ParseLevel maps a level name to a zerolog level. The boolean is false for
// empty or unrecognized input.
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
