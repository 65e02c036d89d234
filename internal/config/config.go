package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/pluginwire/internal/logging"
	"github.com/danmuck/pluginwire/internal/protocol"
)

// HostConfig describes one plugin invocation driven by the host.
type HostConfig struct {
	Plugin          string
	Args            []string
	Env             []string
	OutputPath      string
	Timeout         time.Duration
	MaxMessageBytes int64
	Document        DocumentConfig
	Parameters      []protocol.Parameter
	CompilerVersion *protocol.Version
	MetricsTextfile string
	Log             logging.Config
}

// DocumentConfig names the source document carried in Request.wrapper.
type DocumentConfig struct {
	Name    string
	Version string
	Path    string
}

type fileConfig struct {
	Plugin          string          `toml:"plugin"`
	Args            []string        `toml:"args"`
	Env             []string        `toml:"env"`
	OutputPath      string          `toml:"output_path"`
	Timeout         string          `toml:"timeout"`
	MaxMessageBytes int64           `toml:"max_message_bytes"`
	Document        fileDocument    `toml:"document"`
	Parameters      []fileParameter `toml:"parameters"`
	CompilerVersion string          `toml:"compiler_version"`
	MetricsTextfile string          `toml:"metrics_textfile"`
	Log             fileLog         `toml:"log"`
}

type fileDocument struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Path    string `toml:"path"`
}

type fileParameter struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type fileLog struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// ValidationError reports one invalid config key.
type ValidationError struct {
	Key    string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func DefaultHostConfig() HostConfig {
	return HostConfig{
		OutputPath:      ".",
		Timeout:         30 * time.Second,
		MaxMessageBytes: 64 * 1024 * 1024,
		Log:             logging.DefaultConfig(logging.ProfileRuntime),
	}
}

// LoadHostConfig reads a TOML file over DefaultHostConfig. Relative document
// and plugin paths resolve against the config file's directory.
func LoadHostConfig(path string) (HostConfig, error) {
	cfg := DefaultHostConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return HostConfig{}, fmt.Errorf("load host config: %w", err)
	}
	dir := filepath.Dir(path)

	if meta.IsDefined("plugin") {
		cfg.Plugin = resolvePluginPath(dir, strings.TrimSpace(raw.Plugin))
	}
	if meta.IsDefined("args") {
		cfg.Args = raw.Args
	}
	if meta.IsDefined("env") {
		cfg.Env = raw.Env
	}
	if meta.IsDefined("output_path") {
		cfg.OutputPath = strings.TrimSpace(raw.OutputPath)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return HostConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("max_message_bytes") {
		cfg.MaxMessageBytes = raw.MaxMessageBytes
	}
	if meta.IsDefined("document", "name") {
		cfg.Document.Name = strings.TrimSpace(raw.Document.Name)
	}
	if meta.IsDefined("document", "version") {
		cfg.Document.Version = strings.TrimSpace(raw.Document.Version)
	}
	if meta.IsDefined("document", "path") {
		p := strings.TrimSpace(raw.Document.Path)
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		cfg.Document.Path = p
	}
	if meta.IsDefined("parameters") {
		cfg.Parameters = make([]protocol.Parameter, 0, len(raw.Parameters))
		for _, p := range raw.Parameters {
			cfg.Parameters = append(cfg.Parameters, protocol.Parameter{
				Name:  strings.TrimSpace(p.Name),
				Value: p.Value,
			})
		}
	}
	if meta.IsDefined("compiler_version") {
		v, err := ParseVersion(raw.CompilerVersion)
		if err != nil {
			return HostConfig{}, err
		}
		cfg.CompilerVersion = &v
	}
	if meta.IsDefined("metrics_textfile") {
		cfg.MetricsTextfile = strings.TrimSpace(raw.MetricsTextfile)
	}
	if err := applyLog(&cfg.Log, meta, raw.Log); err != nil {
		return HostConfig{}, err
	}

	if err := ValidateHostConfig(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

func applyLog(cfg *logging.Config, meta toml.MetaData, raw fileLog) error {
	if meta.IsDefined("log", "level") {
		lvl, ok := logging.ParseLevel(raw.Level)
		if !ok {
			return ValidationError{Key: "log.level", Reason: fmt.Sprintf("unknown level %q", raw.Level)}
		}
		cfg.Level = lvl
	}
	if meta.IsDefined("log", "file") {
		cfg.File = strings.TrimSpace(raw.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		cfg.MaxSizeMB = raw.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		cfg.MaxBackups = raw.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		cfg.MaxAgeDays = raw.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		cfg.Compress = raw.Compress
	}
	return nil
}

// resolvePluginPath anchors relative paths containing a separator to dir.
// Bare names are left for PATH lookup.
func resolvePluginPath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || !strings.ContainsAny(p, "/"+string(filepath.Separator)) {
		return p
	}
	return filepath.Join(dir, p)
}

func ValidateHostConfig(cfg HostConfig) error {
	if strings.TrimSpace(cfg.Plugin) == "" {
		return ValidationError{Key: "plugin", Reason: "plugin path is required"}
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return ValidationError{Key: "output_path", Reason: "output path is required"}
	}
	if cfg.Timeout < 0 {
		return ValidationError{Key: "timeout", Reason: "must not be negative"}
	}
	if cfg.MaxMessageBytes < 0 {
		return ValidationError{Key: "max_message_bytes", Reason: "must not be negative"}
	}
	for i, p := range cfg.Parameters {
		if p.Name == "" {
			return ValidationError{Key: fmt.Sprintf("parameters[%d].name", i), Reason: "name is required"}
		}
	}
	return nil
}

// ParseParameter parses "name=value". A bare name yields an empty value.
func ParseParameter(raw string) (protocol.Parameter, error) {
	name, value, _ := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return protocol.Parameter{}, fmt.Errorf("parameter %q: missing name", raw)
	}
	return protocol.Parameter{Name: name, Value: value}, nil
}

// ParseVersion parses "major[.minor[.patch]][-suffix]" with an optional
// leading "v".
func ParseVersion(raw string) (protocol.Version, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if s == "" {
		return protocol.Version{}, ValidationError{Key: "compiler_version", Reason: "empty version"}
	}
	core, suffix, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return protocol.Version{}, ValidationError{Key: "compiler_version", Reason: fmt.Sprintf("too many components in %q", raw)}
	}
	var nums [3]int32
	for i, part := range parts {
		n, err := strconv.ParseInt(part, 10, 32)
		if err != nil || n < 0 {
			return protocol.Version{}, ValidationError{Key: "compiler_version", Reason: fmt.Sprintf("invalid component %q in %q", part, raw)}
		}
		nums[i] = int32(n)
	}
	return protocol.Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Suffix: suffix}, nil
}

// FormatVersion is the inverse of ParseVersion for versions without a
// leading "v".
func FormatVersion(v protocol.Version) string {
	return v.String()
}
