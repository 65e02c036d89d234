package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pluginwire/internal/config"
	"github.com/danmuck/pluginwire/internal/host"
	"github.com/danmuck/pluginwire/internal/logging"
	"github.com/danmuck/pluginwire/internal/observability"
	"github.com/danmuck/pluginwire/internal/protocol"
)

// paramFlags collects repeated -param name=value flags in order.
type paramFlags []protocol.Parameter

func (p *paramFlags) String() string {
	parts := make([]string, len(*p))
	for i, param := range *p {
		parts[i] = param.Name + "=" + param.Value
	}
	return strings.Join(parts, ",")
}

func (p *paramFlags) Set(raw string) error {
	param, err := config.ParseParameter(raw)
	if err != nil {
		return err
	}
	*p = append(*p, param)
	return nil
}

type cliFlags struct {
	configPath string
	plugin     string
	out        string
	timeout    time.Duration
	version    string
	metrics    string
	params     paramFlags
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("pluginctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "host config path (TOML)")
	fs.StringVar(&f.plugin, "plugin", "", "plugin executable (overrides config)")
	fs.StringVar(&f.out, "out", "", "output directory (overrides config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "plugin timeout (overrides config)")
	fs.StringVar(&f.version, "compiler-version", "", "compiler version sent to the plugin")
	fs.StringVar(&f.metrics, "metrics", "", "write metrics textfile to this path")
	fs.Var(&f.params, "param", "plugin parameter name=value (repeatable, appended after config parameters)")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if fs.NArg() > 0 {
		return cliFlags{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return f, nil
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(f cliFlags) (config.HostConfig, error) {
	cfg := config.DefaultHostConfig()
	if f.configPath != "" {
		loaded, err := config.LoadHostConfig(f.configPath)
		if err != nil {
			return config.HostConfig{}, err
		}
		cfg = loaded
	}
	if f.plugin != "" {
		cfg.Plugin = f.plugin
	}
	if f.out != "" {
		cfg.OutputPath = f.out
	}
	if f.timeout != 0 {
		cfg.Timeout = f.timeout
	}
	if f.version != "" {
		v, err := config.ParseVersion(f.version)
		if err != nil {
			return config.HostConfig{}, err
		}
		cfg.CompilerVersion = &v
	}
	if f.metrics != "" {
		cfg.MetricsTextfile = f.metrics
	}
	cfg.Parameters = append(cfg.Parameters, f.params...)
	if err := config.ValidateHostConfig(cfg); err != nil {
		return config.HostConfig{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "pluginctl: %v\n", err)
		return 2
	}
	cfg, err := resolveConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "pluginctl: %v\n", err)
		return 2
	}
	logging.Apply(cfg.Log)
	if cfg.CompilerVersion != nil {
		log.Debug().Str("compiler_version", config.FormatVersion(*cfg.CompilerVersion)).Msg("compiler version")
	}

	res, err := host.Run(ctx, cfg)
	if cfg.MetricsTextfile != "" {
		if werr := observability.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("metrics textfile write failed")
		}
	}
	var rerr *protocol.ResponseError
	switch {
	case errors.As(err, &rerr):
		for _, msg := range rerr.Errors {
			fmt.Fprintf(stderr, "%s: %s\n", cfg.Plugin, msg)
		}
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "pluginctl: %v\n", err)
		return 1
	}
	for _, path := range res.Written {
		fmt.Fprintln(stdout, path)
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
