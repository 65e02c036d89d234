package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pluginwire/internal/logging"
	"github.com/danmuck/pluginwire/internal/observability"
	"github.com/danmuck/pluginwire/internal/protocol"
)

// EnvMetricsTextfile names a file the plugin writes its metrics to on exit.
const EnvMetricsTextfile = "PLUGINWIRE_METRICS_TEXTFILE"

var ErrRequestTooLarge = errors.New("plugin: request exceeds size limit")

// Handler produces a Response for one Request. A returned error is reported
// to the host through Response.Errors.
type Handler interface {
	Generate(ctx context.Context, req *protocol.Request) (protocol.Response, error)
}

type HandlerFunc func(ctx context.Context, req *protocol.Request) (protocol.Response, error)

func (f HandlerFunc) Generate(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	return f(ctx, req)
}

// Limits caps how much input a plugin buffers.
type Limits struct {
	MaxRequestBytes int64
}

func DefaultLimits() Limits {
	return Limits{MaxRequestBytes: 64 * 1024 * 1024}
}

type options struct {
	name   string
	limits Limits
}

type Option func(*options)

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLimits(limits Limits) Option {
	return func(o *options) { o.limits = limits }
}

// Serve handles exactly one Request read from in and writes the Response to out.
func Serve(ctx context.Context, in io.Reader, out io.Writer, h Handler, opts ...Option) error {
	o := options{name: "plugin", limits: DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.With().Str("plugin", o.name).Logger()

	raw, err := readLimited(in, o.limits.MaxRequestBytes)
	if err != nil {
		return fmt.Errorf("plugin: read request: %w", err)
	}
	req, err := protocol.DecodeRequest(raw)
	observability.RecordCodec("Request", observability.OpDecode, len(raw), err)
	if err != nil {
		logger.Error().Err(err).Int("bytes", len(raw)).Msg("request decode failed")
		return fmt.Errorf("plugin: decode request: %w", err)
	}
	observability.RecordUnknownFields("Request", req.Unknown().Len())
	logger.Debug().
		Int("bytes", len(raw)).
		Int("parameters", len(req.Parameters())).
		Bool("wrapper", req.HasWrapper()).
		Str("output_path", req.OutputPath()).
		Msg("request decoded")

	resp, err := generate(ctx, h, req)
	if err != nil {
		logger.Warn().Err(err).Msg("generator reported error")
		resp.AddError("%v", err)
	}

	payload := resp.Marshal()
	observability.RecordCodec("Response", observability.OpEncode, len(payload), nil)
	if _, err := out.Write(payload); err != nil {
		return fmt.Errorf("plugin: write response: %w", err)
	}
	logger.Debug().
		Int("bytes", len(payload)).
		Int("files", len(resp.Files)).
		Int("errors", len(resp.Errors)).
		Msg("response written")
	return nil
}

// generate runs h, turning a panic into a reported error.
func generate(ctx context.Context, h Handler, req *protocol.Request) (resp protocol.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = protocol.Response{}
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()
	return h.Generate(ctx, req)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrRequestTooLarge
	}
	return data, nil
}

// Main runs h against stdin and stdout and exits non-zero on hard failures.
func Main(name string, h Handler, opts ...Option) {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Serve(ctx, os.Stdin, os.Stdout, h, append([]Option{WithName(name)}, opts...)...)
	stop()

	if path := os.Getenv(EnvMetricsTextfile); path != "" {
		if werr := observability.WriteTextfile(path); werr != nil {
			log.Warn().Err(werr).Str("path", path).Msg("metrics textfile write failed")
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
