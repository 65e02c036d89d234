package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pluginwire/internal/observability"
	"github.com/danmuck/pluginwire/internal/protocol"
)

const stderrTailBytes = 4096

var ErrResponseTooLarge = errors.New("host: response exceeds size limit")

// ExitError reports a plugin process that did not exit cleanly.
type ExitError struct {
	Plugin string
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("host: plugin %s exited with code %d", e.Plugin, e.Code)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Invoker runs one plugin executable per Invoke call.
type Invoker struct {
	Name             string
	Path             string
	Args             []string
	Env              []string
	Dir              string
	Timeout          time.Duration
	MaxResponseBytes int64
	// Stderr, if set, receives the plugin's stderr as it is produced.
	Stderr io.Writer
}

func (inv Invoker) label() string {
	if inv.Name != "" {
		return inv.Name
	}
	return filepath.Base(inv.Path)
}

// Invoke writes req to the plugin and decodes its Response. A Response whose
// Errors are non-empty is returned with a nil error; use Response.Err.
func (inv Invoker) Invoke(ctx context.Context, req *protocol.Request) (resp protocol.Response, err error) {
	name := inv.label()
	start := time.Now()
	defer func() {
		observability.RecordInvoke(name, time.Since(start), err)
	}()

	if strings.TrimSpace(inv.Path) == "" {
		return protocol.Response{}, fmt.Errorf("host: plugin path is required")
	}
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	payload := req.Marshal()
	observability.RecordCodec("Request", observability.OpEncode, len(payload), nil)

	stdout := &limitedBuffer{limit: inv.MaxResponseBytes}
	stderr := &tailBuffer{limit: stderrTailBytes}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if inv.Stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, inv.Stderr)
	}
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	cmd.WaitDelay = time.Second

	logger := log.With().Str("plugin", name).Logger()
	logger.Debug().Int("bytes", len(payload)).Str("path", inv.Path).Msg("invoking plugin")

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return protocol.Response{}, fmt.Errorf("host: invoke %s: %w", name, ctxErr)
	}
	if stdout.overflow {
		return protocol.Response{}, fmt.Errorf("%w: %s wrote more than %d bytes", ErrResponseTooLarge, name, inv.MaxResponseBytes)
	}
	if runErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			return protocol.Response{}, fmt.Errorf("host: start %s: %w", name, runErr)
		}
		logger.Warn().Int("code", code).Str("stderr", stderr.String()).Msg("plugin failed")
		return protocol.Response{}, &ExitError{Plugin: name, Code: code, Stderr: stderr.String(), Err: runErr}
	}

	raw := stdout.Bytes()
	resp, err = protocol.DecodeResponse(raw)
	observability.RecordCodec("Response", observability.OpDecode, len(raw), err)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("host: decode response from %s: %w", name, err)
	}
	observability.RecordUnknownFields("Response", resp.Unknown.Len())
	logger.Debug().
		Int("bytes", len(raw)).
		Int("files", len(resp.Files)).
		Int("errors", len(resp.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("plugin returned")
	return resp, nil
}

// limitedBuffer keeps at most limit bytes and records whether more arrived.
// A non-positive limit keeps everything. It has no ReadFrom so io.Copy goes
// through Write.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	room := b.limit - int64(b.buf.Len())
	if int64(len(p)) > room {
		b.overflow = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

// tailBuffer keeps the last limit bytes written.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
