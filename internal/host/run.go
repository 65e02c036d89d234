package host

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pluginwire/internal/config"
	"github.com/danmuck/pluginwire/internal/protocol"
)

// Result is the outcome of Run.
type Result struct {
	Response protocol.Response
	Written  []string
}

// Run builds the Request from cfg, invokes the plugin and writes the returned
// files under cfg.OutputPath. When the plugin reports errors nothing is
// written and the *protocol.ResponseError is returned alongside the Response.
func Run(ctx context.Context, cfg config.HostConfig) (Result, error) {
	req, err := BuildRequest(cfg)
	if err != nil {
		return Result{}, err
	}
	resp, err := NewInvoker(cfg).Invoke(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := resp.Err(); err != nil {
		return Result{Response: resp}, err
	}
	written, err := WriteFiles(cfg.OutputPath, resp.Files)
	if err != nil {
		return Result{Response: resp, Written: written}, err
	}
	log.Info().Str("plugin", cfg.Plugin).Int("files", len(written)).Str("root", cfg.OutputPath).Msg("generated")
	return Result{Response: resp, Written: written}, nil
}
