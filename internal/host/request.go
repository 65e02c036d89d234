package host

import (
	"fmt"
	"os"
	"slices"

	"github.com/danmuck/pluginwire/internal/config"
	"github.com/danmuck/pluginwire/internal/protocol"
)

// BuildRequest assembles the Request described by cfg. The wrapper is present
// only when a document name or path is configured; the document file, if any,
// becomes the opaque wrapper value.
func BuildRequest(cfg config.HostConfig) (*protocol.Request, error) {
	req := protocol.NewRequest()
	req.SetOutputPath(cfg.OutputPath)
	req.SetParameters(cfg.Parameters)
	if cfg.CompilerVersion != nil {
		req.SetCompilerVersion(*cfg.CompilerVersion)
	}

	doc := cfg.Document
	if doc.Name == "" && doc.Path == "" {
		return req, nil
	}
	w := protocol.Wrapper{Name: doc.Name, Version: doc.Version}
	if doc.Path != "" {
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("host: read document: %w", err)
		}
		w.Value = data
	}
	req.SetWrapper(w)
	return req, nil
}

// NewInvoker returns the Invoker described by cfg.
func NewInvoker(cfg config.HostConfig) Invoker {
	return Invoker{
		Path:             cfg.Plugin,
		Args:             slices.Clone(cfg.Args),
		Env:              slices.Clone(cfg.Env),
		Timeout:          cfg.Timeout,
		MaxResponseBytes: cfg.MaxMessageBytes,
	}
}
