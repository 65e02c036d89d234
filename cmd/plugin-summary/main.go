// Command plugin-summary is a minimal plugin that describes the Request it
// receives in summary.txt. Passing fail=<message> makes it report an error.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/pluginwire/internal/plugin"
	"github.com/danmuck/pluginwire/internal/protocol"
)

const summaryFile = "summary.txt"

func generate(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	var resp protocol.Response
	if msg, ok := req.LookupParameter("fail"); ok {
		if msg == "" {
			msg = "failure requested"
		}
		return resp, errors.New(msg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "output_path: %s\n", req.OutputPath())
	if req.HasCompilerVersion() {
		fmt.Fprintf(&b, "compiler_version: %s\n", req.CompilerVersion())
	}
	if req.HasWrapper() {
		w := req.Wrapper()
		fmt.Fprintf(&b, "document: %s %s (%d bytes)\n", w.Name, w.Version, len(w.Value))
	}
	for _, p := range req.Parameters() {
		fmt.Fprintf(&b, "param %s=%s\n", p.Name, p.Value)
	}
	if n := req.Unknown().Len(); n > 0 {
		fmt.Fprintf(&b, "unknown_bytes: %d\n", n)
	}
	resp.AddFile(summaryFile, []byte(b.String()))
	return resp, nil
}

func main() {
	plugin.Main("plugin-summary", plugin.HandlerFunc(generate))
}
