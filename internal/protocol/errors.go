package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/pluginwire/internal/protocol/wire"
)

// Decode failures. All of them abort the decode; no partial message is returned.
var (
	ErrMalformedVarint     = wire.ErrMalformedVarint
	ErrTruncatedInput      = wire.ErrTruncatedInput
	ErrUnsupportedWireType = wire.ErrUnsupportedWireType
	ErrInvalidFieldNumber  = wire.ErrInvalidFieldNumber
	ErrInvalidUTF8         = wire.ErrInvalidUTF8
)

// ResponseError carries the application-level errors a plugin reported in
// its Response. It is data, not a codec failure.
type ResponseError struct {
	Errors []string
}

func (e *ResponseError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "protocol: plugin reported no errors"
	case 1:
		return fmt.Sprintf("protocol: plugin error: %s", e.Errors[0])
	default:
		return fmt.Sprintf("protocol: %d plugin errors: %s", len(e.Errors), strings.Join(e.Errors, "; "))
	}
}
