package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/pluginwire/internal/protocol/wire"
	"github.com/danmuck/pluginwire/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(codecMessages.WithLabelValues("Request", OpDecode, "ok"))
	RecordCodec("Request", OpDecode, 42, nil)
	RecordCodec("Request", OpDecode, 3, fmt.Errorf("plugin: decode request: %w", wire.ErrTruncatedInput))
	RecordUnknownFields("Request", 5)
	RecordUnknownFields("Request", 0)
	RecordInvoke("plugin-summary", 15*time.Millisecond, nil)

	if got := testutil.ToFloat64(codecMessages.WithLabelValues("Request", OpDecode, "ok")); got != before+1 {
		t.Fatalf("unexpected ok counter: %v", got)
	}
	if got := testutil.ToFloat64(codecMessages.WithLabelValues("Request", OpDecode, "truncated_input")); got < 1 {
		t.Fatalf("expected truncated_input counter, got %v", got)
	}
	if got := testutil.ToFloat64(codecUnknownBytes.WithLabelValues("Request")); got < 5 {
		t.Fatalf("expected unknown bytes recorded, got %v", got)
	}
}

func TestResultLabel(t *testing.T) {
	cases := map[string]error{
		"ok":                    nil,
		"malformed_varint":      wire.ErrMalformedVarint,
		"unsupported_wire_type": &wire.DecodeError{Message: "Request", Err: wire.ErrUnsupportedWireType},
		"invalid_field_number":  wire.ErrInvalidFieldNumber,
		"invalid_utf8":          wire.ErrInvalidUTF8,
		"timeout":               fmt.Errorf("host: invoke p: %w", context.DeadlineExceeded),
		"canceled":              context.Canceled,
		"error":                 errors.New("boom"),
	}
	for want, err := range cases {
		if got := ResultLabel(err); got != want {
			t.Fatalf("ResultLabel(%v) = %q want %q", err, got, want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordCodec("Response", OpEncode, 15, nil)
	path := filepath.Join(t.TempDir(), "pluginwire.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `pluginwire_codec_messages_total{message="Response",op="encode",result="ok"}`) {
		t.Fatalf("expected codec counter in textfile:\n%s", data)
	}
}
