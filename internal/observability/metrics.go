package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/pluginwire/internal/protocol/wire"
)

const (
	OpEncode = "encode"
	OpDecode = "decode"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	codecMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pluginwire",
			Subsystem: "codec",
			Name:      "messages_total",
			Help:      "Messages encoded or decoded, by outcome.",
		},
		[]string{"message", "op", "result"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pluginwire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Encoded bytes produced or consumed.",
		},
		[]string{"message", "op"},
	)
	codecUnknownBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pluginwire",
			Subsystem: "codec",
			Name:      "unknown_bytes_total",
			Help:      "Bytes of unrecognized fields carried through decode.",
		},
		[]string{"message"},
	)
	invokeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pluginwire",
			Subsystem: "plugin",
			Name:      "invoke_duration_seconds",
			Help:      "Plugin invocation wall time in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"plugin", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(codecMessages, codecBytes, codecUnknownBytes, invokeDuration)
	})
}

// Gatherer exposes the package registry.
func Gatherer() prometheus.Gatherer {
	RegisterMetrics()
	return registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, registry)
}

func RecordCodec(message, op string, size int, err error) {
	RegisterMetrics()
	codecMessages.WithLabelValues(message, op, ResultLabel(err)).Inc()
	if err == nil {
		codecBytes.WithLabelValues(message, op).Add(float64(size))
	}
}

func RecordUnknownFields(message string, size int) {
	if size <= 0 {
		return
	}
	RegisterMetrics()
	codecUnknownBytes.WithLabelValues(message).Add(float64(size))
}

func RecordInvoke(plugin string, duration time.Duration, err error) {
	RegisterMetrics()
	invokeDuration.WithLabelValues(plugin, ResultLabel(err)).Observe(duration.Seconds())
}

// ResultLabel classifies err into a low-cardinality label value.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, wire.ErrMalformedVarint):
		return "malformed_varint"
	case errors.Is(err, wire.ErrTruncatedInput):
		return "truncated_input"
	case errors.Is(err, wire.ErrUnsupportedWireType):
		return "unsupported_wire_type"
	case errors.Is(err, wire.ErrInvalidFieldNumber):
		return "invalid_field_number"
	case errors.Is(err, wire.ErrInvalidUTF8):
		return "invalid_utf8"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
