package subclust

import (
	"log/slog"

	"github.com/hupe1980/subclust/codec"
	"github.com/hupe1980/subclust/sink"
)

type options struct {
	sink     sink.Sink
	codec    codec.Codec
	metrics  MetricsCollector
	logger   *Logger
	restorer Restorer
	header   []string
	manifest bool
}

// Option configures Subclust constructor behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. sink-specific constructor variants).
type Option func(*options)

// WithSink configures the destination sink written hierarchies land on.
//
// If nil is passed, a local filesystem sink rooted at the working directory
// is used.
func WithSink(s sink.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithCodec configures the codec used for encoding manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithRestorer configures a restoration function applied to every member
// value before it is written, undoing a normalization applied upstream.
// Pass nil to write values as they are.
func WithRestorer(r Restorer) Option {
	return func(o *options) {
		o.restorer = r
	}
}

// WithHeader configures the header block prepended to every output unit,
// the transcript included. Lines are written with the "### " comment marker,
// content unaltered. The slice is copied, so later mutation by the caller
// does not change what is written.
func WithHeader(lines ...string) Option {
	return func(o *options) {
		o.header = append([]string(nil), lines...)
	}
}

// WithManifest enables saving a run manifest after each successful Write.
// The manifest lists the written units and repoints the CURRENT pointer
// last, so readers never observe a partially described run.
//
// Example:
//
//	sc := subclust.New(
//	    subclust.WithSink(s),
//	    subclust.WithManifest(true),
//	)
func WithManifest(enabled bool) Option {
	return func(o *options) {
		o.manifest = enabled
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// If nil is passed, metrics collection is disabled.
//
// Example with BasicMetricsCollector:
//
//	metrics := &subclust.BasicMetricsCollector{}
//	sc := subclust.New(subclust.WithMetricsCollector(metrics))
//	// ... use sc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Extracts: %d, Avg latency: %dns\n", stats.ExtractCount, stats.ExtractAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithLogger configures structured logging for operations.
// If nil is passed, logging is disabled.
//
// Example with JSON logging:
//
//	logger := subclust.NewJSONLogger(slog.LevelInfo)
//	sc := subclust.New(subclust.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:   nil,
		metrics: NoopMetricsCollector{},
		logger:  NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
