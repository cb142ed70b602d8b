package entigo

import (
	"log/slog"

	"github.com/hupe1980/entigo/cleanse"
)

type options struct {
	cleanser         *cleanse.Cleanser
	strict           bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures pipeline behavior.
type Option func(*options)

// WithCleanser configures the cleansing step applied to records before
// matching. Pass nil to run matchers against raw field values.
//
// Example:
//
//	c := cleanse.NewCleanser(s)
//	p, _ := entigo.New(s, matchers, entigo.WithCleanser(c))
func WithCleanser(c *cleanse.Cleanser) Option {
	return func(o *options) {
		o.cleanser = c
	}
}

// WithStrict configures cancellation behavior. In strict mode a cancelled
// run returns the context error; otherwise the pairs produced so far are
// merged into a partial partition.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &entigo.BasicMetricsCollector{}
//	p, _ := entigo.New(s, matchers, entigo.WithMetricsCollector(metrics))
//	// ... run the pipeline ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Avg latency: %dns\n", stats.RunCount, stats.RunAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := entigo.NewJSONLogger(slog.LevelInfo)
//	p, _ := entigo.New(s, matchers, entigo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
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
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
