package eventbus

import "log/slog"

// Option configures a Bus.
type Option func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives dispatch failures and, when traceDelivery is set, every delivery.
	logger *slog.Logger

	// drainLimit caps the events processed by one DrainAll call. Zero means unlimited.
	drainLimit int

	// traceDelivery logs each delivery at debug level.
	traceDelivery bool

	// queueCapacity is the initial queue capacity.
	queueCapacity int
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:        nil, // resolved in New
		drainLimit:    0,
		traceDelivery: false,
		queueCapacity: 64,
	}
}

// WithLogger sets the logger used by the bus.
func WithLogger(logger *slog.Logger) Option {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// WithDrainLimit caps the number of events a single DrainAll may process.
// Handlers that keep publishing priority events can otherwise drain forever.
func WithDrainLimit(limit int) Option {
	return func(c *busConfig) {
		if limit >= 0 {
			c.drainLimit = limit
		}
	}
}

// WithTraceDelivery enables debug logging of every delivery.
func WithTraceDelivery(enabled bool) Option {
	return func(c *busConfig) {
		c.traceDelivery = enabled
	}
}

// WithQueueCapacity sets the initial queue capacity.
func WithQueueCapacity(capacity int) Option {
	return func(c *busConfig) {
		if capacity > 0 {
			c.queueCapacity = capacity
		}
	}
}
