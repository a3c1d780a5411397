package reactchart

import "log/slog"

// DefaultMaxMicrosteps bounds the transitions executed for one dispatch.
const DefaultMaxMicrosteps = 1000

// Option configures a Chart via the functional options pattern.
type Option func(*Chart)

// WithName sets the chart name used in logs and metrics.
func WithName(name string) Option {
	return func(c *Chart) {
		c.name = name
	}
}

// WithLogger routes chart diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chart) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver installs o. Use MultiObserver to install several.
func WithObserver(o Observer) Option {
	return func(c *Chart) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithProperties makes the chart read and write p instead of a fresh store.
func WithProperties(p *PropertyStore) Option {
	return func(c *Chart) {
		if p != nil {
			c.props = p
		}
	}
}

// WithMaxMicrosteps overrides DefaultMaxMicrosteps. Zero or less disables the limit.
func WithMaxMicrosteps(n int) Option {
	return func(c *Chart) {
		c.maxMicrosteps = n
	}
}
