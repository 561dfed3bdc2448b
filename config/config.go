// Package config carries the small, fixed configuration surface a
// tecarun invocation needs: the map-reduce knobs spec.md §6 fixes by
// name (first_step, last_step, thread_pool_size), plus a reader glob
// and the writer filename pattern the ambient CLI wires. Grounded on the
// teacher's config/builder.go functional-builder idiom (a Builder with
// a fluent With* surface and deferred validation), generalized from
// consensus parameters to pipeline knobs. A full Viper-style layered
// config (env/file/flag precedence) is deliberately not wired here —
// see DESIGN.md: that dependency lives in open-platform-model-cli, not
// the teacher, and five knobs do not justify importing it.
package config

import "fmt"

// Config is the resolved configuration for one tecarun invocation.
type Config struct {
	ReaderGlob     string
	WriterPattern  string
	FirstStep      int64
	LastStep       int64
	ThreadPoolSize int32
	MetricsAddr    string
	LogLevel       string
}

// Default returns a Config with the same defaults the kernel components
// use on their own (FirstStep 0, LastStep -1 meaning "through the end",
// ThreadPoolSize 1).
func Default() Config {
	return Config{
		ReaderGlob:     "*.bin",
		WriterPattern:  "out.%e%.bin",
		FirstStep:      0,
		LastStep:       -1,
		ThreadPoolSize: 1,
		LogLevel:       "info",
	}
}

// Option mutates a Config under construction. Build applies each Option
// in turn and returns the first validation error encountered, mirroring
// the teacher's Builder.err deferred-error idiom without requiring a
// separate Builder type for seven fields.
type Option func(*Config) error

// Build applies opts in order over Default().
func Build(opts ...Option) (Config, error) {
	c := Default()
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// WithReaderGlob sets Config.ReaderGlob. No reader stage and no
// tecarun command in this module reads that field.
func WithReaderGlob(glob string) Option {
	return func(c *Config) error {
		if glob == "" {
			return fmt.Errorf("config: reader glob must not be empty")
		}
		c.ReaderGlob = glob
		return nil
	}
}

// WithWriterPattern sets the writer stage's filename pattern. The only
// recognized template token is %e%, substituted with the rank number.
func WithWriterPattern(pattern string) Option {
	return func(c *Config) error {
		if pattern == "" {
			return fmt.Errorf("config: writer pattern must not be empty")
		}
		c.WriterPattern = pattern
		return nil
	}
}

// WithStepRange sets the map-reduce stage's inclusive [first, last]
// step range. last == -1 means "through the last reported step".
func WithStepRange(first, last int64) Option {
	return func(c *Config) error {
		if first < 0 {
			return fmt.Errorf("config: first_step must be >= 0, got %d", first)
		}
		if last != -1 && last < first {
			return fmt.Errorf("config: last_step %d precedes first_step %d", last, first)
		}
		c.FirstStep = first
		c.LastStep = last
		return nil
	}
}

// WithThreadPoolSize sets the map-reduce stage's intra-rank worker
// count. -1 means "match hardware concurrency" (spec.md §6).
func WithThreadPoolSize(n int32) Option {
	return func(c *Config) error {
		if n == 0 {
			return fmt.Errorf("config: thread_pool_size must be -1 or >= 1, got 0")
		}
		c.ThreadPoolSize = n
		return nil
	}
}

// WithMetricsAddr sets the address tecarun serves a Prometheus
// /metrics endpoint on. Empty disables the endpoint.
func WithMetricsAddr(addr string) Option {
	return func(c *Config) error {
		c.MetricsAddr = addr
		return nil
	}
}

// WithLogLevel sets the console logger's minimum level ("debug",
// "info", "warn", "error").
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		switch level {
		case "debug", "info", "warn", "error":
			c.LogLevel = level
			return nil
		default:
			return fmt.Errorf("config: unknown log level %q", level)
		}
	}
}
