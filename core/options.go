package core

import "go.uber.org/zap"

// Bounds on MaxLogSize, per the wire format this engine commits to.
const (
	MinLogSize     int64 = 1024
	MaxLogSize     int64 = 16384
	DefaultLogSize int64 = 4096
)

// Config holds the resolved configuration for an Engine. It is built up by
// applying a caller's Option values on top of defaults and is not meant to
// be constructed directly.
type Config struct {
	// MaxLogSize bounds how large a segment file may grow before it is
	// sealed and a new active segment is opened. Must be in
	// [MinLogSize, MaxLogSize].
	MaxLogSize int64

	// Logger receives structured, leveled events for every suspension
	// point (open, rollover, replay, merge, close). Defaults to a
	// production zap logger if unset.
	Logger *zap.SugaredLogger
}

// Option mutates a Config during Open. Options are applied in the order
// given, after defaults have been populated.
type Option func(*Config)

func defaultConfig() Config {
	return Config{MaxLogSize: DefaultLogSize}
}

// WithMaxLogSize overrides the maximum size, in bytes, a segment may reach
// before rollover. Values outside [MinLogSize, MaxLogSize] are left for Open
// to reject; WithMaxLogSize itself never clamps silently, since a silently
// accepted out-of-range value would contradict the engine's validation
// contract.
func WithMaxLogSize(n int64) Option {
	return func(c *Config) { c.MaxLogSize = n }
}

// WithLogger overrides the engine's structured logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Config) {
		if log != nil {
			c.Logger = log
		}
	}
}
