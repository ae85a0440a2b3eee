// Package sink defines the time-series sink contract the daemon's polling
// worker writes samples to, plus a concrete CSV implementation.
package sink

// Sink accepts one sample at a time: a rounded Unix timestamp and the
// channel values read at that beat, in the same order as the configured
// channel list. Implementations must not block the caller indefinitely;
// a failing Append is logged by the caller and never treated as fatal.
type Sink interface {
	Append(timestamp int64, values []uint32) error
	Close() error
}
