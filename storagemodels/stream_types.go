package storagemodels

import (
	"time"
)

// Snapshot is one delivery of a live watch: the full current result set (not a
// diff), or an error. A document watch delivers zero or one record.
type Snapshot struct {
	Records  []Record  // Full current result set
	Err      error     // Delivery error; the watch keeps running
	Sequence int64     // Delivery number, starting at 1
	ReadTime time.Time // When the backend produced the snapshot
}

// WatchOptions configures watch behavior
type WatchOptions struct {
	BufferSize   int           // Channel buffer size (default: 1)
	PollInterval time.Duration // Re-query interval for backends without push (default: 2s)
	MaxRetries   int           // Retry attempts for transient errors per poll (default: 3)
	RetryBackoff time.Duration // Backoff between retries and reconnects (default: 500ms)
}

// WatchOption is a functional option for configuring watches
type WatchOption func(*WatchOptions)

// DefaultWatchOptions returns default watch options
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		BufferSize:   1,
		PollInterval: 2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// ApplyWatchOptions folds opts over the defaults.
func ApplyWatchOptions(opts ...WatchOption) WatchOptions {
	options := DefaultWatchOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) WatchOption {
	return func(opts *WatchOptions) {
		opts.BufferSize = size
	}
}

// WithPollInterval sets the polling interval used by backends without push
func WithPollInterval(interval time.Duration) WatchOption {
	return func(opts *WatchOptions) {
		opts.PollInterval = interval
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) WatchOption {
	return func(opts *WatchOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) WatchOption {
	return func(opts *WatchOptions) {
		opts.RetryBackoff = backoff
	}
}
