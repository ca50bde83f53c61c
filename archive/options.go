package archive

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/vqz/resource"
)

const (
	// DefaultCacheTTL is how long a decoded codebook stays cached.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultMaxElapsed bounds the total time spent retrying one operation.
	DefaultMaxElapsed = 30 * time.Second
)

type options struct {
	cacheTTL   time.Duration
	maxElapsed time.Duration
	initial    time.Duration
	controller *resource.Controller
	notify     backoff.Notify
}

// Option configures an Archive.
type Option func(*options)

// WithCacheTTL sets how long decoded codebooks are cached. Zero caches
// without expiry; a negative value disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithRetry sets the initial backoff interval and the maximum total retry
// time. maxElapsed == 0 disables retries.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(o *options) {
		o.initial = initial
		o.maxElapsed = maxElapsed
	}
}

// WithResourceController charges archive reads and writes against the
// controller's IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.controller = rc }
}

// WithRetryNotify installs a callback invoked before each retry.
func WithRetryNotify(fn func(err error, next time.Duration)) Option {
	return func(o *options) { o.notify = fn }
}
