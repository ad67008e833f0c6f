package diary

import (
	"github.com/bft-labs/fishdiary/internal/ports"
	"github.com/bft-labs/fishdiary/pkg/log"
)

// Store is the key/value capability a Diary persists through.
type Store = ports.KVStore

// Option configures optional behavior of a Diary.
type Option func(*options)

type options struct {
	logger        log.Logger
	store         Store
	statusHandler func(StatusChangeEvent)
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore replaces the configured backend with store. Watching is not
// available for custom stores.
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithStatusHandler registers a callback for status changes. It is called
// synchronously and should return quickly.
func WithStatusHandler(fn func(StatusChangeEvent)) Option {
	return func(o *options) {
		o.statusHandler = fn
	}
}
