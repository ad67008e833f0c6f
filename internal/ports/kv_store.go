package ports

import "context"

// KVStore is the persistent store adapter the spot repository writes through.
// Values are opaque serialized text; keys are fixed identifiers.
type KVStore interface {
	// Get returns the value stored under key.
	// found is false and err is nil when the key has never been written.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	// A nil error means the value is durable as far as the backend allows.
	Set(ctx context.Context, key, value string) error
}
