package store

import (
	"context"
	"encoding/json"
)

// Store is the key-value abstraction every durable record goes through.
// Values are JSON documents; there is no in-memory cache above it.
type Store interface {
	// Get decodes the value under key into v. found is false when the key
	// does not exist, in which case v is left untouched.
	Get(ctx context.Context, key string, v any) (found bool, err error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}

func decode(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}
