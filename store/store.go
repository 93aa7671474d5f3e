// Package store is the key/value persistence behind reports: a string key
// holding a JSON document.
package store

import "context"

// Logical keys.
const (
	ReportsKey         = "reports"
	RadioCallKeyPrefix = "radiocall_"
)

type Store interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
