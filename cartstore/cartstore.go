// cartstore/cartstore.go

package cartstore

import (
	"context"
	"errors"
)

// DefaultKey is the key under which the full cart snapshot is stored.
const DefaultKey = "cart:products"

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("cartstore: key not found")

// Store is the key-value persistence the cart manager flushes snapshots into.
type Store interface {
	Initialize(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	ListKeys(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) bool
	Close() error
}
