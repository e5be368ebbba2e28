// cartstore/local_cartstore.go

package cartstore

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// LocalCartStore keeps snapshots in process memory.
// Values are copied on the way in and out so callers never share a buffer with the store.
type LocalCartStore struct {
	mu    sync.RWMutex
	store map[string][]byte

	log logrus.FieldLogger
}

// NewLocalCartStore constructor
func NewLocalCartStore(log logrus.FieldLogger) *LocalCartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LocalCartStore{
		store: make(map[string][]byte),
		log:   log.WithField("store", "local"),
	}
}

// Initialize does nothing in this implementation.
func (l *LocalCartStore) Initialize(ctx context.Context) error {
	l.log.Debug("LocalCartStore initialized")
	return nil
}

// Get returns a copy of the value stored under key.
func (l *LocalCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	val, ok := l.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// Set overwrites the value stored under key.
func (l *LocalCartStore) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store[key] = append([]byte(nil), value...)
	return nil
}

// ListKeys returns every stored key in lexical order.
func (l *LocalCartStore) ListKeys(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.store))
	for k := range l.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping is a health check that always returns true.
func (l *LocalCartStore) Ping(ctx context.Context) bool {
	return true
}

// Close is a no-op.
func (l *LocalCartStore) Close() error {
	return nil
}
