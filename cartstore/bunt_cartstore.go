// cartstore/bunt_cartstore.go

package cartstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
)

// MemoryPath opens a BuntCartStore that is never written to disk.
const MemoryPath = ":memory:"

// BuntCartStore persists snapshots in an embedded buntdb file.
type BuntCartStore struct {
	path string
	db   *buntdb.DB
	log  logrus.FieldLogger
}

// NewBuntCartStore creates a store on the given file path. The file is opened by Initialize.
func NewBuntCartStore(path string, log logrus.FieldLogger) *BuntCartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BuntCartStore{
		path: path,
		log:  log.WithField("store", "bunt"),
	}
}

// Initialize opens the database file, creating it if missing.
func (b *BuntCartStore) Initialize(ctx context.Context) error {
	if b.db != nil {
		return nil
	}
	db, err := buntdb.Open(b.path)
	if err != nil {
		return errors.Wrapf(err, "open buntdb %s", b.path)
	}
	b.db = db
	b.log.WithField("path", b.path).Info("BuntCartStore initialized")
	return nil
}

// Get reads the value stored under key.
func (b *BuntCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	if b.db == nil {
		return nil, errors.New("buntdb store not initialized")
	}
	var val string
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		val, err = tx.Get(key)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "buntdb get %s", key)
	}
	return []byte(val), nil
}

// Set overwrites the value stored under key.
func (b *BuntCartStore) Set(ctx context.Context, key string, value []byte) error {
	if b.db == nil {
		return errors.New("buntdb store not initialized")
	}
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(value), nil)
		return err
	})
	return errors.Wrapf(err, "buntdb set %s", key)
}

// ListKeys returns every stored key in ascending order.
func (b *BuntCartStore) ListKeys(ctx context.Context) ([]string, error) {
	if b.db == nil {
		return nil, errors.New("buntdb store not initialized")
	}
	var keys []string
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "buntdb list keys")
	}
	return keys, nil
}

// Ping reports whether the database is open.
func (b *BuntCartStore) Ping(ctx context.Context) bool {
	if b.db == nil {
		return false
	}
	return b.db.View(func(tx *buntdb.Tx) error { return nil }) == nil
}

// Close flushes and closes the database file.
func (b *BuntCartStore) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
