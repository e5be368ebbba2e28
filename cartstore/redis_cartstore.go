// cartstore/redis_cartstore.go

package cartstore

import (
	"context"
	"sort"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultPingAttempts = 30
	maxPingBackoff      = 30 * time.Second
	scanBatchSize       = 100
)

// RedisCartStore is a cart store backed by Redis.
type RedisCartStore struct {
	client       *redis.Client
	pingAttempts int
	log          logrus.FieldLogger
}

// NewRedisCartStore accepts a Redis connection string ("redis://..." or "hostname:port") and returns a store instance.
func NewRedisCartStore(redisAddr string, log logrus.FieldLogger) *RedisCartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// Not in "redis://..." format, use it as a plain Addr.
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisCartStore{
		client:       client,
		pingAttempts: defaultPingAttempts,
		log:          log.WithField("store", "redis"),
	}
}

// Initialize checks the Redis connection, retrying with exponential backoff.
func (r *RedisCartStore) Initialize(ctx context.Context) error {
	r.log.Info("RedisCartStore: initializing connection...")

	for i := 0; i < r.pingAttempts; i++ {
		if r.Ping(ctx) {
			r.log.WithField("attempt", i+1).Info("RedisCartStore initialized successfully")
			return nil
		}

		backoff := time.Duration(1000*(1<<uint(i))) * time.Millisecond
		if backoff > maxPingBackoff || backoff <= 0 {
			backoff = maxPingBackoff
		}
		r.log.WithField("attempt", i+1).Warnf("RedisCartStore: ping failed, waiting %v before next attempt", backoff)

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "redis initialize")
		case <-time.After(backoff):
		}
	}

	return errors.Errorf("failed to connect to Redis after %d attempts", r.pingAttempts)
}

// Get reads the value stored under key.
func (r *RedisCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis GET %s", key)
	}
	return val, nil
}

// Set overwrites the value stored under key. Snapshots never expire.
func (r *RedisCartStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis SET %s", key)
	}
	return nil
}

// ListKeys walks the keyspace with SCAN and returns the keys in lexical order.
func (r *RedisCartStore) ListKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, "*", scanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrap(err, "redis SCAN")
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks if Redis is alive.
func (r *RedisCartStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("RedisCartStore: ping failed")
		return false
	}
	return true
}

// Close releases the connection pool.
func (r *RedisCartStore) Close() error {
	return r.client.Close()
}
