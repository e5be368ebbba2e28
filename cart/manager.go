// Package cart owns the in-memory shopping cart and keeps a durable snapshot of it in a
// cartstore.Store.
//
// Every mutation computes the next cart from the current one, swaps it in and notifies
// subscribers before returning. The new cart is then queued for a write that overwrites the
// stored snapshot; writes run in the background, one at a time, in mutation order. Mutations that
// leave the cart unchanged write nothing.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/norun9/storefront-cart/cartstore"
)

const (
	instrumentationName = "github.com/norun9/storefront-cart/cart"
	defaultWriteTimeout = 10 * time.Second
)

var (
	// ErrNotInitialized is the panic value of reads and mutations on a Manager that has not
	// finished Initialize.
	ErrNotInitialized = errors.New("cart: manager used before Initialize")
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("cart: manager already initialized")
)

type lifecycle int

const (
	uninitialized lifecycle = iota
	initializing
	ready
)

type subscriber struct {
	id int
	fn func([]Entry)
}

// Manager is the single owner of cart state.
type Manager struct {
	store        cartstore.Store
	key          string
	writeTimeout time.Duration

	log    logrus.FieldLogger
	tracer trace.Tracer
	meter  metric.Meter

	writes   metric.Int64Counter
	failures metric.Int64Counter

	// opMu orders whole mutations: state swap, notification and enqueue.
	opMu sync.Mutex

	mu      sync.Mutex
	state   lifecycle
	entries []Entry
	subs    []subscriber
	nextSub int

	errMu    sync.Mutex
	flushErr error

	flusher *flushQueue
}

// New creates a Manager over store. The manager must be initialized before use.
func New(store cartstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		key:          cartstore.DefaultKey,
		writeTimeout: defaultWriteTimeout,
		log:          logrus.StandardLogger(),
		tracer:       otel.Tracer(instrumentationName),
		meter:        otel.Meter(instrumentationName),
		entries:      []Entry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("cart_key", m.key)
	m.writes = m.counter("cart.flush.writes", "Cart snapshots written to the store.")
	m.failures = m.counter("cart.flush.failures", "Cart snapshot writes that failed.")
	m.flusher = newFlushQueue(m.flush)
	return m
}

// Open creates and initializes a Manager.
func Open(ctx context.Context, store cartstore.Store, opts ...Option) (*Manager, error) {
	m := New(store, opts...)
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) counter(name, desc string) metric.Int64Counter {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.log.WithError(err).Warnf("failed to create counter %s", name)
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

// Initialize restores the cart from the store. A missing, unreadable or malformed snapshot
// yields an empty cart; none of those are returned as errors.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.state != uninitialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.state = initializing
	m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, "cart.Initialize")
	defer span.End()

	entries := m.load(ctx)
	m.logKeys(ctx)

	m.mu.Lock()
	m.entries = entries
	m.state = ready
	m.mu.Unlock()

	span.SetAttributes(attribute.Int("app.cart.size", len(entries)))
	m.log.WithField("entries", len(entries)).Info("cart initialized")
	return nil
}

func (m *Manager) load(ctx context.Context) []Entry {
	data, err := m.store.Get(ctx, m.key)
	if errors.Is(err, cartstore.ErrNotFound) {
		m.log.Debug("no stored cart snapshot, starting empty")
		return []Entry{}
	}
	if err != nil {
		m.log.WithError(err).Warn("failed to read cart snapshot, starting empty")
		return []Entry{}
	}
	entries, err := DecodeSnapshot(data)
	if err != nil {
		m.log.WithError(err).Warn("discarding malformed cart snapshot")
		return []Entry{}
	}
	return entries
}

func (m *Manager) logKeys(ctx context.Context) {
	keys, err := m.store.ListKeys(ctx)
	if err != nil {
		m.log.WithError(err).Debug("failed to list store keys")
		return
	}
	m.log.WithField("keys", keys).Debug("store keys at load")
}

// Ready reports whether Initialize has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == ready
}

// Products returns a copy of the current cart in insertion order.
func (m *Manager) Products() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ready {
		panic(ErrNotInitialized)
	}
	return clone(m.entries)
}

// AddToCart appends p with quantity 1 unless an entry with the same id is already present,
// in which case the cart is left as is. Products without an id are ignored.
func (m *Manager) AddToCart(ctx context.Context, p Product) []Entry {
	ctx, span := m.tracer.Start(ctx, "cart.AddToCart")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", p.ID))

	if p.ID == "" {
		m.log.Warn("AddToCart called with an empty product id")
	}
	return m.apply(ctx, span, func(cur []Entry) ([]Entry, bool) {
		if p.ID == "" || indexOf(cur, p.ID) >= 0 {
			return cur, false
		}
		next := make([]Entry, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, newEntry(p)), true
	})
}

// Increment raises the quantity of the entry with the given id by one. Unknown ids are a no-op.
func (m *Manager) Increment(ctx context.Context, id string) []Entry {
	ctx, span := m.tracer.Start(ctx, "cart.Increment")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", id))

	return m.apply(ctx, span, func(cur []Entry) ([]Entry, bool) {
		i := indexOf(cur, id)
		if i < 0 {
			return cur, false
		}
		next := clone(cur)
		next[i].Quantity++
		return next, true
	})
}

// Decrement lowers the quantity of the entry with the given id by one, removing the entry
// when its quantity is 1. Unknown ids are a no-op.
func (m *Manager) Decrement(ctx context.Context, id string) []Entry {
	ctx, span := m.tracer.Start(ctx, "cart.Decrement")
	defer span.End()
	span.SetAttributes(attribute.String("app.product_id", id))

	return m.apply(ctx, span, func(cur []Entry) ([]Entry, bool) {
		i := indexOf(cur, id)
		if i < 0 {
			return cur, false
		}
		if cur[i].Quantity > 1 {
			next := clone(cur)
			next[i].Quantity--
			return next, true
		}
		next := make([]Entry, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		return append(next, cur[i+1:]...), true
	})
}

// apply runs mutate against the current cart. mutate must not modify its argument; it returns
// a fresh slice when it reports a change.
func (m *Manager) apply(ctx context.Context, span trace.Span, mutate func([]Entry) ([]Entry, bool)) []Entry {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.state != ready {
		m.mu.Unlock()
		panic(ErrNotInitialized)
	}
	next, changed := mutate(m.entries)
	if changed {
		m.entries = next
	}
	subs := append([]subscriber(nil), m.subs...)
	m.mu.Unlock()

	span.SetAttributes(
		attribute.Bool("app.cart.changed", changed),
		attribute.Int("app.cart.size", len(next)),
	)
	if !changed {
		return clone(next)
	}

	for _, s := range subs {
		s.fn(clone(next))
	}
	m.schedule(ctx, next)
	return clone(next)
}

// schedule queues a write of entries. It is separate from apply so the write policy can change
// without touching the mutations.
func (m *Manager) schedule(ctx context.Context, entries []Entry) {
	if !m.flusher.enqueue(ctx, entries) {
		m.log.Warn("cart manager closed, snapshot not persisted")
	}
}

func (m *Manager) flush(ctx context.Context, entries []Entry) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
	defer cancel()

	ctx, span := m.tracer.Start(ctx, "cart.Flush")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.cart.key", m.key),
		attribute.Int("app.cart.size", len(entries)),
	)

	data, err := EncodeSnapshot(entries)
	if err == nil {
		err = m.store.Set(ctx, m.key, data)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.failures.Add(ctx, 1)
		m.setFlushErr(err)
		m.log.WithError(err).Error("cart flush failed")
		return
	}
	m.writes.Add(ctx, 1)
	m.setFlushErr(nil)
}

func (m *Manager) setFlushErr(err error) {
	m.errMu.Lock()
	m.flushErr = err
	m.errMu.Unlock()
}

// LastFlushError returns the error of the most recent write, or nil if it succeeded.
func (m *Manager) LastFlushError() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.flushErr
}

// Subscribe registers fn to receive a copy of the cart after every change. fn runs on the
// mutating goroutine and may call Products but not the mutations.
func (m *Manager) Subscribe(fn func([]Entry)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// Flush waits until every write queued so far has completed.
func (m *Manager) Flush(ctx context.Context) error {
	return m.flusher.wait(ctx)
}

// Close drains pending writes and stops the writer. Later mutations still update the
// in-memory cart but are not persisted.
func (m *Manager) Close(ctx context.Context) error {
	return m.flusher.close(ctx)
}
