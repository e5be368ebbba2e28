package cart

import (
	"context"
	"errors"
)

// ErrNoManager is the panic value of FromContext when no manager was attached.
var ErrNoManager = errors.New("cart: FromContext called on a context without a Manager")

type managerKey struct{}

// WithManager returns a copy of ctx carrying m.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

// FromContext returns the manager attached by WithManager. It panics when there is none:
// reaching for the cart outside a wired context is a setup bug.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(managerKey{}).(*Manager)
	if !ok || m == nil {
		panic(ErrNoManager)
	}
	return m
}
