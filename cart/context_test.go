package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	m, _ := newTestManager(t, newFakeStore())

	ctx := WithManager(context.Background(), m)
	require.Same(t, m, FromContext(ctx))
}

func TestFromContext_MissingManagerPanics(t *testing.T) {
	require.PanicsWithValue(t, ErrNoManager, func() { FromContext(context.Background()) })
	require.PanicsWithValue(t, ErrNoManager, func() {
		FromContext(WithManager(context.Background(), nil))
	})
}
