package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot_Format(t *testing.T) {
	data, err := EncodeSnapshot([]Entry{{ID: "A", Title: "Apple", ImageURL: "a.png", Price: 1.5, Quantity: 2}})
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"A","title":"Apple","image_url":"a.png","price":1.5,"quantity":2}]`, string(data))
}

func TestEncodeSnapshot_EmptyCartIsArray(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestDecodeSnapshot(t *testing.T) {
	got, err := DecodeSnapshot([]byte(` [{"id":"X","title":"Xylophone","image_url":"x.png","price":3,"quantity":3}] `))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]Entry{{ID: "X", Title: "Xylophone", ImageURL: "x.png", Price: 3, Quantity: 3}}, got))

	got, err = DecodeSnapshot([]byte(`[]`))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`"cart"`,
		`[1, 2]`,
		`[{"id":"A","quantity":-1}]`,
		`[{"id":"A","quantity":"two"}]`,
	} {
		_, err := DecodeSnapshot([]byte(raw))
		require.ErrorIs(t, err, ErrMalformedSnapshot, "input %q", raw)
	}
}
