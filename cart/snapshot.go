package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is returned by DecodeSnapshot for data that is not a valid cart.
var ErrMalformedSnapshot = errors.New("cart: malformed snapshot")

// EncodeSnapshot serializes the whole cart as a JSON array of entries.
func EncodeSnapshot(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// DecodeSnapshot parses a persisted cart. The data must be a JSON array whose entries have a
// non-empty unique id and a quantity of at least one.
func DecodeSnapshot(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", ErrMalformedSnapshot)
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrMalformedSnapshot, i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, e.ID)
		}
		if e.Quantity < 1 {
			return nil, fmt.Errorf("%w: entry %q has quantity %d", ErrMalformedSnapshot, e.ID, e.Quantity)
		}
		seen[e.ID] = struct{}{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
