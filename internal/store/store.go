// Package store keeps named save slots: one opaque value per key.
package store

import (
	"context"
	"fmt"
)

var (
	ErrBadKey   = fmt.Errorf("bad key for store")
	ErrNotFound = fmt.Errorf("value not found")
)

type Slots interface {
	// Get returns [ErrNotFound] when key has no value.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set inserts a new value or overwrites an existing one.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key without checking if it existed.
	Delete(ctx context.Context, key string) error
}

func isKeyRune(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' || c == ':' || c == '-' || c == '_'
}

// ValidKey reports whether key may be used as a slot name: 1 to 128 Latin
// letters, digits, ':', '-' or '_'.
func ValidKey(key string) bool {
	if len(key) == 0 || len(key) > 128 {
		return false
	}
	for _, c := range key {
		if !isKeyRune(c) {
			return false
		}
	}
	return true
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return nil
}
