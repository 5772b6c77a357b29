// Package storage persists the client's two durable records, the session
// and the cart, behind a small key-value interface. Records are JSON blobs
// keyed by fixed, well-known names. A single active writer is assumed.
package storage

import (
	"context"
	"errors"
)

// Well-known record keys.
const (
	SessionKey = "session"
	CartKey    = "cart"
)

var ErrNotFound = errors.New("record not found")

// KV is the durable key-value store. Get returns ErrNotFound for absent
// keys; Delete of an absent key is a no-op.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
