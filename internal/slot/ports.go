// Package slot defines the durable key-value slot the ledger persists into.
//
// A slot holds one opaque value per key. The ledger keeps its whole
// collection under a single key and overwrites it after every mutation, so
// implementations only need whole-value reads and writes.
package slot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when nothing has been written under key.
var ErrNotFound = errors.New("slot: key not found")

// Ports for outbound adapters.
type (
	Reader interface {
		Read(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Write replaces the whole value stored under key.
		Write(ctx context.Context, key string, value []byte) error
	}

	Slot interface {
		Reader
		Writer
	}
)
