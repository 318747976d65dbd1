package storage

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Slots.Get when the slot was never written.
var ErrSlotNotFound = errors.New("slot not found")

// Slots is a named key-value store holding one serialized collection per slot.
// Implementations exist for BadgerDB, Redis and process memory so the
// collections can be persisted without the rest of the application caring
// which backend is in use.
type Slots interface {
	// Get returns the raw content of a slot or ErrSlotNotFound.
	Get(ctx context.Context, slot string) ([]byte, error)

	// Put overwrites the content of a slot.
	Put(ctx context.Context, slot string, data []byte) error

	// Close releases the backend.
	Close() error
}
