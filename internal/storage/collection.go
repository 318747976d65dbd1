package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

// Codec describes how records of type T are identified, ordered and parsed.
type Codec[T any] struct {
	// Key returns the identifying field of a record.
	Key func(T) string

	// Sort orders records in place into their canonical order.
	Sort func([]T)

	// Parse validates and decodes one raw record.
	Parse func(json.RawMessage) (T, error)
}

// Collection persists an ordered set of records in a single slot.
// Persistence is best effort: nothing here ever returns an error, failures
// are logged and the caller carries on with its in-memory state.
type Collection[T any] struct {
	slots Slots
	slot  string
	codec Codec[T]
	log   logrus.FieldLogger
}

// NewCollection binds a codec to a slot. slots may be nil, in which case every
// load is empty and every save is dropped.
func NewCollection[T any](slots Slots, slot string, codec Codec[T], logger logrus.FieldLogger) *Collection[T] {
	return &Collection[T]{
		slots: slots,
		slot:  slot,
		codec: codec,
		log: logger.WithFields(logrus.Fields{
			"component": "storage",
			"slot":      slot,
		}),
	}
}

// Load reads the slot. Records that fail to parse are dropped; when the same
// key appears more than once the last occurrence wins. The result is in
// canonical order and is never nil.
func (c *Collection[T]) Load(ctx context.Context) []T {
	items := make([]T, 0)
	if c.slots == nil {
		c.log.Warn("No storage backend, starting empty")
		return items
	}

	data, err := c.slots.Get(ctx, c.slot)
	if errors.Is(err, ErrSlotNotFound) {
		return items
	}
	if err != nil {
		c.log.WithError(err).Error("Failed to load collection")
		return items
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		c.log.WithError(err).Warn("Discarding corrupt collection")
		return items
	}

	index := make(map[string]int, len(raw))
	dropped := 0
	for _, r := range raw {
		item, err := c.codec.Parse(r)
		if err != nil {
			dropped++
			c.log.WithError(err).Debug("Dropping malformed record")
			continue
		}
		key := c.codec.Key(item)
		if i, ok := index[key]; ok {
			items[i] = item
			continue
		}
		index[key] = len(items)
		items = append(items, item)
	}
	c.codec.Sort(items)

	c.log.WithFields(logrus.Fields{
		"count":   len(items),
		"dropped": dropped,
	}).Debug("Collection loaded")
	return items
}

// Save writes the whole collection in canonical order, replacing the slot.
func (c *Collection[T]) Save(ctx context.Context, items []T) {
	if c.slots == nil {
		return
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	c.codec.Sort(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal collection")
		return
	}
	if err := c.slots.Put(ctx, c.slot, data); err != nil {
		c.log.WithError(err).Error("Failed to save collection")
		return
	}
	c.log.WithField("count", len(sorted)).Debug("Collection saved")
}
