package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerSlots implements Slots using BadgerDB.
type BadgerSlots struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerSlots opens the database at dbPath.
func NewBadgerSlots(dbPath string, logger logrus.FieldLogger) (*BadgerSlots, error) {
	return openBadger(badger.DefaultOptions(dbPath), logger)
}

// NewInMemoryBadgerSlots opens a BadgerDB instance that never touches disk.
func NewInMemoryBadgerSlots(logger logrus.FieldLogger) (*BadgerSlots, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), logger)
}

func openBadger(opts badger.Options, logger logrus.FieldLogger) (*BadgerSlots, error) {
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %q: %w", opts.Dir, err)
	}
	logger.WithFields(logrus.Fields{
		"path":      opts.Dir,
		"in_memory": opts.InMemory,
	}).Info("BadgerDB opened")

	return &BadgerSlots{
		db:  db,
		log: logger.WithField("component", "storage"),
	}, nil
}

// Close closes the BadgerDB database.
func (s *BadgerSlots) Close() error {
	s.log.Info("Closing BadgerDB...")
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	s.log.Info("BadgerDB closed.")
	return nil
}

// slotKey namespaces slot names inside the database.
// Format: slot:{name}
func slotKey(slot string) []byte {
	return []byte("slot:" + slot)
}

// Get reads the raw content of a slot.
func (s *BadgerSlots) Get(ctx context.Context, slot string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slotKey(slot))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, nil
}

// Put overwrites the content of a slot in a single transaction.
func (s *BadgerSlots) Put(ctx context.Context, slot string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(slotKey(slot), data))
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}

// RunGC reclaims value log space every interval until ctx is cancelled.
// Overwriting whole slots on each mutation leaves stale versions behind, so
// this should run for the lifetime of an on-disk database.
func (s *BadgerSlots) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := s.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				s.log.Info("BadgerDB GC completed")
			case errors.Is(err, badger.ErrNoRewrite):
				s.log.Debug("BadgerDB GC: no rewrite needed")
			default:
				s.log.WithError(err).Warn("BadgerDB GC failed")
			}
		case <-ctx.Done():
			s.log.Debug("Stopping BadgerDB GC routine")
			return
		}
	}
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
