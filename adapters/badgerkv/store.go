// Package badgerkv implements the metadata store collaborator on BadgerDB.
// It backs the embedded and object-store adapter families: contract records
// are values keyed directly by logical key, size accounting uses the
// engine's own on-disk range estimate.
package badgerkv

import (
	"context"
	"errors"
	"fmt"
	"iter"

	badger "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/contract"
)

// Store is a BadgerDB-backed metadata store.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Options configures how the engine is opened.
type Options struct {
	// Path is the on-disk directory for the engine. Ignored when InMemory.
	Path string

	// InMemory opens a purely in-memory engine; used by tests.
	InMemory bool

	// SyncWrites makes every write durable before acknowledging.
	SyncWrites bool
}

// Open opens the metadata engine. A failure here is a construction-time
// configuration error, not a transient one.
func Open(opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.InMemory && opts.Path == "" {
		return nil, fmt.Errorf("%w: metadata engine path is required", contract.ErrInvalidConfig)
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	// Badger logs its compaction chatter at Info; demote it to debug.
	bopts.Logger = engineLogger{logger.Sugar()}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open metadata engine at %s: %v", contract.ErrInvalidConfig, opts.Path, err)
	}

	logger.Debug("Metadata engine opened", zap.String("path", opts.Path), zap.Bool("in_memory", opts.InMemory))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the engine.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetRecord(ctx context.Context, key string) ([]byte, error) {
	var record []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		record, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read contract record %s: %w", key, err)
	}
	return record, nil
}

func (s *Store) PutRecord(ctx context.Context, key string, record []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), record)
	})
	if err != nil {
		return fmt.Errorf("failed to write contract record %s: %w", key, err)
	}
	return nil
}

func (s *Store) DelRecord(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes are blind; probe first so absence is reportable.
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return contract.ErrNotFound
		}
		return fmt.Errorf("failed to delete contract record %s: %w", key, err)
	}
	return nil
}

func (s *Store) RecordSize(ctx context.Context, key string) (int64, error) {
	var size int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		size = item.ValueSize()
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, contract.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat contract record %s: %w", key, err)
	}
	return size, nil
}

// ApproxSize returns the engine's own on-disk estimate for the whole
// namespace. The number is an approximation: recently written records may
// not be counted until they reach disk tables.
func (s *Store) ApproxSize(ctx context.Context) (int64, error) {
	lsm, vlog := s.db.EstimateSize(nil)
	return int64(lsm + vlog), nil
}

// StreamKeys lazily iterates all logical keys. The iterator and its
// transaction are released when the consumer breaks out early.
func (s *Store) StreamKeys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		txn := s.db.NewTransaction(false)
		defer txn.Discard()

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			key := string(it.Item().KeyCopy(nil))
			if !yield(key, nil) {
				return
			}
		}
	}
}

// DropAll erases every record and resets the engine to empty.
func (s *Store) DropAll() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop metadata namespace: %w", err)
	}
	return nil
}
