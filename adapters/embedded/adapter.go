// Package embedded implements the storage adapter contract over an embedded
// key-value engine for contract records paired with a chunked-file store for
// shard payloads, both living under one data directory.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/adapters"
	"github.com/ebogdum/shardstore/adapters/badgerkv"
	"github.com/ebogdum/shardstore/adapters/chunkstore"
	"github.com/ebogdum/shardstore/contract"
)

// Adapter implements the adapters.Adapter interface over BadgerDB and a
// chunked-file shard store. The engine has a real connection lifecycle: data
// operations before Open or after Close fail with contract.ErrNotOpen.
//
// TotalSize is an approximation: the metadata component comes from the
// engine's own range estimate, the shard component is an exact sum.
type Adapter struct {
	path       string
	chunkSize  int64
	syncWrites bool
	logger     *zap.Logger

	pair   *adapters.Pair
	meta   *badgerkv.Store
	shards *chunkstore.Store
}

// New creates an embedded adapter storing both namespaces under path. The
// engine is not opened until Open is called.
func New(path string, chunkSize int64, syncWrites bool, logger *zap.Logger) (*Adapter, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: embedded store path is required", contract.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		path:       path,
		chunkSize:  chunkSize,
		syncWrites: syncWrites,
		logger:     logger,
	}, nil
}

// Open opens the key-value engine and prepares the shard namespace.
// Idempotent: opening an open adapter is a no-op.
func (a *Adapter) Open(ctx context.Context) error {
	if a.pair != nil {
		return nil
	}

	meta, err := badgerkv.Open(badgerkv.Options{
		Path:       filepath.Join(a.path, "contracts"),
		SyncWrites: a.syncWrites,
	}, a.logger)
	if err != nil {
		return err
	}
	shards, err := chunkstore.New(filepath.Join(a.path, "shards"), a.chunkSize, a.logger)
	if err != nil {
		closeErr := meta.Close()
		return errors.Join(err, closeErr)
	}

	a.meta = meta
	a.shards = shards
	a.pair = &adapters.Pair{Meta: meta, Shards: shards, Logger: a.logger}
	a.logger.Info("Embedded storage opened", zap.String("path", a.path))
	return nil
}

// Close releases the key-value engine. Idempotent.
func (a *Adapter) Close() error {
	if a.pair == nil {
		return nil
	}
	err := a.meta.Close()
	a.pair = nil
	a.meta = nil
	a.shards = nil
	if err != nil {
		return fmt.Errorf("failed to close metadata engine: %w", err)
	}
	return nil
}

// ready returns the protocol pair or ErrNotOpen.
func (a *Adapter) ready() (*adapters.Pair, error) {
	if a.pair == nil {
		return nil, contract.ErrNotOpen
	}
	return a.pair, nil
}

func (a *Adapter) Peek(ctx context.Context, key string) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Peek(ctx, key)
}

func (a *Adapter) Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Put(ctx, key, item)
}

func (a *Adapter) Get(ctx context.Context, key string) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, key)
}

func (a *Adapter) Del(ctx context.Context, key string) error {
	p, err := a.ready()
	if err != nil {
		return err
	}
	return p.Del(ctx, key)
}

func (a *Adapter) Size(ctx context.Context, key string) (int64, error) {
	p, err := a.ready()
	if err != nil {
		return 0, err
	}
	return p.Size(ctx, key)
}

// TotalSize combines the engine's range estimate for the metadata namespace
// with an exact sum over the shard namespace.
func (a *Adapter) TotalSize(ctx context.Context) (int64, error) {
	if _, err := a.ready(); err != nil {
		return 0, err
	}
	metaSize, err := a.meta.ApproxSize(ctx)
	if err != nil {
		return 0, err
	}
	shardSize, err := a.shards.TotalSize(ctx)
	if err != nil {
		return 0, err
	}
	return metaSize + shardSize, nil
}

func (a *Adapter) Keys(ctx context.Context) iter.Seq2[string, error] {
	p, err := a.ready()
	if err != nil {
		return adapters.FailedKeys(err)
	}
	return p.Keys(ctx)
}

// Flush drops every record from the engine and wipes the shard namespace.
func (a *Adapter) Flush(ctx context.Context) error {
	if _, err := a.ready(); err != nil {
		return err
	}
	if err := a.meta.DropAll(); err != nil {
		return err
	}
	if err := a.shards.Wipe(); err != nil {
		return err
	}
	a.logger.Info("Storage flushed", zap.String("path", a.path))
	return nil
}
