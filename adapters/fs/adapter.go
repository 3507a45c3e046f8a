// Package fs implements the storage adapter contract over a plain
// hierarchical filesystem: contract records and shard payloads live in two
// separate directories under one root.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/adapters"
	"github.com/ebogdum/shardstore/contract"
)

const (
	contractsDir = "contracts"
	shardsDir    = "shards"
)

// Adapter implements the adapters.Adapter interface for the local filesystem.
// Size accounting is exact: both namespaces are walked and file sizes summed.
type Adapter struct {
	adapters.Pair

	rootPath string
	meta     *metadataStore
	shards   *shardStore
	logger   *zap.Logger
}

// New creates a filesystem adapter rooted at rootPath, creating both
// namespaces if they do not exist yet.
func New(rootPath string, logger *zap.Logger) (*Adapter, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("%w: filesystem root path is required", contract.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meta, err := newMetadataStore(filepath.Join(rootPath, contractsDir))
	if err != nil {
		return nil, err
	}
	shards, err := newShardStore(filepath.Join(rootPath, shardsDir))
	if err != nil {
		return nil, err
	}

	// Verify root is accessible
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("%w: root path %s is not accessible: %v", contract.ErrInvalidConfig, rootPath, err)
	}

	a := &Adapter{
		rootPath: rootPath,
		meta:     meta,
		shards:   shards,
		logger:   logger,
	}
	a.Pair = adapters.Pair{Meta: meta, Shards: shards, Logger: logger}
	return a, nil
}

// Open is a no-op success: the filesystem backend has no connection concept.
func (a *Adapter) Open(ctx context.Context) error {
	return nil
}

// Close is a no-op success, mirroring Open.
func (a *Adapter) Close() error {
	return nil
}

// TotalSize sums file sizes across both namespaces. The result is exact.
func (a *Adapter) TotalSize(ctx context.Context) (int64, error) {
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

// Flush removes both namespaces entirely and recreates them empty.
func (a *Adapter) Flush(ctx context.Context) error {
	if err := a.meta.wipe(); err != nil {
		return fmt.Errorf("failed to flush contracts namespace: %w", err)
	}
	if err := a.shards.wipe(); err != nil {
		return fmt.Errorf("failed to flush shards namespace: %w", err)
	}
	a.logger.Info("Storage flushed", zap.String("root_path", a.rootPath))
	return nil
}
