package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/internal/keyutil"
)

// shardStore persists payload blobs as flat files named by physical shard
// key. Derived keys are always safe filenames; raw legacy keys are only
// honored when they happen to be.
type shardStore struct {
	dir string
}

func newShardStore(dir string) (*shardStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create shards namespace %s: %v", contract.ErrInvalidConfig, dir, err)
	}
	return &shardStore{dir: dir}, nil
}

func (s *shardStore) path(fskey string) (string, error) {
	if !keyutil.IsSafeSegment(fskey) {
		return "", fmt.Errorf("physical key %q is not a safe path segment", fskey)
	}
	return filepath.Join(s.dir, fskey), nil
}

func (s *shardStore) OpenRead(ctx context.Context, fskey string) (io.ReadCloser, error) {
	path, err := s.path(fskey)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open shard %s: %w", fskey, err)
	}
	return file, nil
}

func (s *shardStore) OpenWrite(ctx context.Context, fskey string) (io.WriteCloser, error) {
	path, err := s.path(fskey)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create shard %s: %w", fskey, err)
	}
	return file, nil
}

func (s *shardStore) Exists(ctx context.Context, fskey string) (bool, error) {
	path, err := s.path(fskey)
	if err != nil {
		// An unsafe legacy key cannot name a shard in this namespace.
		return false, nil
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat shard %s: %w", fskey, err)
}

func (s *shardStore) Unlink(ctx context.Context, fskey string) error {
	path, err := s.path(fskey)
	if err != nil {
		return contract.ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return contract.ErrNotFound
		}
		return fmt.Errorf("failed to delete shard %s: %w", fskey, err)
	}
	return nil
}

func (s *shardStore) Size(ctx context.Context, fskey string) (int64, error) {
	path, err := s.path(fskey)
	if err != nil {
		return 0, contract.ErrNotFound
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, contract.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat shard %s: %w", fskey, err)
	}
	return info.Size(), nil
}

func (s *shardStore) TotalSize(ctx context.Context) (int64, error) {
	return dirSize(s.dir)
}

func (s *shardStore) wipe() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, 0755)
}
