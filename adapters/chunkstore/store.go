// Package chunkstore implements the shard store collaborator as chunked
// files on disk: each shard is a directory of fixed-size chunk files named by
// sequence number. Writes land in a staging directory renamed into place on
// close, so a shard is visible only once fully written.
package chunkstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/internal/keyutil"
)

// DefaultChunkSize is used when no chunk size is configured.
const DefaultChunkSize = 4 << 20

const partialSuffix = ".partial"

// Store is a chunked-file shard store rooted at a single directory.
type Store struct {
	root      string
	chunkSize int64
	logger    *zap.Logger
}

// New creates a chunk store rooted at root.
func New(root string, chunkSize int64, logger *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: chunk store root is required", contract.ErrInvalidConfig)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create shards namespace %s: %v", contract.ErrInvalidConfig, root, err)
	}
	return &Store{root: root, chunkSize: chunkSize, logger: logger}, nil
}

func (s *Store) dir(fskey string) (string, error) {
	if !keyutil.IsSafeSegment(fskey) || strings.HasSuffix(fskey, partialSuffix) {
		return "", fmt.Errorf("physical key %q is not a safe shard name", fskey)
	}
	return filepath.Join(s.root, fskey), nil
}

// OpenRead returns a reader that concatenates the shard's chunk files in
// sequence order.
func (s *Store) OpenRead(ctx context.Context, fskey string) (io.ReadCloser, error) {
	dir, err := s.dir(fskey)
	if err != nil {
		return nil, err
	}
	chunks, err := chunkPaths(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open shard %s: %w", fskey, err)
	}
	return &chunkReader{chunks: chunks}, nil
}

// OpenWrite returns a writer that splits the payload into chunk files inside
// a staging directory. Closing the writer promotes the staging directory to
// the final shard directory, replacing any previous payload.
func (s *Store) OpenWrite(ctx context.Context, fskey string) (io.WriteCloser, error) {
	dir, err := s.dir(fskey)
	if err != nil {
		return nil, err
	}
	staging := dir + partialSuffix
	if err := os.RemoveAll(staging); err != nil {
		return nil, fmt.Errorf("failed to clear staging for shard %s: %w", fskey, err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging for shard %s: %w", fskey, err)
	}
	s.logger.Debug("Shard write staged",
		zap.String("fskey", fskey),
		zap.Int64("chunk_size", s.chunkSize))
	return &chunkWriter{
		staging:   staging,
		final:     dir,
		chunkSize: s.chunkSize,
	}, nil
}

func (s *Store) Exists(ctx context.Context, fskey string) (bool, error) {
	dir, err := s.dir(fskey)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(dir)
	if err == nil {
		return info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat shard %s: %w", fskey, err)
}

func (s *Store) Unlink(ctx context.Context, fskey string) error {
	dir, err := s.dir(fskey)
	if err != nil {
		return contract.ErrNotFound
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return contract.ErrNotFound
		}
		return fmt.Errorf("failed to stat shard %s: %w", fskey, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete shard %s: %w", fskey, err)
	}
	return nil
}

func (s *Store) Size(ctx context.Context, fskey string) (int64, error) {
	dir, err := s.dir(fskey)
	if err != nil {
		return 0, contract.ErrNotFound
	}
	chunks, err := chunkPaths(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, contract.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat shard %s: %w", fskey, err)
	}
	var total int64
	for _, path := range chunks {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("failed to stat chunk %s: %w", path, err)
		}
		total += info.Size()
	}
	return total, nil
}

// TotalSize sums chunk file sizes across all completed shards. Staging
// directories of in-flight writes are not counted.
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if strings.HasSuffix(d.Name(), partialSuffix) {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure shards namespace: %w", err)
	}
	return total, nil
}

// Wipe removes the whole namespace and recreates it empty.
func (s *Store) Wipe() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("failed to wipe shards namespace: %w", err)
	}
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to recreate shards namespace: %w", err)
	}
	return nil
}

// chunkPaths returns the shard's chunk files in sequence order.
func chunkPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
