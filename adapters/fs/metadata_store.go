package fs

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/internal/keyutil"
)

const recordExt = ".json"

// metadataStore persists contract records as one JSON file per logical key.
// Filenames are the hex encoding of the key so enumeration can recover the
// original, arbitrary-charset key.
type metadataStore struct {
	dir string
}

func newMetadataStore(dir string) (*metadataStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create contracts namespace %s: %v", contract.ErrInvalidConfig, dir, err)
	}
	return &metadataStore{dir: dir}, nil
}

func (m *metadataStore) path(key string) string {
	return filepath.Join(m.dir, keyutil.EncodeKey(key)+recordExt)
}

func (m *metadataStore) GetRecord(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(m.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read contract record %s: %w", key, err)
	}
	return data, nil
}

func (m *metadataStore) PutRecord(ctx context.Context, key string, record []byte) error {
	if err := os.WriteFile(m.path(key), record, 0644); err != nil {
		return fmt.Errorf("failed to write contract record %s: %w", key, err)
	}
	return nil
}

func (m *metadataStore) DelRecord(ctx context.Context, key string) error {
	err := os.Remove(m.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return contract.ErrNotFound
		}
		return fmt.Errorf("failed to delete contract record %s: %w", key, err)
	}
	return nil
}

func (m *metadataStore) RecordSize(ctx context.Context, key string) (int64, error) {
	info, err := os.Stat(m.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, contract.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat contract record %s: %w", key, err)
	}
	return info.Size(), nil
}

// ApproxSize walks the contracts namespace summing record file sizes. For
// this backend the number is exact.
func (m *metadataStore) ApproxSize(ctx context.Context) (int64, error) {
	return dirSize(m.dir)
}

func (m *metadataStore) StreamKeys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			yield("", fmt.Errorf("failed to list contracts namespace: %w", err))
			return
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			name, ok := strings.CutSuffix(entry.Name(), recordExt)
			if !ok || entry.IsDir() {
				continue
			}
			key, err := keyutil.DecodeKey(name)
			if err != nil {
				// Foreign file in the namespace; not one of ours.
				continue
			}
			if !yield(key, nil) {
				return
			}
		}
	}
}

func (m *metadataStore) wipe() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return err
	}
	return os.MkdirAll(m.dir, 0755)
}

// dirSize sums regular file sizes under dir.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
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
		return 0, fmt.Errorf("failed to measure %s: %w", dir, err)
	}
	return total, nil
}
