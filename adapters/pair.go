package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/contract"
)

// Pair couples a metadata store with a shard store and implements the
// logical-to-physical key indirection and the get-or-create streaming
// protocol shared by every backend family. Backends embed or wrap a Pair and
// add their own Open/Close, size accounting, and Flush.
type Pair struct {
	Meta   MetadataStore
	Shards ShardStore
	Logger *zap.Logger
}

func (p *Pair) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Peek returns the contract record for key with no shard attachment.
func (p *Pair) Peek(ctx context.Context, key string) (*contract.StorageItem, error) {
	raw, err := p.Meta.GetRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	return contract.Decode(raw)
}

// Put persists the metadata record for key. The physical shard key is
// resolved once: an fskey carried on the incoming item wins, then the one
// already stored under the key, then a fresh derivation. Payload is stripped before
// write, and the caller's item is left untouched.
func (p *Pair) Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error) {
	rec := item.Clone()
	rec.Hash = key
	if rec.FSKey == "" {
		rec.FSKey = p.resolveFSKey(ctx, key)
	}

	raw, err := contract.Encode(rec)
	if err != nil {
		return nil, err
	}
	if err := p.Meta.PutRecord(ctx, key, raw); err != nil {
		return nil, fmt.Errorf("failed to store contract record for %s: %w", key, err)
	}

	p.logger().Debug("Contract record stored",
		zap.String("key", key),
		zap.String("fskey", rec.FSKey))

	return rec, nil
}

// resolveFSKey returns the fskey already cached in the stored record, or a
// fresh derivation when none exists. A corrupt or missing prior record means
// this Put establishes the key.
func (p *Pair) resolveFSKey(ctx context.Context, key string) string {
	prev, err := p.Peek(ctx, key)
	if err == nil && prev.FSKey != "" {
		return prev.FSKey
	}
	return Derive(key)
}

// Get returns the contract record with a shard stream attached. The shard
// existence probe distinguishes found, absent, and transport failure; only
// the last is an error. When no shard exists the returned stream is a write
// handle, and a record that predates the derivation scheme gets a derived
// fskey assigned and persisted before the handle is handed out.
func (p *Pair) Get(ctx context.Context, key string) (*contract.StorageItem, error) {
	item, err := p.Peek(ctx, key)
	if err != nil {
		return nil, err
	}

	// Records written before fskey existed address the shard by the logical
	// key itself.
	fskey := item.FSKey
	legacy := false
	if fskey == "" {
		fskey = key
		legacy = true
	}

	found, err := p.Shards.Exists(ctx, fskey)
	if err != nil {
		return nil, fmt.Errorf("failed to probe shard %s: %w", fskey, err)
	}

	if !found && legacy {
		// Nothing was ever written under the legacy layout. Allocate a
		// derived key and persist it so Del and later Gets resolve the same
		// physical location the caller is about to write.
		item.FSKey = Derive(key)
		fskey = item.FSKey
		if _, err := p.Put(ctx, key, item); err != nil {
			return nil, err
		}
	}

	switch contract.ModeFor(found) {
	case contract.ModeRead:
		item.Shard = contract.NewReadStream(func() (io.ReadCloser, error) {
			return p.Shards.OpenRead(ctx, fskey)
		})
	case contract.ModeWrite:
		item.Shard = contract.NewWriteStream(func() (io.WriteCloser, error) {
			return p.Shards.OpenWrite(ctx, fskey)
		})
	}

	p.logger().Debug("Shard stream attached",
		zap.String("key", key),
		zap.String("fskey", fskey),
		zap.Stringer("mode", item.Shard.Mode()))

	return item, nil
}

// Del removes the metadata record and the shard entry. Absence of either is
// a success path. When the record is missing or unreadable it cannot say
// where the shard lives, so both candidate layouts are unlinked: the logical
// key (legacy) and the derived key.
func (p *Pair) Del(ctx context.Context, key string) error {
	candidates := []string{key}
	switch item, err := p.Peek(ctx, key); {
	case err == nil:
		if item.FSKey != "" {
			candidates = []string{item.FSKey}
		}
	case errors.Is(err, contract.ErrNotFound), errors.Is(err, contract.ErrCorrupt):
		candidates = append(candidates, Derive(key))
	default:
		return err
	}

	if err := p.Meta.DelRecord(ctx, key); err != nil && !errors.Is(err, contract.ErrNotFound) {
		return fmt.Errorf("failed to delete contract record for %s: %w", key, err)
	}
	for _, fskey := range candidates {
		if err := p.Shards.Unlink(ctx, fskey); err != nil && !errors.Is(err, contract.ErrNotFound) {
			return fmt.Errorf("failed to delete shard %s: %w", fskey, err)
		}
	}
	return nil
}

// Size returns the byte count of a single entry: the stored record length
// plus the shard payload length. A record with no shard yet counts the
// record alone; no record at all is contract.ErrNotFound.
func (p *Pair) Size(ctx context.Context, key string) (int64, error) {
	item, err := p.Peek(ctx, key)
	if err != nil {
		return 0, err
	}

	total, err := p.Meta.RecordSize(ctx, key)
	if err != nil {
		return 0, err
	}

	fskey := item.FSKey
	if fskey == "" {
		fskey = key
	}
	switch n, err := p.Shards.Size(ctx, fskey); {
	case err == nil:
		total += n
	case errors.Is(err, contract.ErrNotFound):
		// Shard not written yet.
	default:
		return 0, err
	}
	return total, nil
}

// Keys enumerates the logical keys present in the metadata namespace.
func (p *Pair) Keys(ctx context.Context) iter.Seq2[string, error] {
	return p.Meta.StreamKeys(ctx)
}

// FailedKeys returns a key sequence that yields only err. Backends use it
// when enumeration cannot start at all, e.g. before Open.
func FailedKeys(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
