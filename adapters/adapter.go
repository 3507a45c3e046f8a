// Package adapters defines the storage adapter contract implemented by every
// backend family, the collaborator interfaces the backends compose, and the
// key-indirection and get-or-create protocol shared between them.
package adapters

import (
	"context"
	"iter"

	"github.com/ebogdum/shardstore/contract"
)

// Adapter is the uniform storage surface over a metadata namespace of
// contract records and a shard namespace of payload blobs. One adapter
// instance serves one process; concurrent operations on distinct keys run
// independently, bound only by the backend's own limits.
type Adapter interface {
	// Open establishes backend connections. Idempotent; a no-op success on
	// backends without a connection concept.
	Open(ctx context.Context) error

	// Close releases backend connections. Idempotent.
	Close() error

	// Peek returns the contract record only, with no shard attachment.
	// Fails with contract.ErrNotFound if no record exists.
	Peek(ctx context.Context, key string) (*contract.StorageItem, error)

	// Put persists the metadata record for key, assigning the physical shard
	// key and stripping any payload. It returns the updated record and never
	// mutates its argument. Repeated calls overwrite.
	Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error)

	// Get returns the contract record with a shard stream attached: a read
	// stream when the shard exists, a write stream when it has not been
	// uploaded yet. Fails with contract.ErrNotFound if no record exists.
	Get(ctx context.Context, key string) (*contract.StorageItem, error)

	// Del removes the metadata record and the shard. Idempotent: a key with
	// neither entry succeeds without error.
	Del(ctx context.Context, key string) error

	// Size returns the byte count of one entry: record plus payload. Fails
	// with contract.ErrNotFound if no record exists.
	Size(ctx context.Context, key string) (int64, error)

	// TotalSize returns the byte count of the whole store. Exactness is
	// backend-specific; callers must not compare totals across backends.
	TotalSize(ctx context.Context) (int64, error)

	// Keys enumerates the logical keys present in the metadata namespace,
	// lazily and in unspecified order. Breaking out early releases the
	// underlying listing resource; a listing failure is yielded as the
	// terminal error of the sequence.
	Keys(ctx context.Context) iter.Seq2[string, error]

	// Flush deletes every record and every shard, restoring the backend to
	// an initialized-empty state. Destructive and irreversible.
	Flush(ctx context.Context) error
}
