package adapters

import (
	"context"
	"io"
	"iter"
)

// MetadataStore is the key-value persistence collaborator for contract
// records, addressed by logical key. Implementations report missing records
// as contract.ErrNotFound.
type MetadataStore interface {
	// GetRecord returns the raw persisted record for key.
	GetRecord(ctx context.Context, key string) ([]byte, error)

	// PutRecord persists the record under key, overwriting any previous one.
	PutRecord(ctx context.Context, key string, record []byte) error

	// DelRecord removes the record; contract.ErrNotFound when absent.
	DelRecord(ctx context.Context, key string) error

	// RecordSize returns the stored byte length of the record for key.
	RecordSize(ctx context.Context, key string) (int64, error)

	// ApproxSize estimates the byte count of the whole metadata namespace.
	// Whether the number is exact is implementation-specific.
	ApproxSize(ctx context.Context) (int64, error)

	// StreamKeys lazily enumerates all logical keys. Breaking out early
	// must release the underlying iterator resource.
	StreamKeys(ctx context.Context) iter.Seq2[string, error]
}

// ShardStore is the persistence collaborator for opaque payload bytes,
// addressed by physical shard key. Implementations report a missing shard as
// contract.ErrNotFound where existence is required, but Exists must
// distinguish absence from transport failure: absence is (false, nil), a
// transport failure is a non-nil error.
type ShardStore interface {
	// OpenRead opens the payload at fskey for reading.
	OpenRead(ctx context.Context, fskey string) (io.ReadCloser, error)

	// OpenWrite opens the payload at fskey for writing. The shard becomes
	// visible to Exists once the writer is closed.
	OpenWrite(ctx context.Context, fskey string) (io.WriteCloser, error)

	// Exists probes for a payload at fskey.
	Exists(ctx context.Context, fskey string) (bool, error)

	// Unlink removes the payload; contract.ErrNotFound when absent.
	Unlink(ctx context.Context, fskey string) error

	// Size returns the payload byte count at fskey.
	Size(ctx context.Context, fskey string) (int64, error)

	// TotalSize returns the byte count of the whole shard namespace.
	TotalSize(ctx context.Context) (int64, error)
}
