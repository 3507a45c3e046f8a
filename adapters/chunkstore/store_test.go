package chunkstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebogdum/shardstore/contract"
)

func newTestStore(t *testing.T, chunkSize int64) *Store {
	t.Helper()
	store, err := New(t.TempDir(), chunkSize, nil)
	require.NoError(t, err)
	return store
}

func TestWriteReadAcrossChunkBoundaries(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	payload := []byte("0123456789abcdefghij") // 20 bytes -> 3 chunks at size 8

	writer, err := store.OpenWrite(ctx, "shard1")
	require.NoError(t, err)
	_, err = writer.Write(payload[:5])
	require.NoError(t, err)
	_, err = writer.Write(payload[5:])
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := store.OpenRead(ctx, "shard1")
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	entries, err := os.ReadDir(filepath.Join(store.root, "shard1"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	size, err := store.Size(ctx, "shard1")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
}

func TestShardInvisibleUntilClose(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	writer, err := store.OpenWrite(ctx, "shard1")
	require.NoError(t, err)
	_, err = writer.Write([]byte("partial"))
	require.NoError(t, err)

	found, err := store.Exists(ctx, "shard1")
	require.NoError(t, err)
	assert.False(t, found, "in-flight shard must not be visible")

	require.NoError(t, writer.Close())

	found, err = store.Exists(ctx, "shard1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestEmptyPayloadStillExists(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	writer, err := store.OpenWrite(ctx, "empty")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	found, err := store.Exists(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, found)

	size, err := store.Size(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestRewriteReplacesPayload(t *testing.T) {
	store := newTestStore(t, 4)
	ctx := context.Background()

	for _, payload := range []string{"first payload", "2nd"} {
		writer, err := store.OpenWrite(ctx, "shard1")
		require.NoError(t, err)
		_, err = io.Copy(writer, bytes.NewReader([]byte(payload)))
		require.NoError(t, err)
		require.NoError(t, writer.Close())
	}

	reader, err := store.OpenRead(ctx, "shard1")
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "2nd", string(got))
}

func TestUnlink(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	assert.ErrorIs(t, store.Unlink(ctx, "missing"), contract.ErrNotFound)

	writer, err := store.OpenWrite(ctx, "shard1")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	require.NoError(t, store.Unlink(ctx, "shard1"))
	assert.ErrorIs(t, store.Unlink(ctx, "shard1"), contract.ErrNotFound)
}

func TestOpenReadMissing(t *testing.T) {
	store := newTestStore(t, 8)
	_, err := store.OpenRead(context.Background(), "missing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestUnsafePhysicalKeys(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	for _, fskey := range []string{"", "..", "a/b", "x.partial"} {
		found, err := store.Exists(ctx, fskey)
		require.NoError(t, err)
		assert.False(t, found, "unsafe key %q must read as absent", fskey)

		_, err = store.OpenWrite(ctx, fskey)
		assert.Error(t, err, "unsafe key %q must not be writable", fskey)
	}
}

func TestTotalSizeSkipsStaging(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	writer, err := store.OpenWrite(ctx, "done")
	require.NoError(t, err)
	_, err = writer.Write([]byte("12345"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	inflight, err := store.OpenWrite(ctx, "inflight")
	require.NoError(t, err)
	_, err = inflight.Write([]byte("xxxxxxxxxx"))
	require.NoError(t, err)
	// Not closed: still staging.

	total, err := store.TotalSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestWipe(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	writer, err := store.OpenWrite(ctx, "shard1")
	require.NoError(t, err)
	_, err = writer.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	require.NoError(t, store.Wipe())

	found, err := store.Exists(ctx, "shard1")
	require.NoError(t, err)
	assert.False(t, found)

	total, err := store.TotalSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
