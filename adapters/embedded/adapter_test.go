package embedded

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebogdum/shardstore/adapters"
	"github.com/ebogdum/shardstore/contract"
)

func newOpenAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(t.TempDir(), 8, false, nil)
	require.NoError(t, err)
	require.NoError(t, adapter.Open(context.Background()))
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func testItem() *contract.StorageItem {
	return &contract.StorageItem{
		Contracts: map[string]json.RawMessage{
			"node-a": json.RawMessage(`{"duration":90}`),
		},
	}
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("", 0, false, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidConfig)
}

func TestOperationsRequireOpen(t *testing.T) {
	adapter, err := New(t.TempDir(), 0, false, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = adapter.Peek(ctx, "h1")
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	_, err = adapter.Put(ctx, "h1", testItem())
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	_, err = adapter.Get(ctx, "h1")
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	assert.ErrorIs(t, adapter.Del(ctx, "h1"), contract.ErrNotOpen)
	_, err = adapter.Size(ctx, "h1")
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	_, err = adapter.TotalSize(ctx)
	assert.ErrorIs(t, err, contract.ErrNotOpen)
	assert.ErrorIs(t, adapter.Flush(ctx), contract.ErrNotOpen)

	var keysErr error
	for _, err := range adapter.Keys(ctx) {
		keysErr = err
	}
	assert.ErrorIs(t, keysErr, contract.ErrNotOpen)
}

func TestOpenCloseLifecycle(t *testing.T) {
	adapter, err := New(t.TempDir(), 0, false, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, adapter.Open(ctx))
	require.NoError(t, adapter.Open(ctx), "Open must be idempotent")

	_, err = adapter.Put(ctx, "h1", testItem())
	require.NoError(t, err)

	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.Close(), "Close must be idempotent")

	_, err = adapter.Peek(ctx, "h1")
	assert.ErrorIs(t, err, contract.ErrNotOpen)

	// Reopen: previously written records must still be there.
	require.NoError(t, adapter.Open(ctx))
	defer adapter.Close()
	item, err := adapter.Peek(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", item.Hash)
}

func TestGetOrCreateRoundTrip(t *testing.T) {
	adapter := newOpenAdapter(t)
	ctx := context.Background()

	stored, err := adapter.Put(ctx, "h1", testItem())
	require.NoError(t, err)
	assert.Equal(t, adapters.Derive("h1"), stored.FSKey)

	item, err := adapter.Get(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, contract.ModeWrite, item.Shard.Mode())

	writer, err := item.Shard.Writer()
	require.NoError(t, err)
	// 20 bytes across 8-byte chunks
	_, err = writer.Write([]byte("0123456789abcdefghij"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	item, err = adapter.Get(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, contract.ModeRead, item.Shard.Mode())

	reader, err := item.Shard.Reader()
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdefghij", string(data))

	size, err := adapter.Size(ctx, "h1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, size, int64(20))
}

func TestDelIsIdempotent(t *testing.T) {
	adapter := newOpenAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Del(ctx, "never-existed"))

	_, err := adapter.Put(ctx, "h1", testItem())
	require.NoError(t, err)

	item, err := adapter.Get(ctx, "h1")
	require.NoError(t, err)
	writer, err := item.Shard.Writer()
	require.NoError(t, err)
	_, err = writer.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	require.NoError(t, adapter.Del(ctx, "h1"))
	require.NoError(t, adapter.Del(ctx, "h1"))

	_, err = adapter.Get(ctx, "h1")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestKeysAndFlush(t *testing.T) {
	adapter := newOpenAdapter(t)
	ctx := context.Background()

	for _, key := range []string{"h1", "h2", "h3"} {
		_, err := adapter.Put(ctx, key, testItem())
		require.NoError(t, err)
	}
	require.NoError(t, adapter.Del(ctx, "h2"))

	got := map[string]bool{}
	for key, err := range adapter.Keys(ctx) {
		require.NoError(t, err)
		got[key] = true
	}
	assert.Equal(t, map[string]bool{"h1": true, "h3": true}, got)

	require.NoError(t, adapter.Flush(ctx))

	count := 0
	for _, err := range adapter.Keys(ctx) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 0, count)

	// Store must remain usable after a flush.
	_, err := adapter.Put(ctx, "h4", testItem())
	require.NoError(t, err)
}

func TestTotalSizeGrowsWithShards(t *testing.T) {
	adapter := newOpenAdapter(t)
	ctx := context.Background()

	before, err := adapter.TotalSize(ctx)
	require.NoError(t, err)

	_, err = adapter.Put(ctx, "h1", testItem())
	require.NoError(t, err)
	item, err := adapter.Get(ctx, "h1")
	require.NoError(t, err)
	writer, err := item.Shard.Writer()
	require.NoError(t, err)
	_, err = writer.Write(make([]byte, 100))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	after, err := adapter.TotalSize(ctx)
	require.NoError(t, err)
	// The metadata component is an engine estimate; the shard component is
	// exact, so the total must grow by at least the payload.
	assert.GreaterOrEqual(t, after, before+100)
}
