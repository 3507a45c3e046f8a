package adapters

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/metrics"
)

// stubAdapter returns canned results; one backend label per test keeps the
// global metric vectors independent.
type stubAdapter struct {
	keys    []string
	peekErr error
}

func (s *stubAdapter) Open(ctx context.Context) error { return nil }

func (s *stubAdapter) Close() error { return nil }

func (s *stubAdapter) Del(ctx context.Context, key string) error { return nil }

func (s *stubAdapter) Flush(ctx context.Context) error { return nil }

func (s *stubAdapter) Peek(ctx context.Context, key string) (*contract.StorageItem, error) {
	return nil, s.peekErr
}

func (s *stubAdapter) Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error) {
	return item, nil
}

func (s *stubAdapter) Get(ctx context.Context, key string) (*contract.StorageItem, error) {
	return nil, s.peekErr
}

func (s *stubAdapter) Size(ctx context.Context, key string) (int64, error) { return 0, nil }

func (s *stubAdapter) TotalSize(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubAdapter) Keys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, key := range s.keys {
			if !yield(key, nil) {
				return
			}
		}
	}
}

func opsCount(backend, op string) float64 {
	return testutil.ToFloat64(metrics.AdapterOpsTotal.WithLabelValues(backend, op))
}

func TestInstrumentedKeysCountsConstruction(t *testing.T) {
	const backend = "stub-keys"
	adapter := Instrument(&stubAdapter{keys: []string{"h1", "h2"}}, backend)
	ctx := context.Background()

	// The call is counted even if the sequence is never ranged.
	_ = adapter.Keys(ctx)
	if got := opsCount(backend, "keys"); got != 1 {
		t.Fatalf("keys ops after unconsumed call = %v, want 1", got)
	}

	seen := 0
	for _, err := range adapter.Keys(ctx) {
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		seen++
	}
	if seen != 2 {
		t.Errorf("consumed %d keys, want 2", seen)
	}
	// Consumption must not double-count the call.
	if got := opsCount(backend, "keys"); got != 2 {
		t.Errorf("keys ops after two calls = %v, want 2", got)
	}
}

func TestInstrumentedErrorKinds(t *testing.T) {
	const backend = "stub-errors"
	adapter := Instrument(&stubAdapter{peekErr: contract.ErrNotFound}, backend)

	if _, err := adapter.Peek(context.Background(), "h1"); !errors.Is(err, contract.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues(backend, "peek", "not_found"))
	if got != 1 {
		t.Errorf("not_found errors = %v, want 1", got)
	}
	if ops := opsCount(backend, "peek"); ops != 1 {
		t.Errorf("peek ops = %v, want 1", ops)
	}
}

func TestErrKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: contract.ErrNotFound, want: "not_found"},
		{err: contract.ErrCorrupt, want: "corrupt"},
		{err: contract.ErrUnavailable, want: "unavailable"},
		{err: contract.ErrNotOpen, want: "not_open"},
		{err: contract.ErrInvalidConfig, want: "invalid_config"},
		{err: errors.New("boom"), want: "other"},
	}
	for _, tt := range tests {
		if got := errKind(tt.err); got != tt.want {
			t.Errorf("errKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
