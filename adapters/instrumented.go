package adapters

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/metrics"
)

// Instrument wraps an adapter so every operation is counted and timed under
// the given backend label. Enumeration errors are recorded when the sequence
// terminates.
func Instrument(next Adapter, backend string) Adapter {
	return &instrumented{next: next, backend: backend}
}

type instrumented struct {
	next    Adapter
	backend string
}

func (in *instrumented) observe(op string, start time.Time, err error) {
	metrics.AdapterOpsTotal.WithLabelValues(in.backend, op).Inc()
	metrics.AdapterOpDuration.WithLabelValues(in.backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(in.backend, op, errKind(err)).Inc()
	}
}

// errKind maps an operation error to its metric label.
func errKind(err error) string {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		return "not_found"
	case errors.Is(err, contract.ErrCorrupt):
		return "corrupt"
	case errors.Is(err, contract.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, contract.ErrNotOpen):
		return "not_open"
	case errors.Is(err, contract.ErrInvalidConfig):
		return "invalid_config"
	default:
		return "other"
	}
}

func (in *instrumented) Open(ctx context.Context) error {
	start := time.Now()
	err := in.next.Open(ctx)
	in.observe("open", start, err)
	return err
}

func (in *instrumented) Close() error {
	start := time.Now()
	err := in.next.Close()
	in.observe("close", start, err)
	return err
}

func (in *instrumented) Peek(ctx context.Context, key string) (*contract.StorageItem, error) {
	start := time.Now()
	item, err := in.next.Peek(ctx, key)
	in.observe("peek", start, err)
	return item, err
}

func (in *instrumented) Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error) {
	start := time.Now()
	rec, err := in.next.Put(ctx, key, item)
	in.observe("put", start, err)
	return rec, err
}

func (in *instrumented) Get(ctx context.Context, key string) (*contract.StorageItem, error) {
	start := time.Now()
	item, err := in.next.Get(ctx, key)
	in.observe("get", start, err)
	return item, err
}

func (in *instrumented) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := in.next.Del(ctx, key)
	in.observe("del", start, err)
	return err
}

func (in *instrumented) Size(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := in.next.Size(ctx, key)
	in.observe("size", start, err)
	return n, err
}

func (in *instrumented) TotalSize(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := in.next.TotalSize(ctx)
	in.observe("total_size", start, err)
	return n, err
}

// Keys counts the call when the sequence is constructed; duration and
// terminal errors are recorded when the consumer finishes ranging it.
func (in *instrumented) Keys(ctx context.Context) iter.Seq2[string, error] {
	metrics.AdapterOpsTotal.WithLabelValues(in.backend, "keys").Inc()
	inner := in.next.Keys(ctx)
	return func(yield func(string, error) bool) {
		start := time.Now()
		var seqErr error
		defer func() {
			metrics.AdapterOpDuration.WithLabelValues(in.backend, "keys").Observe(time.Since(start).Seconds())
			if seqErr != nil {
				metrics.ErrorsTotal.WithLabelValues(in.backend, "keys", errKind(seqErr)).Inc()
			}
		}()
		for key, err := range inner {
			if err != nil {
				seqErr = err
			}
			if !yield(key, err) {
				return
			}
		}
	}
}

func (in *instrumented) Flush(ctx context.Context) error {
	start := time.Now()
	err := in.next.Flush(ctx)
	in.observe("flush", start, err)
	return err
}
