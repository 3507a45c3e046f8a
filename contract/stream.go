package contract

import (
	"fmt"
	"io"
)

// StreamMode indicates whether a shard stream reads an existing payload or
// accepts the payload for a shard that has not been written yet.
type StreamMode int

const (
	// ModeRead means the shard exists and the stream yields its bytes.
	ModeRead StreamMode = iota

	// ModeWrite means no shard exists yet and the caller is expected to
	// write the payload through the stream.
	ModeWrite
)

func (m StreamMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ModeFor maps the shard existence probe result to the stream mode Get must
// attach: an existing shard is read, a missing one is allocated for write.
func ModeFor(found bool) StreamMode {
	if found {
		return ModeRead
	}
	return ModeWrite
}

// ShardStream is a lazily-opened handle over shard payload bytes. The
// underlying backend resource is acquired only when Reader or Writer is
// called; the caller owns the returned stream and must close it.
type ShardStream struct {
	mode      StreamMode
	openRead  func() (io.ReadCloser, error)
	openWrite func() (io.WriteCloser, error)
}

// NewReadStream returns a stream over an existing shard payload.
func NewReadStream(open func() (io.ReadCloser, error)) *ShardStream {
	return &ShardStream{mode: ModeRead, openRead: open}
}

// NewWriteStream returns a stream that accepts the payload for a shard that
// has not been written yet.
func NewWriteStream(open func() (io.WriteCloser, error)) *ShardStream {
	return &ShardStream{mode: ModeWrite, openWrite: open}
}

// Mode reports whether the stream reads an existing shard or writes a new one.
func (s *ShardStream) Mode() StreamMode {
	return s.mode
}

// Reader opens the underlying payload for reading.
func (s *ShardStream) Reader() (io.ReadCloser, error) {
	if s.mode != ModeRead {
		return nil, fmt.Errorf("shard stream is %s-mode, not readable", s.mode)
	}
	return s.openRead()
}

// Writer opens the underlying payload for writing. The shard becomes visible
// to subsequent Get calls once the writer is closed and the backend has
// durably stored it.
func (s *ShardStream) Writer() (io.WriteCloser, error) {
	if s.mode != ModeWrite {
		return nil, fmt.Errorf("shard stream is %s-mode, not writable", s.mode)
	}
	return s.openWrite()
}

// MarshalJSON keeps the wire invariant that payload bytes never appear inside
// a contract record.
func (s *ShardStream) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON tolerates legacy records that persisted a non-null shard
// field; whatever was stored is discarded.
func (s *ShardStream) UnmarshalJSON([]byte) error {
	return nil
}
