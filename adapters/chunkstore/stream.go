package chunkstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// chunkWriter splits a payload into fixed-size chunk files inside a staging
// directory and promotes the directory on Close.
type chunkWriter struct {
	staging   string
	final     string
	chunkSize int64

	seq     int
	current *os.File
	written int64
	closed  bool
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write on closed shard writer")
	}
	total := 0
	for len(p) > 0 {
		if w.current == nil {
			if err := w.nextChunk(); err != nil {
				return total, err
			}
		}
		room := w.chunkSize - w.written
		n := int64(len(p))
		if n > room {
			n = room
		}
		wrote, err := w.current.Write(p[:n])
		total += wrote
		w.written += int64(wrote)
		if err != nil {
			return total, fmt.Errorf("failed to write chunk %08d: %w", w.seq-1, err)
		}
		if w.written == w.chunkSize {
			if err := w.current.Close(); err != nil {
				return total, err
			}
			w.current = nil
			w.written = 0
		}
		p = p[n:]
	}
	return total, nil
}

func (w *chunkWriter) nextChunk() error {
	path := filepath.Join(w.staging, fmt.Sprintf("%08d", w.seq))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create chunk %08d: %w", w.seq, err)
	}
	w.seq++
	w.current = file
	w.written = 0
	return nil
}

// Close finalizes the shard: the last chunk is flushed and the staging
// directory replaces any previous payload at the final path. An empty
// payload still produces a zero-length chunk so the shard exists.
func (w *chunkWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.current == nil && w.seq == 0 {
		if err := w.nextChunk(); err != nil {
			return err
		}
	}
	if w.current != nil {
		if err := w.current.Close(); err != nil {
			return err
		}
		w.current = nil
	}
	if err := os.RemoveAll(w.final); err != nil {
		return fmt.Errorf("failed to replace shard: %w", err)
	}
	if err := os.Rename(w.staging, w.final); err != nil {
		return fmt.Errorf("failed to finalize shard: %w", err)
	}
	return nil
}

// chunkReader concatenates chunk files in sequence order.
type chunkReader struct {
	chunks  []string
	index   int
	current *os.File
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for {
		if r.current == nil {
			if r.index >= len(r.chunks) {
				return 0, io.EOF
			}
			file, err := os.Open(r.chunks[r.index])
			if err != nil {
				return 0, fmt.Errorf("failed to open chunk %s: %w", r.chunks[r.index], err)
			}
			r.index++
			r.current = file
		}
		n, err := r.current.Read(p)
		if err == io.EOF {
			if cerr := r.current.Close(); cerr != nil {
				return n, cerr
			}
			r.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *chunkReader) Close() error {
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}
