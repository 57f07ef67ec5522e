// Package decode provides the framed-decoder contract that drives a
// grammar against an incrementally filled byte buffer.
//
// The contract is deliberately grammar-agnostic: anything that can pull
// one complete item out of a growing []byte buffer satisfies Decoder,
// whether that item is a raw syslog frame or a fully parsed record. The
// same FramedReader drives octet-counted framing, newline framing, and
// field-level grammars without caring which one it's holding.
package decode

import (
	"bufio"
	"bytes"
	"io"
)

// Decoder incrementally decodes items of type T out of buf.
//
// Decode inspects buf without assuming it holds a whole item. It returns
// exactly one of three outcomes:
//
//   - ok == true, err == nil: one item was found and consumed; buf has
//     been advanced past the bytes that made up the item.
//   - ok == false, err == nil: buf does not yet hold a complete item.
//     buf is left untouched; the caller should read more bytes and try
//     again.
//   - err != nil: the bytes already in buf can never form a valid item.
//     buf's state after an error is decoder-specific; implementations
//     that can resynchronize should also implement Recoverer.
type Decoder[T any] interface {
	Decode(buf *bytes.Buffer) (item T, ok bool, err error)
}

// Recoverer is implemented by decoders that know how to resynchronize
// their buffer after a Decode error, instead of forcing the caller to
// tear down the whole stream. Newline framing can always find the next
// delimiter and keep going; octet-counted framing generally cannot,
// since a corrupted length field poisons every byte that follows it.
type Recoverer interface {
	// Recover discards bytes from buf up to (and including) the next
	// resynchronization point. It reports whether resynchronization was
	// possible; if false, the caller should treat the stream as unusable.
	Recover(buf *bytes.Buffer) bool
}

// FramedReader pulls a sequence of items of type T out of an io.Reader,
// growing an internal buffer only as far as each Decode call demands.
type FramedReader[T any] struct {
	r   *bufio.Reader
	dec Decoder[T]
	buf bytes.Buffer

	chunk []byte
}

// NewFramedReader returns a FramedReader that reads raw bytes from r and
// decodes them with dec.
func NewFramedReader[T any](r io.Reader, dec Decoder[T]) *FramedReader[T] {
	return &FramedReader[T]{
		r:     bufio.NewReader(r),
		dec:   dec,
		chunk: make([]byte, 4096),
	}
}

// Next returns the next decoded item.
//
// It returns io.EOF once the underlying reader is exhausted and no
// partial item remains buffered. A non-nil, non-EOF error means the
// decoder hit bytes it could not parse and could not (or chose not to)
// resynchronize; the caller should treat the stream as unusable.
func (f *FramedReader[T]) Next() (T, error) {
	for {
		item, ok, err := f.dec.Decode(&f.buf)
		if err != nil {
			if rec, isRecoverer := f.dec.(Recoverer); isRecoverer && rec.Recover(&f.buf) {
				continue
			}
			var zero T
			return zero, err
		}
		if ok {
			return item, nil
		}

		if err := f.fill(); err != nil {
			var zero T
			return zero, err
		}
	}
}

// fill reads one chunk of bytes from the underlying reader into buf.
// It returns io.EOF only when the buffer is empty and the stream ended;
// an EOF hit mid-item is surfaced to the caller as io.ErrUnexpectedEOF
// so a partially buffered item isn't silently discarded.
func (f *FramedReader[T]) fill() error {
	n, err := f.r.Read(f.chunk)
	if n > 0 {
		f.buf.Write(f.chunk[:n])
	}
	if err != nil {
		if err == io.EOF && f.buf.Len() > 0 {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
