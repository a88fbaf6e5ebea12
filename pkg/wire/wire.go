// Package wire implements the fixed-width framing shared by the settings file
// and the pack file: big and little endian integers, IEEE-754 doubles and
// length-prefixed UTF-8 strings.
//
// Read failures are reported as coded errors from pkg/errors: a truncated
// stream yields ErrShortRead and invalid string bytes yield ErrUTF8Decode.
package wire

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/arthur-debert/nmm/pkg/errors"
)

// Reader decodes values from an underlying stream. It never reads ahead, so
// a caller can stop after any field without consuming the rest of the stream.
type Reader struct {
	r    io.Reader
	read int64
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Consumed reports how many bytes have been read so far.
func (r *Reader) Consumed() int64 {
	return r.read
}

func (r *Reader) fill(buf []byte) error {
	n, err := io.ReadFull(r.r, buf)
	r.read += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Newf(errors.ErrShortRead, "wanted %d bytes, got %d", len(buf), n).
				WithDetail("offset", r.read-int64(n))
		}
		return errors.Wrap(err, errors.ErrFileAccess, "reading")
	}
	return nil
}

// Uint32 reads a 4-byte integer in the given byte order.
func (r *Reader) Uint32(order binary.ByteOrder) (uint32, error) {
	var buf [4]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint32(buf[:]), nil
}

// Uint64 reads an 8-byte integer in the given byte order.
func (r *Reader) Uint64(order binary.ByteOrder) (uint64, error) {
	var buf [8]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint64(buf[:]), nil
}

// Float64 reads an 8-byte IEEE-754 double in the given byte order.
func (r *Reader) Float64(order binary.ByteOrder) (float64, error) {
	bits, err := r.Uint64(order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// Bytes reads exactly n bytes. The buffer grows with the data actually
// received, so a bogus length in a corrupt header cannot force a huge
// allocation up front.
func (r *Reader) Bytes(n uint64) ([]byte, error) {
	if n > math.MaxInt64 {
		return nil, errors.Newf(errors.ErrShortRead, "length %d exceeds any possible input", n)
	}
	buf, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	r.read += int64(len(buf))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "reading")
	}
	if uint64(len(buf)) != n {
		return nil, errors.Newf(errors.ErrShortRead, "wanted %d bytes, got %d", n, len(buf)).
			WithDetail("offset", r.read-int64(len(buf)))
	}
	return buf, nil
}

// String32 reads a string prefixed by a 4-byte length.
func (r *Reader) String32(order binary.ByteOrder) (string, error) {
	n, err := r.Uint32(order)
	if err != nil {
		return "", errors.Context(err, "reading string length")
	}
	return r.text(uint64(n))
}

// String64 reads a string prefixed by an 8-byte length.
func (r *Reader) String64(order binary.ByteOrder) (string, error) {
	n, err := r.Uint64(order)
	if err != nil {
		return "", errors.Context(err, "reading string length")
	}
	return r.text(n)
}

func (r *Reader) text(n uint64) (string, error) {
	buf, err := r.Bytes(n)
	if err != nil {
		return "", errors.Context(err, "reading %d string bytes", n)
	}
	if !utf8.Valid(buf) {
		return "", errors.Newf(errors.ErrUTF8Decode, "string of %d bytes is not valid UTF-8", n)
	}
	return string(buf), nil
}

// Writer encodes values onto an underlying stream.
type Writer struct {
	w       io.Writer
	written int64
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written reports how many bytes have been written so far.
func (w *Writer) Written() int64 {
	return w.written
}

// Raw writes buf as is.
func (w *Writer) Raw(buf []byte) error {
	n, err := w.w.Write(buf)
	w.written += int64(n)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "writing")
	}
	return nil
}

// Uint32 writes a 4-byte integer in the given byte order.
func (w *Writer) Uint32(order binary.ByteOrder, v uint32) error {
	var buf [4]byte
	order.PutUint32(buf[:], v)
	return w.Raw(buf[:])
}

// Uint64 writes an 8-byte integer in the given byte order.
func (w *Writer) Uint64(order binary.ByteOrder, v uint64) error {
	var buf [8]byte
	order.PutUint64(buf[:], v)
	return w.Raw(buf[:])
}

// Float64 writes an 8-byte IEEE-754 double in the given byte order.
func (w *Writer) Float64(order binary.ByteOrder, v float64) error {
	return w.Uint64(order, math.Float64bits(v))
}

// String32 writes s prefixed by its 4-byte length.
func (w *Writer) String32(order binary.ByteOrder, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return errors.Newf(errors.ErrInvalidInput, "string of %d bytes does not fit a 32-bit length", len(s))
	}
	if err := w.Uint32(order, uint32(len(s))); err != nil {
		return err
	}
	return w.Raw([]byte(s))
}

// String64 writes s prefixed by its 8-byte length.
func (w *Writer) String64(order binary.ByteOrder, s string) error {
	if err := w.Uint64(order, uint64(len(s))); err != nil {
		return err
	}
	return w.Raw([]byte(s))
}
