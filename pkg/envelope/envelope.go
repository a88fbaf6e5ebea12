// Package envelope reads and writes the compressed container used by the
// game's settings file.
//
// On disk the container is
//
//	[u32 LE stored_size][u32 LE original_size][stored_size bytes]
//
// and the file must be exactly stored_size+8 bytes long. When stored_size
// equals original_size the payload is kept verbatim, otherwise it is a block
// produced by a Compressor that must inflate to exactly original_size bytes.
package envelope

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/wire"
)

// HeaderSize is the size of the two length fields preceding the payload.
const HeaderSize = 8

// Decompress reads a whole envelope of fileSize bytes from r and returns the
// original payload.
func Decompress(r io.Reader, fileSize int64, c Compressor) ([]byte, error) {
	logger := logging.GetLogger("envelope")
	wr := wire.NewReader(r)

	storedSize, err := wr.Uint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Context(err, "reading stored size")
	}
	if int64(storedSize)+HeaderSize != fileSize {
		return nil, errors.Newf(errors.ErrCorruptHeader,
			"file should be %d bytes according to its header, but is %d",
			int64(storedSize)+HeaderSize, fileSize).
			WithDetail("stored_size", storedSize).
			WithDetail("file_size", fileSize)
	}

	originalSize, err := wr.Uint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Context(err, "reading original size")
	}

	payload, err := wr.Bytes(uint64(storedSize))
	if err != nil {
		return nil, errors.Context(err, "reading %d payload bytes", storedSize)
	}

	logger.Debug().
		Uint32("stored_size", storedSize).
		Uint32("original_size", originalSize).
		Str("codec", c.Name()).
		Msg("Read envelope header")

	if storedSize == originalSize {
		return payload, nil
	}

	out, err := c.Decompress(payload, int(originalSize))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDecompressionFailed,
			"%s failed to inflate %d bytes to %d", c.Name(), storedSize, originalSize)
	}
	if len(out) != int(originalSize) {
		return nil, errors.Newf(errors.ErrDecompressionFailed,
			"%s inflated to %d bytes, header says %d", c.Name(), len(out), originalSize)
	}
	return out, nil
}

// DecompressBytes is Decompress over an in-memory file.
func DecompressBytes(file []byte, c Compressor) ([]byte, error) {
	return Decompress(bytes.NewReader(file), int64(len(file)), c)
}

// Compress writes payload to w as an envelope. Compression is always
// attempted; the payload is stored verbatim when it is shorter than the
// codec's minimum block or when compression does not make it smaller.
func Compress(w io.Writer, payload []byte, c Compressor) error {
	logger := logging.GetLogger("envelope")

	if uint64(len(payload)) > math.MaxUint32 {
		return errors.Newf(errors.ErrInvalidInput, "payload of %d bytes does not fit the envelope", len(payload))
	}

	stored := payload
	if len(payload) >= c.MinBlockSize() {
		compressed, err := c.Compress(payload)
		switch {
		case IsIncompressible(err):
		case err != nil:
			return errors.Wrapf(err, errors.ErrCompressionFailed, "%s failed to compress %d bytes", c.Name(), len(payload))
		case len(compressed) < len(payload):
			stored = compressed
		}
	}

	logger.Debug().
		Int("stored_size", len(stored)).
		Int("original_size", len(payload)).
		Str("codec", c.Name()).
		Msg("Writing envelope")

	ww := wire.NewWriter(w)
	if err := ww.Uint32(binary.LittleEndian, uint32(len(stored))); err != nil {
		return errors.Context(err, "writing stored size")
	}
	if err := ww.Uint32(binary.LittleEndian, uint32(len(payload))); err != nil {
		return errors.Context(err, "writing original size")
	}
	if err := ww.Raw(stored); err != nil {
		return errors.Context(err, "writing payload")
	}
	return nil
}

// CompressBytes is Compress into a fresh buffer.
func CompressBytes(payload []byte, c Compressor) ([]byte, error) {
	var buf bytes.Buffer
	if err := Compress(&buf, payload, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
