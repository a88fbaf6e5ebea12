// pkg/envelope/envelope_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (in-memory buffers)
// PURPOSE: Round trips and header validation for the compressed container

package envelope_test

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(file []byte) (stored, original uint32) {
	return binary.LittleEndian.Uint32(file[0:4]), binary.LittleEndian.Uint32(file[4:8])
}

func payloads() map[string][]byte {
	rng := rand.New(rand.NewSource(7))
	random := make([]byte, 10*1024)
	rng.Read(random)

	repetitive := make([]byte, 64*1024)
	for i := range repetitive {
		repetitive[i] = byte(i % 17)
	}

	return map[string][]byte{
		"empty":        {},
		"one_byte":     {42},
		"below_block":  []byte("fifteen bytes!!"),
		"exact_block":  bytes.Repeat([]byte{0}, 16),
		"zeros_17":     bytes.Repeat([]byte{0}, 17),
		"unicode":      []byte("￴ ￴⁀ࠀ\x00\x00\x00\x00"),
		"text":         bytes.Repeat([]byte("mod_setting.some_mod.enabled = true\n"), 50),
		"random_10k":   random,
		"periodic_64k": repetitive,
		"long_run":     bytes.Repeat([]byte{'x'}, 5000),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range []envelope.Compressor{envelope.FastLZ, envelope.LZ4} {
		for name, payload := range payloads() {
			t.Run(codec.Name()+"/"+name, func(t *testing.T) {
				file, err := envelope.CompressBytes(payload, codec)
				require.NoError(t, err)

				stored, original := header(file)
				assert.Equal(t, uint32(len(payload)), original)
				assert.Equal(t, int(stored)+envelope.HeaderSize, len(file))
				assert.LessOrEqual(t, int(stored), len(payload))

				got, err := envelope.DecompressBytes(file, codec)
				require.NoError(t, err)
				assert.Equal(t, len(payload), len(got))
				assert.True(t, bytes.Equal(payload, got))
			})
		}
	}
}

func TestRoundTripProperty(t *testing.T) {
	for _, codec := range []envelope.Compressor{envelope.FastLZ, envelope.LZ4} {
		t.Run(codec.Name(), func(t *testing.T) {
			property := func(payload []byte, repeat uint8) bool {
				// Repeating the input gives the match finder something to do.
				data := bytes.Repeat(payload, int(repeat%8)+1)
				file, err := envelope.CompressBytes(data, codec)
				if err != nil {
					return false
				}
				got, err := envelope.DecompressBytes(file, codec)
				return err == nil && bytes.Equal(data, got)
			}
			require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 300}))
		})
	}
}

func TestCompressibleInputIsCompressed(t *testing.T) {
	payload := payloads()["periodic_64k"]
	for _, codec := range []envelope.Compressor{envelope.FastLZ, envelope.LZ4} {
		file, err := envelope.CompressBytes(payload, codec)
		require.NoError(t, err)

		stored, original := header(file)
		assert.Less(t, stored, original, codec.Name())
	}
}

func TestShortAndIncompressibleInputsAreStoredVerbatim(t *testing.T) {
	for _, name := range []string{"below_block", "random_10k", "empty"} {
		payload := payloads()[name]
		file, err := envelope.CompressBytes(payload, envelope.FastLZ)
		require.NoError(t, err)

		stored, original := header(file)
		assert.Equal(t, stored, original, name)
		assert.Equal(t, payload, file[envelope.HeaderSize:], name)
	}
}

func TestDecompressErrors(t *testing.T) {
	valid, err := envelope.CompressBytes(payloads()["text"], envelope.FastLZ)
	require.NoError(t, err)
	stored, original := header(valid)
	require.Less(t, stored, original)

	tests := []struct {
		name     string
		file     []byte
		fileSize int64
		code     errors.ErrorCode
	}{
		{
			name:     "size_mismatch",
			file:     valid,
			fileSize: int64(len(valid)) + 1,
			code:     errors.ErrCorruptHeader,
		},
		{
			name:     "truncated_header",
			file:     []byte{1, 0},
			fileSize: 2,
			code:     errors.ErrShortRead,
		},
		{
			name:     "truncated_verbatim_payload",
			file:     []byte{4, 0, 0, 0, 4, 0, 0, 0, 'a', 'b'},
			fileSize: 12,
			code:     errors.ErrShortRead,
		},
		{
			name: "garbage_block",
			file: func() []byte {
				bad := append([]byte(nil), valid...)
				// A back reference at the very start of the block.
				bad[envelope.HeaderSize] = 0xff
				return bad
			}(),
			fileSize: int64(len(valid)),
			code:     errors.ErrDecompressionFailed,
		},
		{
			name: "original_size_lies",
			file: func() []byte {
				bad := append([]byte(nil), valid...)
				binary.LittleEndian.PutUint32(bad[4:8], original+10)
				return bad
			}(),
			fileSize: int64(len(valid)),
			code:     errors.ErrDecompressionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := envelope.Decompress(bytes.NewReader(tt.file), tt.fileSize, envelope.FastLZ)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err), err.Error())
		})
	}
}

func TestDecompressRejectsImplausibleOriginalSize(t *testing.T) {
	file := []byte{4, 0, 0, 0, 0xf0, 0xff, 0xff, 0xff, 0x03, 'a', 'b', 'c'}
	for _, name := range envelope.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := envelope.Lookup(name)
			require.NoError(t, err)
			_, err = envelope.DecompressBytes(file, c)
			require.Error(t, err)
			assert.Equal(t, errors.ErrDecompressionFailed, errors.GetErrorCode(err))
			assert.Contains(t, err.Error(), "cannot inflate")
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range envelope.Names() {
		c, err := envelope.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	_, err := envelope.Lookup("gzip")
	assert.Error(t, err)
	assert.Equal(t, []string{"fastlz", "lz4"}, envelope.Names())
}
