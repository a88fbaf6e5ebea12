package envelope

import (
	"fmt"
	"sort"

	"github.com/pierrec/lz4/v4"
)

// Compressor is a byte-oriented block codec.
type Compressor interface {
	// Name is the identifier used in configuration.
	Name() string
	// MinBlockSize is the shortest input the codec accepts. Shorter
	// payloads are stored verbatim by the envelope.
	MinBlockSize() int
	// Compress returns the compressed block, or an error satisfying
	// IsIncompressible when the output would not be smaller.
	Compress(src []byte) ([]byte, error)
	// Decompress inflates src, which must produce exactly originalSize bytes.
	Decompress(src []byte, originalSize int) ([]byte, error)
}

// errIncompressible is returned by Compress when the output is not smaller
// than the input. The envelope falls back to storing the payload verbatim.
var errIncompressible = fmt.Errorf("data is incompressible")

// IsIncompressible returns true if the error indicates that data could not
// be compressed smaller than its original size.
func IsIncompressible(err error) bool {
	return err == errIncompressible
}

var codecs = map[string]Compressor{
	FastLZ.Name(): FastLZ,
	LZ4.Name():    LZ4,
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Compressor, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (known: %v)", name, Names())
	}
	return c, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LZ4 is an LZ4 block codec. Files written with it are only readable by
// nmm, not by the game.
var LZ4 Compressor = lz4Codec{}

// maxExpansion bounds how many output bytes one input byte can produce in
// either block format. Sizes from a file header beyond it are rejected
// before anything is allocated.
const maxExpansion = 255

type lz4Codec struct{}

func (lz4Codec) Name() string      { return "lz4" }
func (lz4Codec) MinBlockSize() int { return 1 }

func (lz4Codec) Compress(src []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(src)))

	written, err := lz4.CompressBlock(src, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is incompressible.
	if written == 0 || written >= len(src) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func (lz4Codec) Decompress(src []byte, originalSize int) ([]byte, error) {
	if originalSize > len(src)*maxExpansion {
		return nil, fmt.Errorf("lz4 decompress: %d bytes cannot inflate to %d", len(src), originalSize)
	}
	destination := make([]byte, originalSize)
	read, err := lz4.UncompressBlock(src, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != originalSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, originalSize)
	}
	return destination, nil
}
