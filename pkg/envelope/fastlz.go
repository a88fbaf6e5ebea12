package envelope

import (
	"fmt"
)

// FastLZ is the codec the game uses for its settings file. Compression
// always emits level 1 blocks; decompression accepts level 1 and level 2,
// since the game switches to level 2 for inputs of 64 KiB and more.
var FastLZ Compressor = fastLZCodec{}

const (
	fastLZMinBlock = 16

	fastLZMaxCopy = 32
	// Longest match a single level 1 instruction can encode.
	fastLZMaxLen = 264
	// Longest chunk emitted when splitting a longer match.
	fastLZSplitLen = fastLZMaxLen - 2
	// Largest encodable back reference (stored as distance-1).
	fastLZMaxDistance = 8190
	// Extra distance added by level 2 far matches.
	fastLZL2MaxDistance = 8191

	fastLZHashLog = 13
)

type fastLZCodec struct{}

func (fastLZCodec) Name() string { return "fastlz" }

// MinBlockSize mirrors the reference library, which refuses inputs shorter
// than 16 bytes.
func (fastLZCodec) MinBlockSize() int { return fastLZMinBlock }

func (fastLZCodec) Compress(src []byte) ([]byte, error) {
	if len(src) < fastLZMinBlock {
		return nil, errIncompressible
	}
	out := fastLZCompress(src)
	if len(out) >= len(src) {
		return nil, errIncompressible
	}
	return out, nil
}

func (fastLZCodec) Decompress(src []byte, originalSize int) ([]byte, error) {
	return fastLZDecompress(src, originalSize)
}

func fastLZHash(p []byte) uint32 {
	v := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	return (v * 2654435761) >> (32 - fastLZHashLog)
}

// fastLZCompress produces a level 1 stream. Match search is greedy over a
// single-entry hash table. The last bytes of the input are always emitted
// as literals, like the reference encoder does.
func fastLZCompress(src []byte) []byte {
	n := len(src)
	out := make([]byte, 0, n+n/fastLZMaxCopy+1)

	var table [1 << fastLZHashLog]int32
	ipBound := n - 2
	ipLimit := n - 12

	anchor := 0
	ip := 0
	for ip < ipLimit {
		h := fastLZHash(src[ip:])
		ref := int(table[h]) - 1
		table[h] = int32(ip + 1)

		distance := ip - ref - 1
		if ref < 0 || distance > fastLZMaxDistance ||
			src[ref] != src[ip] || src[ref+1] != src[ip+1] || src[ref+2] != src[ip+2] {
			ip++
			continue
		}

		length := 3
		for ip+length < ipBound && src[ref+length] == src[ip+length] {
			length++
		}

		out = fastLZLiterals(out, src[anchor:ip])
		out = fastLZMatch(out, length, distance)
		ip += length
		anchor = ip
	}
	return fastLZLiterals(out, src[anchor:])
}

func fastLZLiterals(out, lit []byte) []byte {
	for len(lit) > 0 {
		run := len(lit)
		if run > fastLZMaxCopy {
			run = fastLZMaxCopy
		}
		out = append(out, byte(run-1))
		out = append(out, lit[:run]...)
		lit = lit[run:]
	}
	return out
}

func fastLZMatch(out []byte, length, distance int) []byte {
	for length > fastLZMaxLen {
		out = append(out, byte(7<<5|distance>>8), byte(fastLZSplitLen-9), byte(distance))
		length -= fastLZSplitLen
	}
	if length < 9 {
		return append(out, byte((length-2)<<5|distance>>8), byte(distance))
	}
	return append(out, byte(7<<5|distance>>8), byte(length-9), byte(distance))
}

// fastLZDecompress inflates a level 1 or level 2 stream into exactly size
// bytes. Every read and back reference is bounds checked.
func fastLZDecompress(src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("fastlz: empty block")
	}
	level := src[0]>>5 + 1
	if level != 1 && level != 2 {
		return nil, fmt.Errorf("fastlz: unknown compression level %d", level)
	}

	if size > len(src)*maxExpansion {
		return nil, fmt.Errorf("fastlz: %d bytes cannot inflate to %d", len(src), size)
	}
	out := make([]byte, 0, min(size, len(src)*4))
	ip := 0
	next := func() (int, error) {
		if ip >= len(src) {
			return 0, fmt.Errorf("fastlz: block truncated at offset %d", ip)
		}
		b := src[ip]
		ip++
		return int(b), nil
	}

	ctrl := int(src[0] & 31)
	ip = 1
	for {
		if ctrl >= 32 {
			length := ctrl>>5 - 1
			offset := (ctrl & 31) << 8
			if length == 6 {
				for {
					code, err := next()
					if err != nil {
						return nil, err
					}
					length += code
					if level == 1 || code != 255 {
						break
					}
				}
			}
			code, err := next()
			if err != nil {
				return nil, err
			}
			ref := len(out) - offset - code - 1
			length += 3

			if level == 2 && code == 255 && offset == 31<<8 {
				hi, err := next()
				if err != nil {
					return nil, err
				}
				lo, err := next()
				if err != nil {
					return nil, err
				}
				ref = len(out) - (hi<<8 | lo) - fastLZL2MaxDistance - 1
			}

			if ref < 0 {
				return nil, fmt.Errorf("fastlz: back reference before start of output at offset %d", ip)
			}
			if len(out)+length > size {
				return nil, fmt.Errorf("fastlz: output exceeds %d bytes", size)
			}
			// Byte by byte: the source may overlap what is being written.
			for k := 0; k < length; k++ {
				out = append(out, out[ref+k])
			}
		} else {
			run := ctrl + 1
			if ip+run > len(src) {
				return nil, fmt.Errorf("fastlz: literal run of %d overruns block at offset %d", run, ip)
			}
			if len(out)+run > size {
				return nil, fmt.Errorf("fastlz: output exceeds %d bytes", size)
			}
			out = append(out, src[ip:ip+run]...)
			ip += run
		}

		if ip >= len(src) {
			break
		}
		ctrl = int(src[ip])
		ip++
	}

	if len(out) != size {
		return nil, fmt.Errorf("fastlz: inflated to %d bytes, expected %d", len(out), size)
	}
	return out, nil
}
