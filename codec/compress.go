package codec

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressed artifacts carry a small header in front of the payload:
// [UncompressedSize uint32][CompressedSize uint32][Data...]
// If CompressedSize == 0, the payload is stored uncompressed (the block was
// incompressible or compression did not help).
const blockHeaderSize = 8

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Zstd composes a base codec with zstd compression. Better ratio than LZ4,
// the right default for cold artifacts.
//
// A nil Base falls back to Default.
type Zstd struct {
	Base Codec
}

func (z Zstd) base() Codec {
	if z.Base == nil {
		return Default
	}
	return z.Base
}

// Marshal encodes the value with the base codec and compresses the payload.
func (z Zstd) Marshal(v any) ([]byte, error) {
	plain, err := z.base().Marshal(v)
	if err != nil {
		return nil, err
	}

	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return frame(plain, enc.EncodeAll(plain, nil)), nil
}

// Unmarshal decompresses the payload and decodes it with the base codec.
func (z Zstd) Unmarshal(data []byte, v any) error {
	plain, compressed, err := unframe(data)
	if err != nil {
		return err
	}

	if compressed != nil {
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(compressed, plain[:0])
		if err != nil {
			return err
		}
		if len(decoded) != len(plain) {
			return errors.New("decompressed size mismatch")
		}
		plain = decoded
	}

	return z.base().Unmarshal(plain, v)
}

// Name returns the composed codec name, e.g. "go-json+zstd".
func (z Zstd) Name() string { return z.base().Name() + "+zstd" }

// LZ4 composes a base codec with LZ4 block compression. Faster than zstd at
// a lower ratio, the right choice when artifacts are re-read often.
//
// A nil Base falls back to Default.
type LZ4 struct {
	Base Codec
}

func (l LZ4) base() Codec {
	if l.Base == nil {
		return Default
	}
	return l.Base
}

// Marshal encodes the value with the base codec and compresses the payload.
func (l LZ4) Marshal(v any) ([]byte, error) {
	plain, err := l.base().Marshal(v)
	if err != nil {
		return nil, err
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(plain)))
	n, err := lz4.CompressBlock(plain, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible
		return frame(plain, nil), nil
	}

	return frame(plain, compressed[:n]), nil
}

// Unmarshal decompresses the payload and decodes it with the base codec.
func (l LZ4) Unmarshal(data []byte, v any) error {
	plain, compressed, err := unframe(data)
	if err != nil {
		return err
	}

	if compressed != nil {
		n, err := lz4.UncompressBlock(compressed, plain)
		if err != nil {
			return err
		}
		if n != len(plain) {
			return errors.New("decompressed size mismatch")
		}
	}

	return l.base().Unmarshal(plain, v)
}

// Name returns the composed codec name, e.g. "go-json+lz4".
func (l LZ4) Name() string { return l.base().Name() + "+lz4" }

// frame prefixes the payload with the block header, falling back to the
// uncompressed payload when compression does not help.
func frame(plain, compressed []byte) []byte {
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(plain))*0.9 {
		result := make([]byte, blockHeaderSize+len(plain))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(plain)))
		binary.LittleEndian.PutUint32(result[4:], 0) // 0 = uncompressed
		copy(result[blockHeaderSize:], plain)
		return result
	}

	result := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(plain)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[blockHeaderSize:], compressed)
	return result
}

// unframe parses the block header. For uncompressed payloads it returns
// (plain, nil, nil); for compressed ones, plain is sized to the recorded
// uncompressed length and the caller decompresses into it.
func unframe(data []byte) (plain, compressed []byte, err error) {
	if len(data) < blockHeaderSize {
		return nil, nil, errors.New("block too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])

	if compressedSize == 0 {
		if uint32(len(data)) < blockHeaderSize+uncompressedSize {
			return nil, nil, errors.New("block data too small")
		}
		return data[blockHeaderSize : blockHeaderSize+uncompressedSize], nil, nil
	}

	if uint32(len(data)) < blockHeaderSize+compressedSize {
		return nil, nil, errors.New("compressed block data too small")
	}

	return make([]byte, uncompressedSize), data[blockHeaderSize : blockHeaderSize+compressedSize], nil
}
