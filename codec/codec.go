// Package codec centralizes run artifact encoding.
//
// Entigo intentionally treats codec selection as a breaking-change boundary:
// if you change codecs, persisted artifacts created by older codecs may no
// longer decode. Artifacts are self-describing - the artifact key suffix
// records the codec name, and ByName resolves it on read.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Compressed variants compose a base codec with a compression suffix,
// e.g. "go-json+zstd" or "json+lz4".
func ByName(name string) (Codec, bool) {
	base, compression, _ := strings.Cut(name, "+")

	var c Codec
	switch base {
	case "json":
		c = JSON{}
	case "go-json":
		c = GoJSON{}
	default:
		return nil, false
	}

	switch compression {
	case "":
		return c, true
	case "zstd":
		return Zstd{Base: c}, true
	case "lz4":
		return LZ4{Base: c}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
