package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the value compression algorithm of a CompressedStore.
type Compression uint8

const (
	// CompressionNone stores values verbatim (with a frame header).
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot profiles).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, good for remote stores).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name ("none", "lz4", "zstd") to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("kv: unknown compression %q", name)
	}
}

// ErrCorruptFrame is returned when a stored value is not a valid frame.
var ErrCorruptFrame = errors.New("kv: corrupt compressed frame")

// Frame: [Compression uint8][UncompressedSize uint32 LE][Data...]
const frameHeaderSize = 5

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

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// CompressedStore wraps a Store and compresses values on Set.
// Get accepts frames written with any Compression, so the algorithm can be
// changed without rewriting existing values.
type CompressedStore struct {
	inner       Store
	compression Compression
}

// NewCompressedStore wraps inner.
func NewCompressedStore(inner Store, c Compression) *CompressedStore {
	return &CompressedStore{inner: inner, compression: c}
}

// Get reads and decompresses the value for key.
func (s *CompressedStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decompress(data)
}

// Set compresses value and stores it under key.
func (s *CompressedStore) Set(ctx context.Context, key string, value []byte) error {
	frame, err := compress(value, s.compression)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, frame)
}

// compress frames data. If compression saves less than 10% the data is
// stored uncompressed.
func compress(data []byte, c Compression) ([]byte, error) {
	var body []byte
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		body = buf[:n] // n == 0: incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		body = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("kv: unsupported compression %v", c)
	}

	if c == CompressionNone || len(body) == 0 || float64(len(body)) > float64(len(data))*0.9 {
		c, body = CompressionNone, data
	}

	frame := make([]byte, frameHeaderSize+len(body))
	frame[0] = byte(c)
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(data)))
	copy(frame[frameHeaderSize:], body)
	return frame, nil
}

func decompress(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, ErrCorruptFrame
	}
	size := binary.LittleEndian.Uint32(frame[1:])
	body := frame[frameHeaderSize:]

	switch Compression(frame[0]) {
	case CompressionNone:
		if uint32(len(body)) != size {
			return nil, ErrCorruptFrame
		}
		return body, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
		if uint32(n) != size {
			return nil, ErrCorruptFrame
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
		if uint32(len(out)) != size {
			return nil, ErrCorruptFrame
		}
		return out, nil
	default:
		return nil, ErrCorruptFrame
	}
}
