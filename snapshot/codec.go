package snapshot

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

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

// compressPayload encodes raw under c. When compression does not
// shrink the input, the raw bytes are returned unchanged; the reader
// detects that case by PayloadSize == RawSize.
func compressPayload(raw []byte, c Codec) ([]byte, error) {
	if c == CodecNone || len(raw) == 0 {
		return raw, nil
	}

	switch c {
	case CodecLZ4:
		compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("snapshot: lz4 compress: %w", err)
		}
		if n == 0 || n >= len(raw) {
			return raw, nil
		}
		return compressed[:n], nil

	case CodecZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		compressed := enc.EncodeAll(raw, nil)
		if len(compressed) >= len(raw) {
			return raw, nil
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}

// decompressPayload reverses compressPayload.
func decompressPayload(payload []byte, c Codec, rawSize uint64) ([]byte, error) {
	if c == CodecNone || uint64(len(payload)) == rawSize {
		if uint64(len(payload)) != rawSize {
			return nil, &CorruptError{Reason: "uncompressed payload size mismatch"}
		}
		return payload, nil
	}

	switch c {
	case CodecLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, &CorruptError{Reason: fmt.Sprintf("lz4: %v", err)}
		}
		if uint64(n) != rawSize {
			return nil, &CorruptError{Reason: fmt.Sprintf("lz4: decompressed %d bytes, header says %d", n, rawSize)}
		}
		return raw, nil

	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, &CorruptError{Reason: fmt.Sprintf("zstd: %v", err)}
		}
		if uint64(len(raw)) != rawSize {
			return nil, &CorruptError{Reason: fmt.Sprintf("zstd: decompressed %d bytes, header says %d", len(raw), rawSize)}
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}
