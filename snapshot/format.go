package snapshot

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies snapshot files (ASCII "VDX1").
	Magic = 0x56445831

	// Version is the current container version.
	Version = 1

	headerSize  = 64
	trailerSize = 4

	// maxPayloadBytes rejects absurd headers before any allocation.
	maxPayloadBytes = 1 << 38
)

// Codec selects the payload compression.
type Codec uint8

const (
	// CodecNone stores the payload raw.
	CodecNone Codec = 0
	// CodecLZ4 uses LZ4 block compression (fast restore).
	CodecLZ4 Codec = 1
	// CodecZstd uses zstd (better ratio, archival snapshots).
	CodecZstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name as accepted by the CLI.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

var (
	ErrInvalidMagic       = errors.New("snapshot: invalid magic")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	ErrUnknownCodec       = errors.New("snapshot: unknown codec")
	ErrTruncated          = errors.New("snapshot: truncated")
	ErrParamsMismatch     = errors.New("snapshot: graph parameters mismatch")
)

// CorruptError reports structurally invalid snapshot contents that
// passed the checksum, or a checksummed region that cannot be decoded.
type CorruptError struct {
	Reason string
}

func (e *CorruptError) Error() string {
	return "snapshot: corrupt: " + e.Reason
}

// ChecksumError reports a CRC32C trailer mismatch.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected %08x, got %08x", e.Expected, e.Actual)
}

// Params are the consensus parameters baked into a snapshot. A snapshot
// written under different parameters must not load: the graphs are not
// interchangeable across forks.
type Params struct {
	Dimension      int
	M              int
	M0             int
	EFConstruction int
}

// Meta describes a snapshot independent of its payload bytes.
type Meta struct {
	Params

	Codec        Codec
	NodeCount    uint64
	MaxLayer     int // -1 when the graph is empty
	EntryPointID uint64
	HasEntry     bool
}

// Info is Meta plus the physical sizes, as reported by Inspect.
type Info struct {
	Meta

	RawSize     uint64 // payload bytes before compression
	PayloadSize uint64 // payload bytes on disk
}

const flagHasEntry = 1 << 0

// fileHeader is the exact 64-byte wire layout, written little-endian in
// field order.
type fileHeader struct {
	Magic          uint32
	Version        uint32
	Codec          uint8
	Flags          uint8
	M              uint16
	M0             uint16
	EFConstruction uint16
	Dimension      uint32
	MaxLayer       uint32
	NodeCount      uint64
	EntryPointID   uint64
	RawSize        uint64
	PayloadSize    uint64
	Reserved       [8]byte
}

func headerFromMeta(meta Meta, rawSize, payloadSize uint64) fileHeader {
	h := fileHeader{
		Magic:          Magic,
		Version:        Version,
		Codec:          uint8(meta.Codec),
		M:              uint16(meta.M),
		M0:             uint16(meta.M0),
		EFConstruction: uint16(meta.EFConstruction),
		Dimension:      uint32(meta.Dimension),
		NodeCount:      meta.NodeCount,
		EntryPointID:   meta.EntryPointID,
		RawSize:        rawSize,
		PayloadSize:    payloadSize,
	}
	if meta.HasEntry {
		h.Flags |= flagHasEntry
		h.MaxLayer = uint32(meta.MaxLayer)
	}
	return h
}

func (h *fileHeader) validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: got %d", ErrUnsupportedVersion, h.Version)
	}
	switch Codec(h.Codec) {
	case CodecNone, CodecLZ4, CodecZstd:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCodec, h.Codec)
	}
	if h.RawSize > maxPayloadBytes {
		return &CorruptError{Reason: fmt.Sprintf("raw size %d exceeds limit", h.RawSize)}
	}
	if h.PayloadSize > h.RawSize {
		return &CorruptError{Reason: fmt.Sprintf("payload size %d exceeds raw size %d", h.PayloadSize, h.RawSize)}
	}
	if h.Dimension == 0 {
		return &CorruptError{Reason: "zero dimension"}
	}
	if h.Flags&flagHasEntry == 0 && h.NodeCount != 0 {
		return &CorruptError{Reason: "node count without entry point"}
	}
	if h.Flags&flagHasEntry != 0 && h.NodeCount == 0 {
		return &CorruptError{Reason: "entry point without nodes"}
	}
	if h.NodeCount > 0 {
		// Smallest possible record: id, level, vector, one empty layer.
		minRecord := uint64(16) + 8*uint64(h.Dimension)
		if h.NodeCount > h.RawSize/minRecord {
			return &CorruptError{Reason: fmt.Sprintf("node count %d exceeds payload capacity", h.NodeCount)}
		}
	}
	return nil
}

func (h *fileHeader) meta() Meta {
	meta := Meta{
		Params: Params{
			Dimension:      int(h.Dimension),
			M:              int(h.M),
			M0:             int(h.M0),
			EFConstruction: int(h.EFConstruction),
		},
		Codec:        Codec(h.Codec),
		NodeCount:    h.NodeCount,
		MaxLayer:     -1,
		EntryPointID: h.EntryPointID,
		HasEntry:     h.Flags&flagHasEntry != 0,
	}
	if meta.HasEntry {
		meta.MaxLayer = int(h.MaxLayer)
	}
	return meta
}

func (h *fileHeader) info() Info {
	return Info{
		Meta:        h.meta(),
		RawSize:     h.RawSize,
		PayloadSize: h.PayloadSize,
	}
}
