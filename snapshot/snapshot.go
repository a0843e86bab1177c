package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vecdex/vecdex/internal/hash"
)

// Write emits a complete snapshot: header, payload under meta.Codec,
// CRC32C trailer. rawPayload is the uncompressed node-record stream
// built with a PayloadWriter.
func Write(w io.Writer, meta Meta, rawPayload []byte) error {
	if uint64(len(rawPayload)) > maxPayloadBytes {
		return fmt.Errorf("snapshot: payload of %d bytes exceeds limit", len(rawPayload))
	}

	payload, err := compressPayload(rawPayload, meta.Codec)
	if err != nil {
		return err
	}

	hdr := headerFromMeta(meta, uint64(len(rawPayload)), uint64(len(payload)))
	if err := hdr.validate(); err != nil {
		return err
	}

	cw := hash.NewChecksumWriter(w)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := cw.Write(payload); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	if _, err := w.Write(trailer[:]); err != nil {
		return fmt.Errorf("snapshot: write trailer: %w", err)
	}
	return nil
}

// Read consumes a complete snapshot, verifies the trailer, and returns
// the metadata plus the decompressed payload.
func Read(r io.Reader) (Meta, []byte, error) {
	cr := hash.NewChecksumReader(r)

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return Meta{}, nil, readErr("header", err)
	}
	if err := hdr.validate(); err != nil {
		return Meta{}, nil, err
	}

	payload := make([]byte, hdr.PayloadSize)
	if _, err := io.ReadFull(cr, payload); err != nil {
		return Meta{}, nil, readErr("payload", err)
	}

	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Meta{}, nil, readErr("trailer", err)
	}
	expected := binary.LittleEndian.Uint32(trailer[:])
	if actual := cr.Sum(); actual != expected {
		return Meta{}, nil, &ChecksumError{Expected: expected, Actual: actual}
	}

	raw, err := decompressPayload(payload, Codec(hdr.Codec), hdr.RawSize)
	if err != nil {
		return Meta{}, nil, err
	}
	return hdr.meta(), raw, nil
}

// Inspect reads only the header. It does not verify the checksum.
func Inspect(r io.Reader) (Info, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Info{}, readErr("header", err)
	}
	if err := hdr.validate(); err != nil {
		return Info{}, err
	}
	return hdr.info(), nil
}

// Verify reads the whole snapshot, checking the trailer and that the
// payload decompresses to the advertised size.
func Verify(r io.Reader) (Info, error) {
	cr := hash.NewChecksumReader(r)

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return Info{}, readErr("header", err)
	}
	if err := hdr.validate(); err != nil {
		return Info{}, err
	}

	payload := make([]byte, hdr.PayloadSize)
	if _, err := io.ReadFull(cr, payload); err != nil {
		return Info{}, readErr("payload", err)
	}

	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Info{}, readErr("trailer", err)
	}
	expected := binary.LittleEndian.Uint32(trailer[:])
	if actual := cr.Sum(); actual != expected {
		return Info{}, &ChecksumError{Expected: expected, Actual: actual}
	}

	if _, err := decompressPayload(payload, Codec(hdr.Codec), hdr.RawSize); err != nil {
		return Info{}, err
	}
	return hdr.info(), nil
}

func readErr(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: short %s", ErrTruncated, section)
	}
	return fmt.Errorf("snapshot: read %s: %w", section, err)
}
