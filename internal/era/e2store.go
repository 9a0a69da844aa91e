// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package era reads the e2store-framed archives the beacon networks publish:
// a version record, one snappy-framed SSZ block per slot, the era's state, and
// trailing slot indices for random access.
package era

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// e2store record types relevant to era files.
const (
	TypeVersion                     = uint16(0x6532)
	TypeCompressedSignedBeaconBlock = uint16(0x0100)
	TypeCompressedBeaconState       = uint16(0x0200)
	TypeSlotIndex                   = uint16(0x6932)
)

// headerSize is the fixed prefix of every record: type(2) | length(4) | reserved(2).
const headerSize = 8

// ErrMalformedArchive reports a structurally broken era file. It fails the
// whole era, unlike per-block decompression errors which are skipped.
var ErrMalformedArchive = errors.New("era: malformed archive")

// Entry is one e2store record together with the file offset its header starts
// at (the slot index expresses block positions relative to such offsets).
type Entry struct {
	Type   uint16
	Value  []byte
	Offset int64
}

// Reader parses e2store records off an input stream.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader wraps an input stream for record-by-record reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns the next record, io.EOF at a clean end of input, or an
// ErrMalformedArchive-wrapped error on framing violations.
func (r *Reader) Read() (*Entry, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r.r, header[:1]); err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(ErrMalformedArchive, "short header at offset %d", r.offset)
	}
	if _, err := io.ReadFull(r.r, header[1:]); err != nil {
		return nil, errors.Wrapf(ErrMalformedArchive, "short header at offset %d", r.offset)
	}
	typ := binary.LittleEndian.Uint16(header[0:2])
	length := binary.LittleEndian.Uint32(header[2:6])
	if header[6] != 0 || header[7] != 0 {
		return nil, errors.Wrapf(ErrMalformedArchive, "reserved bytes are non-zero at offset %d", r.offset)
	}
	value := make([]byte, length)
	if _, err := io.ReadFull(r.r, value); err != nil {
		return nil, errors.Wrapf(ErrMalformedArchive, "record at offset %d declares %d bytes: %v", r.offset, length, err)
	}
	entry := &Entry{Type: typ, Value: value, Offset: r.offset}
	r.offset += headerSize + int64(length)
	return entry, nil
}

// slotIndex is the parsed form of a SlotIndex record: the starting slot and
// one offset per slot, relative to the index record's own header (zero means
// the slot is empty).
type slotIndex struct {
	startingSlot uint64
	offsets      []int64
	recordStart  int64
}

// parseSlotIndex decodes a SlotIndex payload: starting-slot(8) | offsets(8 x n) | count(8).
func parseSlotIndex(e *Entry) (*slotIndex, error) {
	if len(e.Value) < 16 || len(e.Value)%8 != 0 {
		return nil, errors.Wrapf(ErrMalformedArchive, "slot index of %d bytes", len(e.Value))
	}
	count := binary.LittleEndian.Uint64(e.Value[len(e.Value)-8:])
	if want := int(count)*8 + 16; want != len(e.Value) {
		return nil, errors.Wrapf(ErrMalformedArchive, "slot index declares %d slots in %d bytes", count, len(e.Value))
	}
	idx := &slotIndex{
		startingSlot: binary.LittleEndian.Uint64(e.Value[:8]),
		offsets:      make([]int64, count),
		recordStart:  e.Offset,
	}
	for i := range idx.offsets {
		idx.offsets[i] = int64(binary.LittleEndian.Uint64(e.Value[8+8*i:]))
	}
	return idx, nil
}

// typeName renders a record type for diagnostics.
func typeName(typ uint16) string {
	switch typ {
	case TypeVersion:
		return "Version"
	case TypeCompressedSignedBeaconBlock:
		return "CompressedSignedBeaconBlock"
	case TypeCompressedBeaconState:
		return "CompressedBeaconState"
	case TypeSlotIndex:
		return "SlotIndex"
	default:
		return fmt.Sprintf("%#04x", typ)
	}
}
