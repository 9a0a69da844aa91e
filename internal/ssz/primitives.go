// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Uint16LE reads a little-endian uint16 at the given byte offset.
func Uint16LE(blob []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(blob) {
		return 0, fmt.Errorf("%w: uint16 at offset %d of %d", ErrShortFixedSection, offset, len(blob))
	}
	return binary.LittleEndian.Uint16(blob[offset:]), nil
}

// Uint32LE reads a little-endian uint32 at the given byte offset.
func Uint32LE(blob []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(blob) {
		return 0, fmt.Errorf("%w: uint32 at offset %d of %d", ErrShortFixedSection, offset, len(blob))
	}
	return binary.LittleEndian.Uint32(blob[offset:]), nil
}

// Uint64LE reads a little-endian uint64 at the given byte offset.
func Uint64LE(blob []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(blob) {
		return 0, fmt.Errorf("%w: uint64 at offset %d of %d", ErrShortFixedSection, offset, len(blob))
	}
	return binary.LittleEndian.Uint64(blob[offset:]), nil
}

// Hex renders a byte slice as a 0x-prefixed lowercase hex string.
func Hex(blob []byte) string {
	return "0x" + hex.EncodeToString(blob)
}

// SplitFixedList splits a contiguous blob into items of a known fixed size.
// The blob's length must be an exact multiple of the item size; an empty blob
// yields an empty list.
func SplitFixedList(blob []byte, itemSize uint32) ([][]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if itemSize == 0 || uint32(len(blob))%itemSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes into %d byte items", ErrDynamicStaticsIndivisible, len(blob), itemSize)
	}
	items := make([][]byte, 0, uint32(len(blob))/itemSize)
	for pos := uint32(0); pos < uint32(len(blob)); pos += itemSize {
		items = append(items, blob[pos:pos+itemSize])
	}
	return items, nil
}

// SplitVariableList splits a contiguous blob that begins with its own 4-byte
// little-endian offset table. The first offset divided by 4 is the item count;
// item i occupies [offset_i, offset_i+1), the last item ending at the blob's
// length. Offsets must be monotonic, must stay within the blob, and the table
// prefix must be made of whole 4-byte words.
func SplitVariableList(blob []byte) ([][]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortCounterOffset, len(blob))
	}
	first := binary.LittleEndian.Uint32(blob)
	if first%4 != 0 {
		return nil, fmt.Errorf("%w: first offset %d", ErrBadCounterOffset, first)
	}
	if first > uint32(len(blob)) {
		return nil, fmt.Errorf("%w: first offset %d, blob length %d", ErrOffsetBeyondCapacity, first, len(blob))
	}
	items := first / 4
	if items == 0 {
		return nil, fmt.Errorf("%w: zero items with non-empty blob", ErrBadCounterOffset)
	}
	offsets := make([]uint32, items+1)
	for i := uint32(0); i < items; i++ {
		offsets[i] = binary.LittleEndian.Uint32(blob[4*i:])
	}
	offsets[items] = uint32(len(blob))

	out := make([][]byte, items)
	for i := uint32(0); i < items; i++ {
		start, end := offsets[i], offsets[i+1]
		if end < start {
			return nil, fmt.Errorf("%w: offset %d after %d", ErrBadOffsetProgression, end, start)
		}
		if end > uint32(len(blob)) {
			return nil, fmt.Errorf("%w: offset %d, blob length %d", ErrOffsetBeyondCapacity, end, len(blob))
		}
		out[i] = blob[start:end]
	}
	return out, nil
}
