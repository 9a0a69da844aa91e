// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package era

import (
	"bytes"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// CompressedBlock is one snappy-framed signed beacon block with the absolute
// slot the trailing index assigned to it.
type CompressedBlock struct {
	Slot    uint64
	Payload []byte
}

// Decompress expands the snappy-framed payload into raw SSZ, consuming the
// whole frame stream.
func (b *CompressedBlock) Decompress() ([]byte, error) {
	blob, err := io.ReadAll(snappy.NewReader(bytes.NewReader(b.Payload)))
	if err != nil {
		return nil, errors.Wrapf(err, "snappy frame of block at slot %d", b.Slot)
	}
	return blob, nil
}

// Archive is a fully scanned era file: every block payload in on-wire order
// with slots resolved from the block slot index.
type Archive struct {
	Path   string
	Size   int64
	blocks []CompressedBlock
}

// Open scans an era file and resolves each block's slot. Framing violations
// and a missing version or block index fail the archive as malformed; the
// per-block snappy payloads are left untouched for the caller to decompress
// (and skip individually on damage).
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open era file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat era file")
	}

	var (
		r       = NewReader(f)
		first   = true
		offsets []int64 // header offset of every block record, in order
		blobs   [][]byte
		indices []*slotIndex
	)
	for {
		entry, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			if entry.Type != TypeVersion {
				return nil, errors.Wrapf(ErrMalformedArchive, "first record is %s, want Version", typeName(entry.Type))
			}
			first = false
			continue
		}
		switch entry.Type {
		case TypeCompressedSignedBeaconBlock:
			offsets = append(offsets, entry.Offset)
			blobs = append(blobs, entry.Value)
		case TypeSlotIndex:
			idx, err := parseSlotIndex(entry)
			if err != nil {
				return nil, err
			}
			indices = append(indices, idx)
		default:
			// Unknown records between the version and the indices are
			// tolerated, as is the state payload itself.
		}
	}
	if first {
		return nil, errors.Wrap(ErrMalformedArchive, "empty file")
	}

	slotOf, err := blockSlots(indices)
	if err != nil {
		return nil, err
	}
	archive := &Archive{Path: path, Size: info.Size()}
	for i, off := range offsets {
		slot, ok := slotOf[off]
		if !ok {
			return nil, errors.Wrapf(ErrMalformedArchive, "block record at offset %d missing from slot index", off)
		}
		archive.blocks = append(archive.blocks, CompressedBlock{Slot: slot, Payload: blobs[i]})
	}
	return archive, nil
}

// blockSlots folds the block slot index into a record-offset to slot mapping.
// Era files carry two trailing indices; the block one spans the era's slots,
// the state one covers a single slot.
func blockSlots(indices []*slotIndex) (map[int64]uint64, error) {
	var block *slotIndex
	for _, idx := range indices {
		if len(idx.offsets) > 1 {
			block = idx
			break
		}
	}
	if block == nil && len(indices) > 0 {
		block = indices[0]
	}
	if block == nil {
		return nil, errors.Wrap(ErrMalformedArchive, "no slot index record")
	}
	slots := make(map[int64]uint64, len(block.offsets))
	for i, off := range block.offsets {
		if off == 0 {
			continue // empty slot
		}
		slots[block.recordStart+off] = block.startingSlot + uint64(i)
	}
	return slots, nil
}

// Blocks returns the archive's block payloads in on-wire order.
func (a *Archive) Blocks() []CompressedBlock {
	return a.blocks
}

// SlotBounds returns the lowest and highest slot present in the archive. The
// second return is false for an archive without blocks.
func (a *Archive) SlotBounds() (lo, hi uint64, ok bool) {
	if len(a.blocks) == 0 {
		return 0, 0, false
	}
	lo, hi = a.blocks[0].Slot, a.blocks[0].Slot
	for _, b := range a.blocks[1:] {
		if b.Slot < lo {
			lo = b.Slot
		}
		if b.Slot > hi {
			hi = b.Slot
		}
	}
	return lo, hi, true
}
