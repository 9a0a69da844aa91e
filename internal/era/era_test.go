// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package era

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEntry appends one e2store record and returns its header offset.
func writeEntry(buf *bytes.Buffer, typ uint16, payload []byte) int64 {
	offset := int64(buf.Len())
	var header [8]byte
	binary.LittleEndian.PutUint16(header[0:2], typ)
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)
	return offset
}

// compress produces a snappy-framed payload the way era files store blocks.
func compress(t *testing.T, blob []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	w := snappy.NewBufferedWriter(&out)
	_, err := w.Write(blob)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

// buildEraFile writes a synthetic era archive: version, one compressed block
// per non-nil entry of blocks (indexed by slot distance from startSlot), the
// block slot index and a single-slot state index.
func buildEraFile(t *testing.T, dir string, startSlot uint64, blocks [][]byte) string {
	t.Helper()
	var (
		buf     bytes.Buffer
		offsets = make([]int64, len(blocks))
	)
	writeEntry(&buf, TypeVersion, nil)
	for i, block := range blocks {
		if block == nil {
			continue
		}
		offsets[i] = writeEntry(&buf, TypeCompressedSignedBeaconBlock, block)
	}
	writeEntry(&buf, TypeCompressedBeaconState, compress(t, []byte("state")))

	// Block slot index: starting-slot | relative offsets | count.
	indexStart := int64(buf.Len())
	payload := binary.LittleEndian.AppendUint64(nil, startSlot)
	for _, off := range offsets {
		rel := int64(0)
		if off != 0 {
			rel = off - indexStart
		}
		payload = binary.LittleEndian.AppendUint64(payload, uint64(rel))
	}
	payload = binary.LittleEndian.AppendUint64(payload, uint64(len(offsets)))
	writeEntry(&buf, TypeSlotIndex, payload)

	// State slot index with a single entry.
	statePayload := binary.LittleEndian.AppendUint64(nil, startSlot+uint64(len(blocks))-1)
	statePayload = binary.LittleEndian.AppendUint64(statePayload, 0)
	statePayload = binary.LittleEndian.AppendUint64(statePayload, 1)
	writeEntry(&buf, TypeSlotIndex, statePayload)

	path := filepath.Join(dir, "test-00001-00000000.era")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReaderFraming(t *testing.T) {
	var buf bytes.Buffer
	writeEntry(&buf, 0xffff, nil)
	writeEntry(&buf, 42, []byte{0xbe, 0xef})

	r := NewReader(bytes.NewReader(buf.Bytes()))

	entry, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xffff), entry.Type)
	assert.Empty(t, entry.Value)
	assert.Equal(t, int64(0), entry.Offset)

	entry, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(42), entry.Type)
	assert.Equal(t, []byte{0xbe, 0xef}, entry.Value)
	assert.Equal(t, int64(8), entry.Offset)

	_, err = r.Read()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderMalformed(t *testing.T) {
	// Non-zero reserved bytes.
	blob := []byte{0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	_, err := NewReader(bytes.NewReader(blob)).Read()
	require.ErrorIs(t, err, ErrMalformedArchive)

	// Truncated header.
	_, err = NewReader(bytes.NewReader([]byte{0xba, 0xd0, 0x00})).Read()
	require.ErrorIs(t, err, ErrMalformedArchive)

	// Declared length longer than the remaining input.
	blob = []byte{0xbe, 0xef, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, err = NewReader(bytes.NewReader(blob)).Read()
	require.ErrorIs(t, err, ErrMalformedArchive)
}

func TestOpenResolvesSlots(t *testing.T) {
	start := uint64(8871936)
	blocks := [][]byte{
		compress(t, []byte("block-0")),
		nil, // empty slot
		compress(t, []byte("block-2")),
		compress(t, []byte("block-3")),
	}
	path := buildEraFile(t, t.TempDir(), start, blocks)

	archive, err := Open(path)
	require.NoError(t, err)
	require.Len(t, archive.Blocks(), 3)

	var slots []uint64
	for _, block := range archive.Blocks() {
		slots = append(slots, block.Slot)
		blob, err := block.Decompress()
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(blob, []byte("block-")))
	}
	assert.Equal(t, []uint64{start, start + 2, start + 3}, slots)

	lo, hi, ok := archive.SlotBounds()
	require.True(t, ok)
	assert.Equal(t, start, lo)
	assert.Equal(t, start+3, hi)
}

func TestOpenRejectsMissingVersion(t *testing.T) {
	var buf bytes.Buffer
	writeEntry(&buf, TypeCompressedSignedBeaconBlock, []byte{0x01})
	path := filepath.Join(t.TempDir(), "bad.era")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrMalformedArchive)
}

func TestOpenRejectsMissingIndex(t *testing.T) {
	var buf bytes.Buffer
	writeEntry(&buf, TypeVersion, nil)
	writeEntry(&buf, TypeCompressedSignedBeaconBlock, []byte{0x01})
	path := filepath.Join(t.TempDir(), "noindex.era")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrMalformedArchive)
}

func TestTruncatedSnappyFrameFailsOnlyThatBlock(t *testing.T) {
	good := compress(t, []byte("good block payload"))
	bad := compress(t, []byte("bad block payload"))
	bad = bad[:len(bad)-3] // truncate the frame

	path := buildEraFile(t, t.TempDir(), 100, [][]byte{good, bad})

	archive, err := Open(path)
	require.NoError(t, err)
	require.Len(t, archive.Blocks(), 2)

	_, err = archive.Blocks()[0].Decompress()
	require.NoError(t, err)
	_, err = archive.Blocks()[1].Decompress()
	require.Error(t, err)
}
