// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/era-ingest/internal/datasets"
	"github.com/gnosischain/era-ingest/internal/era"
	"github.com/gnosischain/era-ingest/internal/networks"
)

// encodeEmptyBlock builds a minimal phase0 signed beacon block: every
// operation list empty, so the five body offsets all point at byte 220.
func encodeEmptyBlock(slot uint64) []byte {
	body := make([]byte, 0, 220)
	body = append(body, make([]byte, 200)...) // randao || eth1_data || graffiti
	for i := 0; i < 5; i++ {
		body = binary.LittleEndian.AppendUint32(body, 220)
	}

	block := binary.LittleEndian.AppendUint64(nil, slot)
	block = binary.LittleEndian.AppendUint64(block, 1) // proposer_index
	block = append(block, make([]byte, 64)...)         // parent_root || state_root
	block = binary.LittleEndian.AppendUint32(block, 84)
	block = append(block, body...)

	signed := binary.LittleEndian.AppendUint32(nil, 100)
	signed = append(signed, make([]byte, 96)...) // signature
	return append(signed, block...)
}

func writeEntry(buf *bytes.Buffer, typ uint16, payload []byte) int64 {
	offset := int64(buf.Len())
	var header [8]byte
	binary.LittleEndian.PutUint16(header[0:2], typ)
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)
	return offset
}

func compress(t *testing.T, blob []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	w := snappy.NewBufferedWriter(&out)
	_, err := w.Write(blob)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

func buildEraFile(t *testing.T, startSlot uint64, blocks [][]byte) string {
	t.Helper()
	var (
		buf     bytes.Buffer
		offsets = make([]int64, len(blocks))
	)
	writeEntry(&buf, era.TypeVersion, nil)
	for i, block := range blocks {
		offsets[i] = writeEntry(&buf, era.TypeCompressedSignedBeaconBlock, block)
	}
	indexStart := int64(buf.Len())
	payload := binary.LittleEndian.AppendUint64(nil, startSlot)
	for _, off := range offsets {
		payload = binary.LittleEndian.AppendUint64(payload, uint64(off-indexStart))
	}
	payload = binary.LittleEndian.AppendUint64(payload, uint64(len(blocks)))
	writeEntry(&buf, era.TypeSlotIndex, payload)

	path := filepath.Join(t.TempDir(), "gnosis-00000-00000000.era")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestDecodeBlocksSkipsBrokenOnes(t *testing.T) {
	net, err := networks.Lookup("gnosis")
	require.NoError(t, err)
	start, end := net.EraRange(0)

	truncated := compress(t, encodeEmptyBlock(start+2))
	truncated = truncated[:len(truncated)-4]

	path := buildEraFile(t, start, [][]byte{
		compress(t, encodeEmptyBlock(start)),
		compress(t, encodeEmptyBlock(start+1)),
		truncated,
	})
	archive, err := era.Open(path)
	require.NoError(t, err)

	p := &Processor{net: net}
	batch, decoded, blockErrs := p.decodeBlocks(archive, start, end, log.WithField("test", t.Name()))

	assert.Equal(t, 2, decoded)
	assert.Len(t, blockErrs, 1)
	require.Len(t, batch.Rows(datasets.Blocks), 2)
	row := batch.Rows(datasets.Blocks)[0].(*datasets.BlockRow)
	assert.Equal(t, start, row.Slot)
	assert.Equal(t, "phase0", row.Fork)
}

func TestDecodeBlocksRejectsForeignSlots(t *testing.T) {
	net, err := networks.Lookup("gnosis")
	require.NoError(t, err)
	start, end := net.EraRange(0)

	// A block whose slot lands one past the era's upper bound.
	path := buildEraFile(t, end, [][]byte{
		compress(t, encodeEmptyBlock(end)),
		compress(t, encodeEmptyBlock(end+1)),
	})
	archive, err := era.Open(path)
	require.NoError(t, err)

	p := &Processor{net: net}
	_, decoded, blockErrs := p.decodeBlocks(archive, start, end, log.WithField("test", t.Name()))

	assert.Equal(t, 1, decoded)
	assert.Len(t, blockErrs, 1)
}
