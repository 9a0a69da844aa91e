// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/era-ingest/internal/ssz"
)

// enc is a minimal hand encoder for building wire fixtures.
type enc struct{ b []byte }

func (e *enc) u64(v uint64) *enc   { e.b = binary.LittleEndian.AppendUint64(e.b, v); return e }
func (e *enc) u32(v uint32) *enc   { e.b = binary.LittleEndian.AppendUint32(e.b, v); return e }
func (e *enc) raw(v []byte) *enc   { e.b = append(e.b, v...); return e }
func (e *enc) zeros(n int) *enc    { e.b = append(e.b, make([]byte, n)...); return e }
func (e *enc) marked(n int, mark byte) *enc {
	blob := make([]byte, n)
	blob[0] = mark
	e.b = append(e.b, blob...)
	return e
}

// buildBodyPhase0 encodes a phase0 body whose operation lists are all empty
// except the attestations: the five offsets point into the dynamic region
// right after the 220-byte fixed section.
func buildBodyPhase0(attestations [][]byte) []byte {
	e := new(enc)
	e.marked(96, 0x01) // randao_reveal
	e.marked(32, 0x02) // eth1 deposit_root
	e.u64(16)          // eth1 deposit_count
	e.marked(32, 0x03) // eth1 block_hash
	e.marked(32, 0x04) // graffiti

	fixed := uint32(220)
	attBlob := buildList(attestations)
	e.u32(fixed)                        // proposer_slashings
	e.u32(fixed)                        // attester_slashings
	e.u32(fixed)                        // attestations
	e.u32(fixed + uint32(len(attBlob))) // deposits
	e.u32(fixed + uint32(len(attBlob))) // voluntary_exits
	e.raw(attBlob)
	return e.b
}

func buildList(items [][]byte) []byte {
	if len(items) == 0 {
		return nil
	}
	e := new(enc)
	offset := uint32(4 * len(items))
	for _, item := range items {
		e.u32(offset)
		offset += uint32(len(item))
	}
	for _, item := range items {
		e.raw(item)
	}
	return e.b
}

func buildAttestation(slot uint64, aggregationBits []byte) []byte {
	e := new(enc)
	e.u32(228)         // aggregation_bits offset
	e.u64(slot)        // data.slot
	e.u64(3)           // data.committee_index
	e.marked(32, 0x05) // data.beacon_block_root
	e.u64(1)           // source.epoch
	e.marked(32, 0x06) // source.root
	e.u64(2)           // target.epoch
	e.marked(32, 0x07) // target.root
	e.marked(96, 0x08) // signature
	e.raw(aggregationBits)
	return e.b
}

func buildSignedBlock(slot uint64, body []byte) []byte {
	block := new(enc)
	block.u64(slot)
	block.u64(77)          // proposer_index
	block.marked(32, 0x0a) // parent_root
	block.marked(32, 0x0b) // state_root
	block.u32(84)          // body offset
	block.raw(body)

	signed := new(enc)
	signed.u32(100)         // block offset
	signed.marked(96, 0x0c) // signature
	signed.raw(block.b)
	return signed.b
}

func TestDecodePhase0Block(t *testing.T) {
	att := buildAttestation(1234, []byte{0xff, 0x01})
	body := buildBodyPhase0([][]byte{att})
	blob := buildSignedBlock(1234, body)

	signed, err := DecodeSignedBeaconBlock(blob, ssz.ForkPhase0)
	require.NoError(t, err)

	block := signed.Block
	assert.Equal(t, uint64(1234), block.Slot)
	assert.Equal(t, uint64(77), block.ProposerIndex)
	assert.Equal(t, byte(0x0a), block.ParentRoot[0])
	assert.Equal(t, byte(0x0c), signed.Signature[0])

	body2 := block.Body
	assert.Equal(t, byte(0x01), body2.RandaoReveal[0])
	assert.Equal(t, uint64(16), body2.Eth1Data.DepositCount)
	assert.Equal(t, byte(0x04), body2.Graffiti[0])
	assert.Empty(t, body2.ProposerSlashings)
	assert.Empty(t, body2.Deposits)
	assert.Nil(t, body2.SyncAggregate)
	assert.Nil(t, body2.ExecutionPayload)
	assert.Nil(t, body2.ExecutionRequests)

	require.Len(t, body2.Attestations, 1)
	att2 := body2.Attestations[0]
	assert.Equal(t, []byte{0xff, 0x01}, att2.AggregationBits)
	assert.Equal(t, uint64(1234), att2.Data.Slot)
	assert.Equal(t, uint64(3), att2.Data.CommitteeIndex)
	assert.Equal(t, uint64(1), att2.Data.Source.Epoch)
	assert.Equal(t, uint64(2), att2.Data.Target.Epoch)
	assert.Nil(t, att2.CommitteeBits)
}

func buildBodyAltair(attestations [][]byte) []byte {
	e := new(enc)
	e.marked(96, 0x01) // randao_reveal
	e.marked(32, 0x02) // eth1 deposit_root
	e.u64(16)          // eth1 deposit_count
	e.marked(32, 0x03) // eth1 block_hash
	e.marked(32, 0x04) // graffiti

	fixed := uint32(380)
	attBlob := buildList(attestations)
	e.u32(fixed)
	e.u32(fixed)
	e.u32(fixed)
	e.u32(fixed + uint32(len(attBlob)))
	e.u32(fixed + uint32(len(attBlob)))
	e.marked(64, 0x09) // sync_committee_bits
	e.marked(96, 0x0d) // sync_committee_signature
	e.raw(attBlob)
	return e.b
}

func TestDecodeAltairBlock(t *testing.T) {
	att := buildAttestation(99, []byte{0x01})
	blob := buildSignedBlock(99, buildBodyAltair([][]byte{att}))

	signed, err := DecodeSignedBeaconBlock(blob, ssz.ForkAltair)
	require.NoError(t, err)

	body := signed.Block.Body
	require.NotNil(t, body.SyncAggregate)
	assert.Equal(t, byte(0x09), body.SyncAggregate.SyncCommitteeBits[0])
	assert.Equal(t, byte(0x0d), body.SyncAggregate.SyncCommitteeSignature[0])
	require.Len(t, body.Attestations, 1)
	assert.Equal(t, []byte{0x01}, body.Attestations[0].AggregationBits)

	// The altair encoding must not parse under the phase0 schema: the first
	// offset lands inside the inline sync aggregate.
	_, err = DecodeSignedBeaconBlock(blob, ssz.ForkPhase0)
	require.Error(t, err)
}

func buildPayloadCapella(extra []byte, txs [][]byte, withdrawals int) []byte {
	e := new(enc)
	e.marked(32, 0x11)  // parent_hash
	e.marked(20, 0x12)  // fee_recipient
	e.marked(32, 0x13)  // state_root
	e.marked(32, 0x14)  // receipts_root
	e.zeros(256)        // logs_bloom
	e.marked(32, 0x15)  // prev_randao
	e.u64(18_000_000)   // block_number
	e.u64(30_000_000)   // gas_limit
	e.u64(12_345_678)   // gas_used
	e.u64(1_700_000_000) // timestamp

	var (
		fixed   = uint32(512)
		txBlob  = buildList(txs)
		wBlob   []byte
	)
	for i := 0; i < withdrawals; i++ {
		w := new(enc)
		w.u64(uint64(1000 + i)) // withdrawal index
		w.u64(uint64(i))        // validator index
		w.marked(20, 0x16)      // address
		w.u64(32_000_000_000)   // amount
		wBlob = append(wBlob, w.b...)
	}
	e.u32(fixed) // extra_data offset
	var baseFee [32]byte
	baseFee[0], baseFee[1] = 0x00, 0xca // 51712 little-endian
	e.raw(baseFee[:])
	e.marked(32, 0x17) // block_hash
	e.u32(fixed + uint32(len(extra)))                  // transactions offset
	e.u32(fixed + uint32(len(extra)) + uint32(len(txBlob))) // withdrawals offset
	e.raw(extra)
	e.raw(txBlob)
	e.raw(wBlob)
	return e.b
}

func TestDecodeExecutionPayloadCapella(t *testing.T) {
	blob := buildPayloadCapella([]byte("geth"), [][]byte{{0x01, 0x02}, {0x03}}, 2)

	payload := new(ExecutionPayload)
	require.NoError(t, ssz.DecodeOnFork(blob, payload, ssz.ForkCapella))

	assert.Equal(t, uint64(18_000_000), payload.BlockNumber)
	assert.Equal(t, uint64(1_700_000_000), payload.Timestamp)
	assert.Equal(t, []byte("geth"), payload.ExtraData)
	require.NotNil(t, payload.BaseFeePerGas)
	assert.Equal(t, "51712", payload.BaseFeePerGas.Dec())
	require.Len(t, payload.Transactions, 2)
	assert.Equal(t, []byte{0x03}, payload.Transactions[1])
	require.Len(t, payload.Withdrawals, 2)
	assert.Equal(t, uint64(1001), payload.Withdrawals[1].Index)
	assert.Nil(t, payload.BlobGasUsed)
	assert.Nil(t, payload.ExcessBlobGas)
}

func buildPayloadDeneb(extra []byte, txs [][]byte) []byte {
	e := new(enc)
	e.marked(32, 0x11)
	e.marked(20, 0x12)
	e.marked(32, 0x13)
	e.marked(32, 0x14)
	e.zeros(256)
	e.marked(32, 0x15)
	e.u64(19_000_000)
	e.u64(30_000_000)
	e.u64(21_000)
	e.u64(1_710_000_000)

	fixed := uint32(528)
	txBlob := buildList(txs)
	e.u32(fixed) // extra_data offset
	e.zeros(32)  // base_fee_per_gas = 0
	e.marked(32, 0x17)
	e.u32(fixed + uint32(len(extra)))
	e.u32(fixed + uint32(len(extra)) + uint32(len(txBlob))) // withdrawals (empty)
	e.u64(131072)                                           // blob_gas_used
	e.u64(262144)                                           // excess_blob_gas
	e.raw(extra)
	e.raw(txBlob)
	return e.b
}

func TestDecodeExecutionPayloadDeneb(t *testing.T) {
	blob := buildPayloadDeneb(nil, [][]byte{{0xaa}})

	payload := new(ExecutionPayload)
	require.NoError(t, ssz.DecodeOnFork(blob, payload, ssz.ForkDeneb))

	require.NotNil(t, payload.BlobGasUsed)
	assert.Equal(t, uint64(131072), *payload.BlobGasUsed)
	require.NotNil(t, payload.ExcessBlobGas)
	assert.Equal(t, uint64(262144), *payload.ExcessBlobGas)
	assert.Empty(t, payload.Withdrawals)

	// Under the capella schema the deneb bytes must fail: the extra 16 fixed
	// bytes shift the first offset away from 512.
	require.ErrorIs(t, ssz.DecodeOnFork(blob, new(ExecutionPayload), ssz.ForkCapella), ssz.ErrFirstOffsetMismatch)
}

func TestDecodeElectraAttestation(t *testing.T) {
	e := new(enc)
	e.u32(236)         // aggregation_bits offset (fixed grew by committee_bits)
	e.u64(5000)        // data.slot
	e.u64(0)           // data.committee_index
	e.marked(32, 0x05)
	e.u64(1)
	e.marked(32, 0x06)
	e.u64(2)
	e.marked(32, 0x07)
	e.marked(96, 0x08) // signature
	e.raw([]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}) // committee_bits
	e.raw([]byte{0xf0, 0x0f})                                     // aggregation_bits

	att := new(Attestation)
	require.NoError(t, ssz.DecodeOnFork(e.b, att, ssz.ForkElectra))
	require.NotNil(t, att.CommitteeBits)
	assert.Equal(t, byte(0x02), att.CommitteeBits[0])
	assert.Equal(t, []byte{0xf0, 0x0f}, att.AggregationBits)

	// Pre-electra the same bytes miss the first-offset contract.
	require.ErrorIs(t, ssz.DecodeOnFork(e.b, new(Attestation), ssz.ForkDeneb), ssz.ErrFirstOffsetMismatch)
}

func TestDecodeAttesterSlashing(t *testing.T) {
	indexed := func(indices []uint64) []byte {
		e := new(enc)
		e.u32(228) // attesting_indices offset
		e.u64(10)  // data.slot
		e.u64(1)
		e.marked(32, 0x05)
		e.u64(1)
		e.marked(32, 0x06)
		e.u64(2)
		e.marked(32, 0x07)
		e.marked(96, 0x08)
		for _, idx := range indices {
			e.u64(idx)
		}
		return e.b
	}
	att1 := indexed([]uint64{10, 20, 30})
	att2 := indexed([]uint64{20, 30, 40})

	e := new(enc)
	e.u32(8)
	e.u32(8 + uint32(len(att1)))
	e.raw(att1)
	e.raw(att2)

	slashing := new(AttesterSlashing)
	require.NoError(t, ssz.DecodeOnFork(e.b, slashing, ssz.ForkPhase0))
	assert.Equal(t, []uint64{10, 20, 30}, slashing.Attestation1.AttestingIndices)
	assert.Equal(t, []uint64{20, 30, 40}, slashing.Attestation2.AttestingIndices)
}

func TestBodyFixedSizes(t *testing.T) {
	body := new(BeaconBlockBody)
	assert.Equal(t, uint32(220), body.SizeSSZ(ssz.ForkPhase0))
	assert.Equal(t, uint32(380), body.SizeSSZ(ssz.ForkAltair))
	assert.Equal(t, uint32(384), body.SizeSSZ(ssz.ForkBellatrix))
	assert.Equal(t, uint32(388), body.SizeSSZ(ssz.ForkCapella))
	assert.Equal(t, uint32(392), body.SizeSSZ(ssz.ForkDeneb))
	assert.Equal(t, uint32(396), body.SizeSSZ(ssz.ForkElectra))

	payload := new(ExecutionPayload)
	assert.Equal(t, uint32(508), payload.SizeSSZ(ssz.ForkBellatrix))
	assert.Equal(t, uint32(512), payload.SizeSSZ(ssz.ForkCapella))
	assert.Equal(t, uint32(528), payload.SizeSSZ(ssz.ForkDeneb))

	assert.Equal(t, uint32(228), new(Attestation).SizeSSZ(ssz.ForkDeneb))
	assert.Equal(t, uint32(236), new(Attestation).SizeSSZ(ssz.ForkElectra))
	assert.Equal(t, uint32(1240), new(Deposit).SizeSSZ(ssz.ForkPhase0))
	assert.Equal(t, uint32(112), new(SignedVoluntaryExit).SizeSSZ(ssz.ForkPhase0))
	assert.Equal(t, uint32(172), new(SignedBLSToExecutionChange).SizeSSZ(ssz.ForkCapella))
	assert.Equal(t, uint32(192), new(DepositRequest).SizeSSZ(ssz.ForkElectra))
	assert.Equal(t, uint32(76), new(WithdrawalRequest).SizeSSZ(ssz.ForkElectra))
	assert.Equal(t, uint32(116), new(ConsolidationRequest).SizeSSZ(ssz.ForkElectra))
}
