// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import (
	"github.com/holiman/uint256"

	"github.com/gnosischain/era-ingest/internal/ssz"
)

type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        Address
	Amount         uint64
}

func (w *Withdrawal) SizeSSZ(fork ssz.Fork) uint32 { return 44 }
func (w *Withdrawal) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &w.Index)            // Field (0) - Index          -  8 bytes
	ssz.DefineUint64(dec, &w.ValidatorIndex)   // Field (1) - ValidatorIndex -  8 bytes
	ssz.DefineStaticBytes(dec, w.Address[:])   // Field (2) - Address        - 20 bytes
	ssz.DefineUint64(dec, &w.Amount)           // Field (3) - Amount         -  8 bytes
}

// ExecutionPayload is the post-merge execution-layer block embedded in the
// body. Capella appended withdrawals, Deneb the blob gas pair.
type ExecutionPayload struct {
	ParentHash    Hash
	FeeRecipient  Address
	StateRoot     Hash
	ReceiptsRoot  Hash
	LogsBloom     LogsBloom
	PrevRandao    Hash
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     []byte
	BaseFeePerGas *uint256.Int
	BlockHash     Hash
	Transactions  [][]byte
	Withdrawals   []*Withdrawal // capella onward
	BlobGasUsed   *uint64       // deneb onward
	ExcessBlobGas *uint64       // deneb onward
}

func (e *ExecutionPayload) SizeSSZ(fork ssz.Fork) uint32 {
	size := uint32(508)
	if fork >= ssz.ForkCapella {
		size += 4
	}
	if fork >= ssz.ForkDeneb {
		size += 16
	}
	return size
}

func (e *ExecutionPayload) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, e.ParentHash[:])                                                  // Field  ( 0) - ParentHash    -  32 bytes
	ssz.DefineStaticBytes(dec, e.FeeRecipient[:])                                                // Field  ( 1) - FeeRecipient  -  20 bytes
	ssz.DefineStaticBytes(dec, e.StateRoot[:])                                                   // Field  ( 2) - StateRoot     -  32 bytes
	ssz.DefineStaticBytes(dec, e.ReceiptsRoot[:])                                                // Field  ( 3) - ReceiptsRoot  -  32 bytes
	ssz.DefineStaticBytes(dec, e.LogsBloom[:])                                                   // Field  ( 4) - LogsBloom     - 256 bytes
	ssz.DefineStaticBytes(dec, e.PrevRandao[:])                                                  // Field  ( 5) - PrevRandao    -  32 bytes
	ssz.DefineUint64(dec, &e.BlockNumber)                                                        // Field  ( 6) - BlockNumber   -   8 bytes
	ssz.DefineUint64(dec, &e.GasLimit)                                                           // Field  ( 7) - GasLimit      -   8 bytes
	ssz.DefineUint64(dec, &e.GasUsed)                                                            // Field  ( 8) - GasUsed       -   8 bytes
	ssz.DefineUint64(dec, &e.Timestamp)                                                          // Field  ( 9) - Timestamp     -   8 bytes
	ssz.DefineDynamicBytesOffset(dec, &e.ExtraData)                                              // Offset (10) - ExtraData     -   4 bytes
	ssz.DefineUint256(dec, &e.BaseFeePerGas)                                                     // Field  (11) - BaseFeePerGas -  32 bytes
	ssz.DefineStaticBytes(dec, e.BlockHash[:])                                                   // Field  (12) - BlockHash     -  32 bytes
	ssz.DefineSliceOfDynamicBytesOffset(dec, &e.Transactions)                                    // Offset (13) - Transactions  -   4 bytes
	ssz.DefineSliceOfStaticObjectsOffsetOnFork(dec, &e.Withdrawals, ssz.ForkOnward(ssz.ForkCapella)) // Offset (14) - Withdrawals -  4 bytes [capella]
	ssz.DefineUint64PointerOnFork(dec, &e.BlobGasUsed, ssz.ForkOnward(ssz.ForkDeneb))            // Field  (15) - BlobGasUsed   -   8 bytes [deneb]
	ssz.DefineUint64PointerOnFork(dec, &e.ExcessBlobGas, ssz.ForkOnward(ssz.ForkDeneb))          // Field  (16) - ExcessBlobGas -   8 bytes [deneb]

	ssz.DefineDynamicBytesContent(dec, &e.ExtraData)
	ssz.DefineSliceOfDynamicBytesContent(dec, &e.Transactions)
	ssz.DefineSliceOfStaticObjectsContentOnFork(dec, &e.Withdrawals, ssz.ForkOnward(ssz.ForkCapella))
}

type DepositRequest struct {
	Pubkey                BLSPubkey
	WithdrawalCredentials Hash
	Amount                uint64
	Signature             BLSSignature
	Index                 uint64
}

func (r *DepositRequest) SizeSSZ(fork ssz.Fork) uint32 { return 192 }
func (r *DepositRequest) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, r.Pubkey[:])                // Field (0) - Pubkey                - 48 bytes
	ssz.DefineStaticBytes(dec, r.WithdrawalCredentials[:]) // Field (1) - WithdrawalCredentials - 32 bytes
	ssz.DefineUint64(dec, &r.Amount)                       // Field (2) - Amount                -  8 bytes
	ssz.DefineStaticBytes(dec, r.Signature[:])             // Field (3) - Signature             - 96 bytes
	ssz.DefineUint64(dec, &r.Index)                        // Field (4) - Index                 -  8 bytes
}

type WithdrawalRequest struct {
	SourceAddress   Address
	ValidatorPubkey BLSPubkey
	Amount          uint64
}

func (r *WithdrawalRequest) SizeSSZ(fork ssz.Fork) uint32 { return 76 }
func (r *WithdrawalRequest) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, r.SourceAddress[:])   // Field (0) - SourceAddress   - 20 bytes
	ssz.DefineStaticBytes(dec, r.ValidatorPubkey[:]) // Field (1) - ValidatorPubkey - 48 bytes
	ssz.DefineUint64(dec, &r.Amount)                 // Field (2) - Amount          -  8 bytes
}

type ConsolidationRequest struct {
	SourceAddress Address
	SourcePubkey  BLSPubkey
	TargetPubkey  BLSPubkey
}

func (r *ConsolidationRequest) SizeSSZ(fork ssz.Fork) uint32 { return 116 }
func (r *ConsolidationRequest) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, r.SourceAddress[:]) // Field (0) - SourceAddress - 20 bytes
	ssz.DefineStaticBytes(dec, r.SourcePubkey[:])  // Field (1) - SourcePubkey  - 48 bytes
	ssz.DefineStaticBytes(dec, r.TargetPubkey[:])  // Field (2) - TargetPubkey  - 48 bytes
}

// ExecutionRequests is the Electra container of typed request lists surfaced
// from the execution layer.
type ExecutionRequests struct {
	Deposits       []*DepositRequest
	Withdrawals    []*WithdrawalRequest
	Consolidations []*ConsolidationRequest
}

func (r *ExecutionRequests) SizeSSZ(fork ssz.Fork) uint32 { return 12 }
func (r *ExecutionRequests) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineSliceOfStaticObjectsOffset(dec, &r.Deposits)       // Offset (0) - Deposits       - 4 bytes
	ssz.DefineSliceOfStaticObjectsOffset(dec, &r.Withdrawals)    // Offset (1) - Withdrawals    - 4 bytes
	ssz.DefineSliceOfStaticObjectsOffset(dec, &r.Consolidations) // Offset (2) - Consolidations - 4 bytes

	ssz.DefineSliceOfStaticObjectsContent(dec, &r.Deposits)
	ssz.DefineSliceOfStaticObjectsContent(dec, &r.Withdrawals)
	ssz.DefineSliceOfStaticObjectsContent(dec, &r.Consolidations)
}
