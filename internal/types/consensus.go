// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import "github.com/gnosischain/era-ingest/internal/ssz"

type Checkpoint struct {
	Epoch uint64
	Root  Hash
}

func (c *Checkpoint) SizeSSZ(fork ssz.Fork) uint32 { return 40 }
func (c *Checkpoint) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &c.Epoch)      // Field (0) - Epoch -  8 bytes
	ssz.DefineStaticBytes(dec, c.Root[:]) // Field (1) - Root  - 32 bytes
}

type Eth1Data struct {
	DepositRoot  Hash
	DepositCount uint64
	BlockHash    Hash
}

func (e *Eth1Data) SizeSSZ(fork ssz.Fork) uint32 { return 72 }
func (e *Eth1Data) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, e.DepositRoot[:]) // Field (0) - DepositRoot  - 32 bytes
	ssz.DefineUint64(dec, &e.DepositCount)       // Field (1) - DepositCount -  8 bytes
	ssz.DefineStaticBytes(dec, e.BlockHash[:])   // Field (2) - BlockHash    - 32 bytes
}

type BeaconBlockHeader struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    Hash
	StateRoot     Hash
	BodyRoot      Hash
}

func (h *BeaconBlockHeader) SizeSSZ(fork ssz.Fork) uint32 { return 112 }
func (h *BeaconBlockHeader) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &h.Slot)               // Field (0) - Slot          -  8 bytes
	ssz.DefineUint64(dec, &h.ProposerIndex)      // Field (1) - ProposerIndex -  8 bytes
	ssz.DefineStaticBytes(dec, h.ParentRoot[:])  // Field (2) - ParentRoot    - 32 bytes
	ssz.DefineStaticBytes(dec, h.StateRoot[:])   // Field (3) - StateRoot     - 32 bytes
	ssz.DefineStaticBytes(dec, h.BodyRoot[:])    // Field (4) - BodyRoot      - 32 bytes
}

type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader
	Signature BLSSignature
}

func (h *SignedBeaconBlockHeader) SizeSSZ(fork ssz.Fork) uint32 { return 208 }
func (h *SignedBeaconBlockHeader) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticObject(dec, &h.Header)      // Field (0) - Header    - 112 bytes
	ssz.DefineStaticBytes(dec, h.Signature[:])  // Field (1) - Signature -  96 bytes
}

type SyncAggregate struct {
	SyncCommitteeBits      [64]byte
	SyncCommitteeSignature BLSSignature
}

func (s *SyncAggregate) SizeSSZ(fork ssz.Fork) uint32 { return 160 }
func (s *SyncAggregate) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, s.SyncCommitteeBits[:])      // Field (0) - SyncCommitteeBits      - 64 bytes
	ssz.DefineStaticBytes(dec, s.SyncCommitteeSignature[:]) // Field (1) - SyncCommitteeSignature - 96 bytes
}
