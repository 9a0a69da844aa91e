// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import "github.com/gnosischain/era-ingest/internal/ssz"

// BeaconBlockBody is the monolith body spanning phase0 through electra. Each
// fork appends fields after the previous layout, which is exactly what the
// fork-gated schema below expresses.
type BeaconBlockBody struct {
	RandaoReveal       BLSSignature
	Eth1Data           *Eth1Data
	Graffiti           [32]byte
	ProposerSlashings  []*ProposerSlashing
	AttesterSlashings  []*AttesterSlashing
	Attestations       []*Attestation
	Deposits           []*Deposit
	VoluntaryExits     []*SignedVoluntaryExit
	SyncAggregate      *SyncAggregate                // altair onward
	ExecutionPayload   *ExecutionPayload             // bellatrix onward
	BLSChanges         []*SignedBLSToExecutionChange // capella onward
	BlobKZGCommitments []KZGCommitment               // deneb onward
	ExecutionRequests  *ExecutionRequests            // electra onward
}

func (b *BeaconBlockBody) SizeSSZ(fork ssz.Fork) uint32 {
	size := uint32(220)
	if fork >= ssz.ForkAltair {
		size += 160
	}
	if fork >= ssz.ForkBellatrix {
		size += 4
	}
	if fork >= ssz.ForkCapella {
		size += 4
	}
	if fork >= ssz.ForkDeneb {
		size += 4
	}
	if fork >= ssz.ForkElectra {
		size += 4
	}
	return size
}

func (b *BeaconBlockBody) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, b.RandaoReveal[:])                                                          // Field  ( 0) - RandaoReveal      -  96 bytes
	ssz.DefineStaticObject(dec, &b.Eth1Data)                                                               // Field  ( 1) - Eth1Data          -  72 bytes
	ssz.DefineStaticBytes(dec, b.Graffiti[:])                                                              // Field  ( 2) - Graffiti          -  32 bytes
	ssz.DefineSliceOfStaticObjectsOffset(dec, &b.ProposerSlashings)                                        // Offset ( 3) - ProposerSlashings -   4 bytes
	ssz.DefineSliceOfDynamicObjectsOffset(dec, &b.AttesterSlashings)                                       // Offset ( 4) - AttesterSlashings -   4 bytes
	ssz.DefineSliceOfDynamicObjectsOffset(dec, &b.Attestations)                                            // Offset ( 5) - Attestations      -   4 bytes
	ssz.DefineSliceOfStaticObjectsOffset(dec, &b.Deposits)                                                 // Offset ( 6) - Deposits          -   4 bytes
	ssz.DefineSliceOfStaticObjectsOffset(dec, &b.VoluntaryExits)                                           // Offset ( 7) - VoluntaryExits    -   4 bytes
	ssz.DefineStaticObjectOnFork(dec, &b.SyncAggregate, ssz.ForkOnward(ssz.ForkAltair))                    // Field  ( 8) - SyncAggregate     - 160 bytes [altair]
	ssz.DefineDynamicObjectOffsetOnFork(dec, &b.ExecutionPayload, ssz.ForkOnward(ssz.ForkBellatrix))       // Offset ( 9) - ExecutionPayload  -   4 bytes [bellatrix]
	ssz.DefineSliceOfStaticObjectsOffsetOnFork(dec, &b.BLSChanges, ssz.ForkOnward(ssz.ForkCapella))        // Offset (10) - BLSChanges        -   4 bytes [capella]
	ssz.DefineSliceOfStaticBytesOffsetOnFork(dec, &b.BlobKZGCommitments, ssz.ForkOnward(ssz.ForkDeneb))    // Offset (11) - BlobKZGCommitments -  4 bytes [deneb]
	ssz.DefineDynamicObjectOffsetOnFork(dec, &b.ExecutionRequests, ssz.ForkOnward(ssz.ForkElectra))        // Offset (12) - ExecutionRequests -   4 bytes [electra]

	ssz.DefineSliceOfStaticObjectsContent(dec, &b.ProposerSlashings)
	ssz.DefineSliceOfDynamicObjectsContent(dec, &b.AttesterSlashings)
	ssz.DefineSliceOfDynamicObjectsContent(dec, &b.Attestations)
	ssz.DefineSliceOfStaticObjectsContent(dec, &b.Deposits)
	ssz.DefineSliceOfStaticObjectsContent(dec, &b.VoluntaryExits)
	ssz.DefineDynamicObjectContentOnFork(dec, &b.ExecutionPayload, ssz.ForkOnward(ssz.ForkBellatrix))
	ssz.DefineSliceOfStaticObjectsContentOnFork(dec, &b.BLSChanges, ssz.ForkOnward(ssz.ForkCapella))
	ssz.DefineSliceOfStaticBytesContentOnFork(dec, &b.BlobKZGCommitments, ssz.ForkOnward(ssz.ForkDeneb))
	ssz.DefineDynamicObjectContentOnFork(dec, &b.ExecutionRequests, ssz.ForkOnward(ssz.ForkElectra))
}

type BeaconBlock struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    Hash
	StateRoot     Hash
	Body          *BeaconBlockBody
}

func (b *BeaconBlock) SizeSSZ(fork ssz.Fork) uint32 { return 84 }
func (b *BeaconBlock) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &b.Slot)              // Field  (0) - Slot          -  8 bytes
	ssz.DefineUint64(dec, &b.ProposerIndex)     // Field  (1) - ProposerIndex -  8 bytes
	ssz.DefineStaticBytes(dec, b.ParentRoot[:]) // Field  (2) - ParentRoot    - 32 bytes
	ssz.DefineStaticBytes(dec, b.StateRoot[:])  // Field  (3) - StateRoot     - 32 bytes
	ssz.DefineDynamicObjectOffset(dec, &b.Body) // Offset (4) - Body          -  4 bytes

	ssz.DefineDynamicObjectContent(dec, &b.Body)
}

// SignedBeaconBlock is the outer container stored (snappy-compressed) in era
// files.
type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature BLSSignature
}

func (b *SignedBeaconBlock) SizeSSZ(fork ssz.Fork) uint32 { return 100 }
func (b *SignedBeaconBlock) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineDynamicObjectOffset(dec, &b.Block) // Offset (0) - Block     -  4 bytes
	ssz.DefineStaticBytes(dec, b.Signature[:])   // Field  (1) - Signature - 96 bytes

	ssz.DefineDynamicObjectContent(dec, &b.Block)
}

// DecodeSignedBeaconBlock parses a signed beacon block from its uncompressed
// SSZ encoding under the given fork.
func DecodeSignedBeaconBlock(blob []byte, fork ssz.Fork) (*SignedBeaconBlock, error) {
	block := new(SignedBeaconBlock)
	if err := ssz.DecodeOnFork(blob, block, fork); err != nil {
		return nil, err
	}
	return block, nil
}
