// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import "github.com/gnosischain/era-ingest/internal/ssz"

type AttestationData struct {
	Slot            uint64
	CommitteeIndex  uint64
	BeaconBlockRoot Hash
	Source          *Checkpoint
	Target          *Checkpoint
}

func (a *AttestationData) SizeSSZ(fork ssz.Fork) uint32 { return 128 }
func (a *AttestationData) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &a.Slot)                    // Field (0) - Slot            -  8 bytes
	ssz.DefineUint64(dec, &a.CommitteeIndex)          // Field (1) - CommitteeIndex  -  8 bytes
	ssz.DefineStaticBytes(dec, a.BeaconBlockRoot[:])  // Field (2) - BeaconBlockRoot - 32 bytes
	ssz.DefineStaticObject(dec, &a.Source)            // Field (3) - Source          - 40 bytes
	ssz.DefineStaticObject(dec, &a.Target)            // Field (4) - Target          - 40 bytes
}

// Attestation is the on-chain aggregate attestation. Electra appended the
// committee bitvector when committee selection moved out of the data's index
// field.
type Attestation struct {
	AggregationBits []byte
	Data            *AttestationData
	Signature       BLSSignature
	CommitteeBits   *[8]byte // electra onward
}

func (a *Attestation) SizeSSZ(fork ssz.Fork) uint32 {
	size := uint32(228)
	if fork >= ssz.ForkElectra {
		size += 8
	}
	return size
}

func (a *Attestation) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineDynamicBytesOffset(dec, &a.AggregationBits)                                      // Offset (0) - AggregationBits -  4 bytes
	ssz.DefineStaticObject(dec, &a.Data)                                                       // Field  (1) - Data            - 128 bytes
	ssz.DefineStaticBytes(dec, a.Signature[:])                                                 // Field  (2) - Signature       -  96 bytes
	ssz.DefineStaticBytesPointerOnFork(dec, &a.CommitteeBits, ssz.ForkOnward(ssz.ForkElectra)) // Field  (3) - CommitteeBits   -   8 bytes [electra]

	ssz.DefineDynamicBytesContent(dec, &a.AggregationBits)
}

type IndexedAttestation struct {
	AttestingIndices []uint64
	Data             *AttestationData
	Signature        BLSSignature
}

func (a *IndexedAttestation) SizeSSZ(fork ssz.Fork) uint32 { return 228 }
func (a *IndexedAttestation) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineSliceOfUint64sOffset(dec, &a.AttestingIndices) // Offset (0) - AttestingIndices -   4 bytes
	ssz.DefineStaticObject(dec, &a.Data)                     // Field  (1) - Data             - 128 bytes
	ssz.DefineStaticBytes(dec, a.Signature[:])               // Field  (2) - Signature        -  96 bytes

	ssz.DefineSliceOfUint64sContent(dec, &a.AttestingIndices)
}
