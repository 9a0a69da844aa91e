// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import "github.com/gnosischain/era-ingest/internal/ssz"

type ProposerSlashing struct {
	SignedHeader1 *SignedBeaconBlockHeader
	SignedHeader2 *SignedBeaconBlockHeader
}

func (p *ProposerSlashing) SizeSSZ(fork ssz.Fork) uint32 { return 416 }
func (p *ProposerSlashing) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticObject(dec, &p.SignedHeader1) // Field (0) - SignedHeader1 - 208 bytes
	ssz.DefineStaticObject(dec, &p.SignedHeader2) // Field (1) - SignedHeader2 - 208 bytes
}

type AttesterSlashing struct {
	Attestation1 *IndexedAttestation
	Attestation2 *IndexedAttestation
}

func (a *AttesterSlashing) SizeSSZ(fork ssz.Fork) uint32 { return 8 }
func (a *AttesterSlashing) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineDynamicObjectOffset(dec, &a.Attestation1) // Offset (0) - Attestation1 - 4 bytes
	ssz.DefineDynamicObjectOffset(dec, &a.Attestation2) // Offset (1) - Attestation2 - 4 bytes

	ssz.DefineDynamicObjectContent(dec, &a.Attestation1)
	ssz.DefineDynamicObjectContent(dec, &a.Attestation2)
}
