// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package types

import "github.com/gnosischain/era-ingest/internal/ssz"

type DepositData struct {
	Pubkey                BLSPubkey
	WithdrawalCredentials Hash
	Amount                uint64
	Signature             BLSSignature
}

func (d *DepositData) SizeSSZ(fork ssz.Fork) uint32 { return 184 }
func (d *DepositData) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticBytes(dec, d.Pubkey[:])                // Field (0) - Pubkey                - 48 bytes
	ssz.DefineStaticBytes(dec, d.WithdrawalCredentials[:]) // Field (1) - WithdrawalCredentials - 32 bytes
	ssz.DefineUint64(dec, &d.Amount)                       // Field (2) - Amount                -  8 bytes
	ssz.DefineStaticBytes(dec, d.Signature[:])             // Field (3) - Signature             - 96 bytes
}

type Deposit struct {
	Proof [33]Hash
	Data  *DepositData
}

func (d *Deposit) SizeSSZ(fork ssz.Fork) uint32 { return 33*32 + 184 }
func (d *Deposit) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineArrayOfStaticBytes(dec, d.Proof[:]) // Field (0) - Proof - 1056 bytes
	ssz.DefineStaticObject(dec, &d.Data)          // Field (1) - Data  -  184 bytes
}

type VoluntaryExit struct {
	Epoch          uint64
	ValidatorIndex uint64
}

func (v *VoluntaryExit) SizeSSZ(fork ssz.Fork) uint32 { return 16 }
func (v *VoluntaryExit) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &v.Epoch)          // Field (0) - Epoch          - 8 bytes
	ssz.DefineUint64(dec, &v.ValidatorIndex) // Field (1) - ValidatorIndex - 8 bytes
}

type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit
	Signature BLSSignature
}

func (v *SignedVoluntaryExit) SizeSSZ(fork ssz.Fork) uint32 { return 112 }
func (v *SignedVoluntaryExit) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticObject(dec, &v.Exit)       // Field (0) - Exit      - 16 bytes
	ssz.DefineStaticBytes(dec, v.Signature[:]) // Field (1) - Signature - 96 bytes
}

type BLSToExecutionChange struct {
	ValidatorIndex     uint64
	FromBLSPubkey      BLSPubkey
	ToExecutionAddress Address
}

func (c *BLSToExecutionChange) SizeSSZ(fork ssz.Fork) uint32 { return 76 }
func (c *BLSToExecutionChange) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineUint64(dec, &c.ValidatorIndex)              // Field (0) - ValidatorIndex     -  8 bytes
	ssz.DefineStaticBytes(dec, c.FromBLSPubkey[:])        // Field (1) - FromBLSPubkey      - 48 bytes
	ssz.DefineStaticBytes(dec, c.ToExecutionAddress[:])   // Field (2) - ToExecutionAddress - 20 bytes
}

type SignedBLSToExecutionChange struct {
	Change    *BLSToExecutionChange
	Signature BLSSignature
}

func (c *SignedBLSToExecutionChange) SizeSSZ(fork ssz.Fork) uint32 { return 172 }
func (c *SignedBLSToExecutionChange) DefineSSZ(dec *ssz.Decoder) {
	ssz.DefineStaticObject(dec, &c.Change)     // Field (0) - Change    - 76 bytes
	ssz.DefineStaticBytes(dec, c.Signature[:]) // Field (1) - Signature - 96 bytes
}
