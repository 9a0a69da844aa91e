// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package types contains the beacon-chain containers appearing inside era
// files, modelled as monolith types: one struct per container spanning every
// fork, with fork-gated fields resolved at decode time.
package types

// Hash is a 32 byte root or digest.
type Hash [32]byte

// Address is a 20 byte execution-layer address.
type Address [20]byte

// LogsBloom is a 256 byte execution-layer bloom filter.
type LogsBloom [256]byte

// BLSPubkey is a 48 byte BLS12-381 public key.
type BLSPubkey [48]byte

// BLSSignature is a 96 byte BLS12-381 signature.
type BLSSignature [96]byte

// KZGCommitment is a 48 byte KZG commitment to a blob.
type KZGCommitment [48]byte
