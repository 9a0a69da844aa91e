// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ssz contains a decode-only SSZ codec for the beacon-chain containers
// found inside era files. Types describe their wire layout by implementing
// DefineSSZ as an ordered sequence of field definitions; fork-gated fields use
// the OnFork variants so a single monolith type can span every protocol
// version.
package ssz

import "sync"

// Object defines the methods a type needs to implement to be decodable from an
// SSZ stream.
type Object interface {
	// SizeSSZ returns the size of the object's fixed section under the given
	// fork: every inlined static field plus one 4-byte word per dynamic field.
	// For static objects the fixed section is the entire encoding.
	SizeSSZ(fork Fork) uint32

	// DefineSSZ runs the object's schema definition against an SSZ decoder.
	// Dynamic fields are defined twice, an Offset call in fixed-section order
	// and a Content call in payload order.
	DefineSSZ(dec *Decoder)
}

// decoderPool reuses decoders across block parses to avoid hitting Go's GC
// with the bookkeeping slices.
var decoderPool = sync.Pool{
	New: func() any { return new(Decoder) },
}

// DecodeOnFork parses a dynamic object out of a contiguous buffer, using the
// schema layout the object declares for the given fork.
func DecodeOnFork(blob []byte, obj Object, fork Fork) error {
	dec := decoderPool.Get().(*Decoder)
	defer func() {
		dec.reset()
		decoderPool.Put(dec)
	}()

	dec.buf, dec.length, dec.fork = blob, uint32(len(blob)), fork

	dec.startDynamics(obj.SizeSSZ(fork))
	obj.DefineSSZ(dec)
	dec.flushDynamics()

	return dec.err
}

// DecodeStaticOnFork parses a static object out of a contiguous buffer.
func DecodeStaticOnFork(blob []byte, obj Object, fork Fork) error {
	dec := decoderPool.Get().(*Decoder)
	defer func() {
		dec.reset()
		decoderPool.Put(dec)
	}()

	dec.buf, dec.length, dec.fork = blob, uint32(len(blob)), fork
	obj.DefineSSZ(dec)

	return dec.err
}
