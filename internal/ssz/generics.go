// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import "unsafe"

// newableObject is a generic type whose purpose is to enforce that ssz.Object
// is specifically implemented on a struct pointer. That's needed to allow us
// to instantiate new structs via `new` when parsing.
type newableObject[U any] interface {
	Object
	*U
}

// commonBytesLengths is a generic type whose purpose is to permit that lists
// of different fixed-sized binary blobs can be passed to methods.
//
// You can add any size to this list really, it's just a limitation of the Go
// generics compiler that it cannot represent arrays of arbitrary sizes with
// one shorthand notation.
type commonBytesLengths interface {
	// bits | address | root | pubkey | sync bits | signature
	~[8]byte | ~[20]byte | ~[32]byte | ~[48]byte | ~[64]byte | ~[96]byte
}

// bytesOf views a generic fixed-size byte array as a plain byte slice. Type
// parameters spanning multiple array lengths have no core type, so the usual
// arr[:] slicing is rejected by the compiler; indexing and len are fine.
func bytesOf[T commonBytesLengths](blob *T) []byte {
	return unsafe.Slice(&(*blob)[0], len(*blob))
}
