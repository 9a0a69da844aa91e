// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import "errors"

// ErrFirstOffsetMismatch is returned when parsing dynamic types and the first
// offset (which is supposed to signal the start of the dynamic area) does not
// match with the computed fixed area size.
var ErrFirstOffsetMismatch = errors.New("ssz: first offset mismatch")

// ErrBadOffsetProgression is returned when an offset is parsed, and is smaller
// than a previously seen offset (meaning negative dynamic data size).
var ErrBadOffsetProgression = errors.New("ssz: offset smaller than previous")

// ErrOffsetBeyondCapacity is returned when an offset is parsed, and is larger
// than the total capacity allowed by the decoder (i.e. message size).
var ErrOffsetBeyondCapacity = errors.New("ssz: offset beyond capacity")

// ErrShortCounterOffset is returned if a counter offset is attempted to be read
// but there are fewer than 4 bytes available in the list blob.
var ErrShortCounterOffset = errors.New("ssz: insufficient data for 4-byte counter offset")

// ErrBadCounterOffset is returned when a list of offsets is consumed and the
// first offset is not a multiple of 4-bytes.
var ErrBadCounterOffset = errors.New("ssz: counter offset not multiple of 4-bytes")

// ErrDynamicStaticsIndivisible is returned when a list of static objects is to
// be decoded, but the list's total length is not divisible by the item size.
var ErrDynamicStaticsIndivisible = errors.New("ssz: list of fixed objects not divisible")

// ErrShortFixedSection is returned when a fixed-size region is shorter than the
// schema requires.
var ErrShortFixedSection = errors.New("ssz: fixed section shorter than required")
