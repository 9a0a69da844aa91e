// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Decoder is a wrapper around a []byte buffer implementing SSZ decoding. It has
// the following behaviors:
//
//  1. The decoder consumes the buffer strictly front to back. SSZ mandates that
//     dynamic payloads appear in offset order immediately after the fixed
//     section, so a single cursor suffices; the collected offsets are only used
//     to derive item sizes and to validate progression.
//
//  2. The decoder does not return errors from individual decoding methods.
//     Since there is no expectation (in general) for failure, user code can be
//     denser if error checking is done at the end. Internally an error halts
//     all future operations.
//
// Nested containers are decoded by pushing the outer buffer/length/offset state
// onto small stacks and re-entering the same cursor logic on the item's bytes.
type Decoder struct {
	buf    []byte // Remaining bytes of the container being decoded
	length uint32 // Total length of the container being decoded
	fork   Fork   // Fork to gate monolith fields by

	err error // Any error hit, halting future decoding calls

	offset  uint32   // First offset expected, or last offset seen after
	offsets []uint32 // Collected dynamic offsets of the current container
	sizes   []uint32 // Computed sizes for the dynamic fields, consumed in order

	bufs     [][]byte   // Stack of outer buffers from enclosing containers
	lengths  []uint32   // Stack of outer lengths from enclosing containers
	offsetX  []uint32   // Stack of outer first/last offsets
	offsetss [][]uint32 // Stack of outer offset queues
	sizess   [][]uint32 // Stack of outer size queues
}

// reset clears all decoder state before returning it to the pool.
func (dec *Decoder) reset() {
	dec.buf, dec.length, dec.fork, dec.err = nil, 0, ForkUnknown, nil
	dec.offset = 0
	dec.offsets = dec.offsets[:0]
	dec.sizes = dec.sizes[:0]
	dec.bufs = dec.bufs[:0]
	dec.lengths = dec.lengths[:0]
	dec.offsetX = dec.offsetX[:0]
	dec.offsetss = dec.offsetss[:0]
	dec.sizess = dec.sizess[:0]
}

// Fork returns the fork the decoder is running for, allowing asymmetric schema
// decisions that a plain filter cannot express.
func (dec *Decoder) Fork() Fork {
	return dec.fork
}

// consume takes the next n bytes off the front of the active buffer.
func (dec *Decoder) consume(n uint32) []byte {
	if dec.err != nil {
		return nil
	}
	if uint32(len(dec.buf)) < n {
		dec.err = fmt.Errorf("%w: need %d bytes, have %d", ErrShortFixedSection, n, len(dec.buf))
		return nil
	}
	blob := dec.buf[:n]
	dec.buf = dec.buf[n:]
	return blob
}

// decodeOffset parses the next 4-byte offset and validates its progression
// against the container bounds.
func (dec *Decoder) decodeOffset() {
	if dec.err != nil {
		return
	}
	blob := dec.consume(4)
	if dec.err != nil {
		return
	}
	offset := binary.LittleEndian.Uint32(blob)
	if offset > dec.length {
		dec.err = fmt.Errorf("%w: decoded %d, message length %d", ErrOffsetBeyondCapacity, offset, dec.length)
		return
	}
	if len(dec.offsets) == 0 && dec.offset != offset {
		dec.err = fmt.Errorf("%w: decoded %d, type expects %d", ErrFirstOffsetMismatch, offset, dec.offset)
		return
	}
	if len(dec.offsets) > 0 && dec.offset > offset {
		dec.err = fmt.Errorf("%w: decoded %d, previous was %d", ErrBadOffsetProgression, offset, dec.offset)
		return
	}
	dec.offset = offset
	dec.offsets = append(dec.offsets, offset)
}

// retrieveSize computes (on first use) and pops the size of the next dynamic
// field of the current container.
func (dec *Decoder) retrieveSize() uint32 {
	if dec.err != nil {
		return 0
	}
	if len(dec.sizes) == 0 {
		items := len(dec.offsets)
		for i := 0; i < items; i++ {
			end := dec.length
			if i < items-1 {
				end = dec.offsets[i+1]
			}
			dec.sizes = append(dec.sizes, end-dec.offsets[i])
		}
		dec.offsets = dec.offsets[:0]
	}
	size := dec.sizes[0]
	dec.sizes = dec.sizes[1:]
	return size
}

// startDynamics begins the decoding of a dynamic container: the fixed argument
// is the size of its fixed section, which the first parsed offset must match.
func (dec *Decoder) startDynamics(fixed uint32) {
	dec.offsetX = append(dec.offsetX, dec.offset)
	dec.offsetss = append(dec.offsetss, dec.offsets)
	dec.sizess = append(dec.sizess, dec.sizes)

	dec.offset, dec.offsets, dec.sizes = fixed, nil, nil
}

// flushDynamics closes out a dynamic container, restoring the bookkeeping of
// the enclosing one.
func (dec *Decoder) flushDynamics() {
	last := len(dec.offsetss) - 1

	dec.offset, dec.offsetX = dec.offsetX[last], dec.offsetX[:last]
	dec.offsets, dec.offsetss = dec.offsetss[last], dec.offsetss[:last]
	dec.sizes, dec.sizess = dec.sizess[last], dec.sizess[:last]
}

// enter switches the decoding cursor to a nested container's bytes.
func (dec *Decoder) enter(item []byte) {
	dec.bufs = append(dec.bufs, dec.buf)
	dec.lengths = append(dec.lengths, dec.length)
	dec.buf, dec.length = item, uint32(len(item))
}

// exit restores the decoding cursor of the enclosing container.
func (dec *Decoder) exit() {
	last := len(dec.bufs) - 1
	dec.buf, dec.bufs = dec.bufs[last], dec.bufs[:last]
	dec.length, dec.lengths = dec.lengths[last], dec.lengths[:last]
}

// decodeStaticItem parses a static object out of a byte slice.
func (dec *Decoder) decodeStaticItem(item []byte, obj Object) {
	dec.enter(item)
	obj.DefineSSZ(dec)
	dec.exit()
}

// decodeDynamicItem parses a dynamic object out of a byte slice.
func (dec *Decoder) decodeDynamicItem(item []byte, obj Object) {
	dec.enter(item)
	dec.startDynamics(obj.SizeSSZ(dec.fork))
	obj.DefineSSZ(dec)
	dec.flushDynamics()
	dec.exit()
}

// DefineUint64 defines the next field as a uint64.
func DefineUint64[T ~uint64](dec *Decoder, n *T) {
	blob := dec.consume(8)
	if dec.err != nil {
		return
	}
	*n = T(binary.LittleEndian.Uint64(blob))
}

// DefineUint64PointerOnFork defines the next field as a uint64 if present in
// the decoder's fork.
func DefineUint64PointerOnFork(dec *Decoder, n **uint64, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*n = nil
		return
	}
	blob := dec.consume(8)
	if dec.err != nil {
		return
	}
	v := binary.LittleEndian.Uint64(blob)
	*n = &v
}

// DefineUint256 defines the next field as a uint256, decoded from its 32-byte
// little-endian representation.
func DefineUint256(dec *Decoder, n **uint256.Int) {
	blob := dec.consume(32)
	if dec.err != nil {
		return
	}
	if *n == nil {
		*n = new(uint256.Int)
	}
	var buf [32]byte
	for i := 0; i < 32; i++ {
		buf[i] = blob[31-i]
	}
	(*n).SetBytes32(buf[:])
}

// DefineStaticBytes defines the next field as a static binary blob, filling the
// given byte slice (use arr[:] for byte arrays).
func DefineStaticBytes(dec *Decoder, blob []byte) {
	data := dec.consume(uint32(len(blob)))
	if dec.err != nil {
		return
	}
	copy(blob, data)
}

// DefineStaticBytesPointerOnFork defines the next field as a static binary blob
// if present in the decoder's fork.
func DefineStaticBytesPointerOnFork[T commonBytesLengths](dec *Decoder, blob **T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*blob = nil
		return
	}
	if *blob == nil {
		*blob = new(T)
	}
	DefineStaticBytes(dec, bytesOf(*blob))
}

// DefineArrayOfStaticBytes defines the next field as a fixed array of static
// binary blobs.
func DefineArrayOfStaticBytes[T commonBytesLengths](dec *Decoder, blobs []T) {
	for i := range blobs {
		DefineStaticBytes(dec, bytesOf(&blobs[i]))
	}
}

// DefineStaticObject defines the next field as a static SSZ object.
func DefineStaticObject[T newableObject[U], U any](dec *Decoder, obj *T) {
	if dec.err != nil {
		return
	}
	if *obj == nil {
		*obj = T(new(U))
	}
	(*obj).DefineSSZ(dec)
}

// DefineStaticObjectOnFork defines the next field as a static SSZ object if
// present in the decoder's fork.
func DefineStaticObjectOnFork[T newableObject[U], U any](dec *Decoder, obj *T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*obj = nil
		return
	}
	DefineStaticObject(dec, obj)
}

// DefineDynamicBytesOffset defines the next field as a dynamic binary blob.
func DefineDynamicBytesOffset(dec *Decoder, blob *[]byte) {
	dec.decodeOffset()
}

// DefineDynamicBytesContent defines the content of a dynamic binary blob.
func DefineDynamicBytesContent(dec *Decoder, blob *[]byte) {
	size := dec.retrieveSize()
	data := dec.consume(size)
	if dec.err != nil {
		return
	}
	*blob = append((*blob)[:0], data...)
}

// DefineDynamicObjectOffset defines the next field as a dynamic SSZ object.
func DefineDynamicObjectOffset[T newableObject[U], U any](dec *Decoder, obj *T) {
	dec.decodeOffset()
}

// DefineDynamicObjectOffsetOnFork defines the next field as a dynamic SSZ
// object if present in the decoder's fork.
func DefineDynamicObjectOffsetOnFork[T newableObject[U], U any](dec *Decoder, obj *T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		return
	}
	dec.decodeOffset()
}

// DefineDynamicObjectContent defines the content of a dynamic SSZ object.
func DefineDynamicObjectContent[T newableObject[U], U any](dec *Decoder, obj *T) {
	size := dec.retrieveSize()
	item := dec.consume(size)
	if dec.err != nil {
		return
	}
	if *obj == nil {
		*obj = T(new(U))
	}
	dec.decodeDynamicItem(item, *obj)
}

// DefineDynamicObjectContentOnFork defines the content of a dynamic SSZ object
// if present in the decoder's fork.
func DefineDynamicObjectContentOnFork[T newableObject[U], U any](dec *Decoder, obj *T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*obj = nil
		return
	}
	DefineDynamicObjectContent(dec, obj)
}

// DefineSliceOfUint64sOffset defines the next field as a dynamic slice of
// uint64s.
func DefineSliceOfUint64sOffset[T ~uint64](dec *Decoder, ns *[]T) {
	dec.decodeOffset()
}

// DefineSliceOfUint64sContent defines the content of a dynamic slice of
// uint64s.
func DefineSliceOfUint64sContent[T ~uint64](dec *Decoder, ns *[]T) {
	size := dec.retrieveSize()
	blob := dec.consume(size)
	if dec.err != nil {
		return
	}
	if size%8 != 0 {
		dec.err = fmt.Errorf("%w: uint64 list of %d bytes", ErrDynamicStaticsIndivisible, size)
		return
	}
	*ns = (*ns)[:0]
	for pos := uint32(0); pos < size; pos += 8 {
		*ns = append(*ns, T(binary.LittleEndian.Uint64(blob[pos:])))
	}
}

// DefineSliceOfStaticBytesOffset defines the next field as a dynamic slice of
// static binary blobs.
func DefineSliceOfStaticBytesOffset[T commonBytesLengths](dec *Decoder, blobs *[]T) {
	dec.decodeOffset()
}

// DefineSliceOfStaticBytesOffsetOnFork defines the next field as a dynamic
// slice of static binary blobs if present in the decoder's fork.
func DefineSliceOfStaticBytesOffsetOnFork[T commonBytesLengths](dec *Decoder, blobs *[]T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		return
	}
	dec.decodeOffset()
}

// DefineSliceOfStaticBytesContent defines the content of a dynamic slice of
// static binary blobs.
func DefineSliceOfStaticBytesContent[T commonBytesLengths](dec *Decoder, blobs *[]T) {
	size := dec.retrieveSize()
	blob := dec.consume(size)
	if dec.err != nil {
		return
	}
	var sample T
	items, err := SplitFixedList(blob, uint32(len(bytesOf(&sample))))
	if err != nil {
		dec.err = err
		return
	}
	*blobs = make([]T, len(items))
	for i, item := range items {
		copy(bytesOf(&(*blobs)[i]), item)
	}
}

// DefineSliceOfStaticBytesContentOnFork defines the content of a dynamic slice
// of static binary blobs if present in the decoder's fork.
func DefineSliceOfStaticBytesContentOnFork[T commonBytesLengths](dec *Decoder, blobs *[]T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*blobs = nil
		return
	}
	DefineSliceOfStaticBytesContent(dec, blobs)
}

// DefineSliceOfDynamicBytesOffset defines the next field as a dynamic slice of
// dynamic binary blobs.
func DefineSliceOfDynamicBytesOffset(dec *Decoder, blobs *[][]byte) {
	dec.decodeOffset()
}

// DefineSliceOfDynamicBytesContent defines the content of a dynamic slice of
// dynamic binary blobs.
func DefineSliceOfDynamicBytesContent(dec *Decoder, blobs *[][]byte) {
	size := dec.retrieveSize()
	blob := dec.consume(size)
	if dec.err != nil {
		return
	}
	items, err := SplitVariableList(blob)
	if err != nil {
		dec.err = err
		return
	}
	*blobs = make([][]byte, len(items))
	for i, item := range items {
		(*blobs)[i] = append([]byte(nil), item...)
	}
}

// DefineSliceOfStaticObjectsOffset defines the next field as a dynamic slice of
// static SSZ objects.
func DefineSliceOfStaticObjectsOffset[T newableObject[U], U any](dec *Decoder, objs *[]T) {
	dec.decodeOffset()
}

// DefineSliceOfStaticObjectsOffsetOnFork defines the next field as a dynamic
// slice of static SSZ objects if present in the decoder's fork.
func DefineSliceOfStaticObjectsOffsetOnFork[T newableObject[U], U any](dec *Decoder, objs *[]T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		return
	}
	dec.decodeOffset()
}

// DefineSliceOfStaticObjectsContent defines the content of a dynamic slice of
// static SSZ objects.
func DefineSliceOfStaticObjectsContent[T newableObject[U], U any](dec *Decoder, objs *[]T) {
	size := dec.retrieveSize()
	blob := dec.consume(size)
	if dec.err != nil {
		return
	}
	itemSize := T(new(U)).SizeSSZ(dec.fork)
	items, err := SplitFixedList(blob, itemSize)
	if err != nil {
		dec.err = err
		return
	}
	*objs = make([]T, len(items))
	for i, item := range items {
		(*objs)[i] = T(new(U))
		dec.decodeStaticItem(item, (*objs)[i])
	}
}

// DefineSliceOfStaticObjectsContentOnFork defines the content of a dynamic
// slice of static SSZ objects if present in the decoder's fork.
func DefineSliceOfStaticObjectsContentOnFork[T newableObject[U], U any](dec *Decoder, objs *[]T, filter ForkFilter) {
	if !filter.active(dec.fork) {
		*objs = nil
		return
	}
	DefineSliceOfStaticObjectsContent(dec, objs)
}

// DefineSliceOfDynamicObjectsOffset defines the next field as a dynamic slice
// of dynamic SSZ objects.
func DefineSliceOfDynamicObjectsOffset[T newableObject[U], U any](dec *Decoder, objs *[]T) {
	dec.decodeOffset()
}

// DefineSliceOfDynamicObjectsContent defines the content of a dynamic slice of
// dynamic SSZ objects.
func DefineSliceOfDynamicObjectsContent[T newableObject[U], U any](dec *Decoder, objs *[]T) {
	size := dec.retrieveSize()
	blob := dec.consume(size)
	if dec.err != nil {
		return
	}
	items, err := SplitVariableList(blob)
	if err != nil {
		dec.err = err
		return
	}
	*objs = make([]T, len(items))
	for i, item := range items {
		(*objs)[i] = T(new(U))
		dec.decodeDynamicItem(item, (*objs)[i])
	}
}
