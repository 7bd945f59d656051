// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Container headers are unknown until the container ends, so space for the
// largest header (marker, 4 byte length, 4 byte count) is reserved up front
// and the contents are shifted back over the unused part.
const maxContainerHeader = 9

type writerFrame struct {
	start int
	count int
	array bool
}

// BinaryWriter writes the binary encoding.  With a bound dictionary, eligible
// field names and string values are replaced by dictionary codes.  Unless
// string encoding is disabled, other strings use the compact encodings and
// repeated strings become references to their first occurrence.
type BinaryWriter struct {
	g      writeGuard
	dict   *StringDictionary
	encode bool
	buf    []byte
	frames []writerFrame

	// Offsets into buf move whenever a container header is compacted, so
	// they are kept in ascending order and patched into references by
	// Result.
	shared     map[string]int
	sharedOffs []int
	refOffs    []int
	refTargets []int
}

var _ Writer = (*BinaryWriter)(nil)

// NewBinaryWriter returns a binary writer holding just the format byte.
func NewBinaryWriter(opts ...Option) *BinaryWriter {
	o := buildOptions(opts)
	buf := make([]byte, 1, 256)
	buf[0] = byte(BinaryFormat)
	return &BinaryWriter{
		g:      newWriteGuard(o.maxDepth),
		dict:   o.dict,
		encode: !o.noEncode,
		buf:    buf,
		frames: make([]writerFrame, 0, 8),
	}
}

// Format returns BinaryFormat.
func (w *BinaryWriter) Format() Format { return BinaryFormat }

// begin validates the next token and counts it as an item of its container.
func (w *BinaryWriter) begin(tt TokenType) error {
	if err := w.g.check(tt); err != nil {
		return err
	}
	if n := len(w.frames); n > 0 {
		f := &w.frames[n-1]
		if tt == FieldName || (f.array && tt != EndArray) {
			f.count++
		}
	}
	return nil
}

func (w *BinaryWriter) WriteArrayStart() error {
	return w.startContainer(BeginArray)
}

func (w *BinaryWriter) WriteArrayEnd() error {
	return w.endContainer(EndArray)
}

func (w *BinaryWriter) WriteObjectStart() error {
	return w.startContainer(BeginObject)
}

func (w *BinaryWriter) WriteObjectEnd() error {
	return w.endContainer(EndObject)
}

func (w *BinaryWriter) startContainer(tt TokenType) error {
	if err := w.begin(tt); err != nil {
		return err
	}
	w.frames = append(w.frames, writerFrame{start: len(w.buf), array: tt == BeginArray})
	w.buf = append(w.buf, make([]byte, maxContainerHeader)...)
	return nil
}

func (w *BinaryWriter) endContainer(tt TokenType) error {
	if err := w.begin(tt); err != nil {
		return err
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]

	contentStart := f.start + maxContainerHeader
	length := len(w.buf) - contentStart

	var hdr [maxContainerHeader]byte
	h := containerHeader(hdr[:0], f.array, length, f.count)
	n := copy(w.buf[f.start:], h)
	copy(w.buf[f.start+n:], w.buf[contentStart:])
	w.buf = w.buf[:f.start+n+length]
	shiftOffsets(w.sharedOffs, contentStart, maxContainerHeader-n)
	shiftOffsets(w.refOffs, contentStart, maxContainerHeader-n)
	return nil
}

// shiftOffsets moves the ascending offsets at or after from back by delta.
func shiftOffsets(offs []int, from, delta int) {
	for i := len(offs) - 1; i >= 0 && offs[i] >= from; i-- {
		offs[i] -= delta
	}
}

// containerHeader picks the smallest header for a container.
func containerHeader(out []byte, array bool, length, count int) []byte {
	base := markerObj0
	if array {
		base = markerArr0
	}
	switch {
	case count == 0:
		return append(out, base)
	case count == 1:
		return append(out, base+(markerArr1-markerArr0))
	case length <= math.MaxUint8:
		return append(out, base+(markerArrL1-markerArr0), byte(length))
	case length <= math.MaxUint16 && count <= math.MaxUint16:
		out = append(out, base+(markerArrLC2-markerArr0))
		out = binary.LittleEndian.AppendUint16(out, uint16(length))
		return binary.LittleEndian.AppendUint16(out, uint16(count))
	}
	out = append(out, base+(markerArrLC4-markerArr0))
	out = binary.LittleEndian.AppendUint32(out, uint32(length))
	return binary.LittleEndian.AppendUint32(out, uint32(count))
}

func (w *BinaryWriter) WriteFieldName(name string) error {
	return w.WriteUTF8FieldName([]byte(name))
}

func (w *BinaryWriter) WriteUTF8FieldName(name []byte) error {
	return w.writeString(FieldName, name)
}

func (w *BinaryWriter) WriteString(s string) error {
	return w.WriteUTF8String([]byte(s))
}

func (w *BinaryWriter) WriteUTF8String(s []byte) error {
	return w.writeString(String, s)
}

func (w *BinaryWriter) writeString(tt TokenType, s []byte) error {
	if w.g.err != nil {
		return w.g.err
	}
	if !utf8.Valid(s) {
		return w.g.fail(&ValueError{Offset: len(w.buf), Type: String, err: errInvalidUTF8})
	}
	if err := w.begin(tt); err != nil {
		return err
	}
	if id, ok := systemStringIDs[string(s)]; ok {
		w.buf = append(w.buf, markerSystemStringMin+byte(id))
		return nil
	}
	if w.dict != nil && dictionaryEligible(s) {
		if code, ok := w.dict.addBytes(s); ok {
			w.buf = appendDictionaryCode(w.buf, code)
			return nil
		}
	}
	if w.encode {
		if tt == String {
			if b, ok := appendGuidString(w.buf, s); ok {
				w.buf = b
				return nil
			}
			if b, ok := appendCompressedString(w.buf, s); ok {
				w.buf = b
				return nil
			}
		}
		if len(s) >= 2 && (tt == FieldName || len(s) <= maxReferenceValueLength) && w.reference(s) {
			return nil
		}
	}
	w.buf = appendInlineString(w.buf, s)
	return nil
}

// reference writes a reference to an earlier copy of s.  Otherwise it
// records where s is about to be written inline and returns false.
func (w *BinaryWriter) reference(s []byte) bool {
	if i, ok := w.shared[string(s)]; ok {
		width := referenceWidth(w.sharedOffs[i])
		w.refOffs = append(w.refOffs, len(w.buf))
		w.refTargets = append(w.refTargets, i)
		w.buf = append(w.buf, markerReferenceString1+byte(width-1))
		w.buf = append(w.buf, make([]byte, width)...)
		return true
	}
	off := len(w.buf)
	if uint64(off) > math.MaxUint32 || len(s) <= referenceWidth(off) {
		return false
	}
	if w.shared == nil {
		w.shared = make(map[string]int)
	}
	w.shared[string(s)] = len(w.sharedOffs)
	w.sharedOffs = append(w.sharedOffs, off)
	return false
}

// appendInlineString writes s after its length.
func appendInlineString(out []byte, s []byte) []byte {
	if len(s) < int(markerEncodedStringMax-markerEncodedStringMin) {
		out = append(out, markerEncodedStringMin+byte(len(s)))
		return append(out, s...)
	}
	out = appendLengthPrefixed(out, markerString1ByteLength, len(s))
	return append(out, s...)
}

func appendDictionaryCode(out []byte, code int) []byte {
	if code < oneByteDictionaryCodes {
		return append(out, markerUserString1Min+byte(code))
	}
	code -= oneByteDictionaryCodes
	return append(out, markerUserString2Min+byte(code/256), byte(code%256))
}

// WriteNumber writes a generic number.  Integers use the most compact
// encoding that holds them; floats are always 8 bytes.
func (w *BinaryWriter) WriteNumber(n Number64) error {
	if err := w.begin(Number); err != nil {
		return err
	}
	if n.IsInteger() {
		w.buf = appendIntegerNumber(w.buf, n.Int64())
		return nil
	}
	w.buf = append(w.buf, markerNumberDouble)
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(n.Float64()))
	return nil
}

func (w *BinaryWriter) WriteBool(b bool) error {
	if !b {
		if err := w.begin(False); err != nil {
			return err
		}
		w.buf = append(w.buf, markerFalse)
		return nil
	}
	if err := w.begin(True); err != nil {
		return err
	}
	w.buf = append(w.buf, markerTrue)
	return nil
}

func (w *BinaryWriter) WriteNull() error {
	if err := w.begin(Null); err != nil {
		return err
	}
	w.buf = append(w.buf, markerNull)
	return nil
}

func (w *BinaryWriter) WriteInt8(v int8) error {
	if err := w.begin(Int8); err != nil {
		return err
	}
	w.buf = append(w.buf, markerInt8, byte(v))
	return nil
}

func (w *BinaryWriter) WriteInt16(v int16) error {
	if err := w.begin(Int16); err != nil {
		return err
	}
	w.buf = append(w.buf, markerInt16)
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
	return nil
}

func (w *BinaryWriter) WriteInt32(v int32) error {
	if err := w.begin(Int32); err != nil {
		return err
	}
	w.buf = append(w.buf, markerInt32)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	return nil
}

func (w *BinaryWriter) WriteInt64(v int64) error {
	if err := w.begin(Int64); err != nil {
		return err
	}
	w.buf = append(w.buf, markerInt64)
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
	return nil
}

func (w *BinaryWriter) WriteUInt32(v uint32) error {
	if err := w.begin(UInt32); err != nil {
		return err
	}
	w.buf = append(w.buf, markerUInt32)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return nil
}

func (w *BinaryWriter) WriteFloat32(v float32) error {
	if err := w.begin(Float32); err != nil {
		return err
	}
	w.buf = append(w.buf, markerFloat32)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	return nil
}

func (w *BinaryWriter) WriteFloat64(v float64) error {
	if err := w.begin(Float64); err != nil {
		return err
	}
	w.buf = append(w.buf, markerFloat64)
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
	return nil
}

func (w *BinaryWriter) WriteGuid(g uuid.UUID) error {
	if err := w.begin(Guid); err != nil {
		return err
	}
	w.buf = append(w.buf, markerGuid)
	w.buf = append(w.buf, g[:]...)
	return nil
}

func (w *BinaryWriter) WriteBinary(b []byte) error {
	if err := w.begin(Binary); err != nil {
		return err
	}
	w.buf = appendLengthPrefixed(w.buf, markerBinary1ByteLength, len(b))
	w.buf = append(w.buf, b...)
	return nil
}

// writeRaw copies a complete binary value starting with tt.  Only the outer
// container is checked against the depth limit, so the caller guarantees
// that raw nests within it, holds no reference strings and uses w's
// dictionary for any codes.
func (w *BinaryWriter) writeRaw(tt TokenType, raw []byte) error {
	if err := w.g.checkRaw(tt); err != nil {
		return err
	}
	if n := len(w.frames); n > 0 && w.frames[n-1].array {
		w.frames[n-1].count++
	}
	w.buf = append(w.buf, raw...)
	return nil
}

// CurrentDepth returns the number of open containers.
func (w *BinaryWriter) CurrentDepth() int { return w.g.state.depth() }

// Result returns the binary document.  The slice is owned by the writer.
func (w *BinaryWriter) Result() ([]byte, error) {
	for i, pos := range w.refOffs {
		target := w.sharedOffs[w.refTargets[i]]
		width := int(w.buf[pos]-markerReferenceString1) + 1
		for j := 0; j < width; j++ {
			w.buf[pos+1+j] = byte(target >> (8 * j))
		}
	}
	return w.g.result(w.buf)
}
