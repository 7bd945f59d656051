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

// binaryFrame tracks an open container.  Containers with a length end at a
// fixed offset; single item containers end after a fixed number of values.
type binaryFrame struct {
	object    bool
	end       int
	remaining int
}

func (f binaryFrame) bounded() bool { return f.end >= 0 }

// BinaryReader reads tokens from a binary buffer.
type BinaryReader struct {
	buf    []byte
	dict   *StringDictionary
	pos    int
	state  objectState
	frames []binaryFrame
	tt     TokenType
	cur    int
	hdr    valueHeader
	err    error
}

var _ Reader = (*BinaryReader)(nil)

// NewBinaryReader returns a reader over a binary buffer, which must start with
// the binary format byte.
func NewBinaryReader(buf []byte, opts ...Option) (*BinaryReader, error) {
	if DetectFormat(buf) != BinaryFormat {
		return nil, newSyntaxError(buf, 0, "missing binary format marker")
	}
	o := buildOptions(opts)
	return &BinaryReader{
		buf:    buf,
		dict:   o.dict,
		pos:    1,
		state:  newObjectState(o.maxDepth),
		frames: make([]binaryFrame, 0, 8),
	}, nil
}

// Format returns BinaryFormat.
func (r *BinaryReader) Format() Format { return BinaryFormat }

// Read advances to the next token.  Errors are sticky.
func (r *BinaryReader) Read() (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	ok, err := r.next()
	if err != nil {
		r.err = err
		return false, err
	}
	return ok, nil
}

// limit is the offset no value may extend past.
func (r *BinaryReader) limit() int {
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].bounded() {
			return r.frames[i].end
		}
	}
	return len(r.buf)
}

func (r *BinaryReader) next() (bool, error) {
	if n := len(r.frames); n > 0 {
		f := r.frames[n-1]
		if (f.bounded() && r.pos >= f.end) || (!f.bounded() && f.remaining == 0) {
			if f.bounded() && r.pos > f.end {
				return false, newSyntaxError(r.buf, r.pos, "value overruns container")
			}
			tt := EndArray
			if f.object {
				tt = EndObject
			}
			if err := r.state.register(tt); err != nil {
				return false, &SyntaxError{Offset: r.pos, msg: "unexpected end of container", err: err}
			}
			r.frames = r.frames[:n-1]
			r.tt = tt
			r.cur = r.pos
			return true, nil
		}
	}

	if r.state.complete() {
		if r.pos < len(r.buf) {
			return false, newSyntaxError(r.buf, r.pos, "unexpected data after root value")
		}
		return false, nil
	}

	h, err := readHeader(r.buf, r.pos)
	if err != nil {
		return false, err
	}
	tt := h.typ
	if r.state.expectingName() {
		if tt != String {
			return false, newSyntaxError(r.buf, r.pos, "expecting field name")
		}
		tt = FieldName
	}
	end := r.pos + h.header
	if h.length > 0 {
		end += h.length
	}
	if end > r.limit() {
		return false, newSyntaxError(r.buf, r.pos, "value overruns container")
	}
	if err := r.state.register(tt); err != nil {
		return false, &SyntaxError{Offset: r.pos, msg: "unexpected " + tt.String(), err: err}
	}

	if n := len(r.frames); n > 0 && !r.frames[n-1].bounded() {
		r.frames[n-1].remaining--
	}
	r.tt = tt
	r.cur = r.pos
	r.hdr = h

	if h.isContainer() {
		f := binaryFrame{object: h.typ == BeginObject, end: end}
		if h.length < 0 {
			f.end = -1
			f.remaining = 1
			if f.object {
				f.remaining = 2
			}
		}
		r.frames = append(r.frames, f)
		r.pos += h.header
		return true, nil
	}
	r.pos = end
	return true, nil
}

// TokenType returns the kind of the current token.
func (r *BinaryReader) TokenType() TokenType { return r.tt }

// CurrentDepth returns the nesting depth after the current token.
func (r *BinaryReader) CurrentDepth() int { return r.state.depth() }

func (r *BinaryReader) StringValue() (string, error) {
	if r.tt != String && r.tt != FieldName {
		return "", mismatch(String, r.tt)
	}
	return decodeString(r.buf, r.cur, r.hdr, r.dict)
}

func (r *BinaryReader) BufferedString() ([]byte, bool) {
	if r.tt != String && r.tt != FieldName {
		return nil, false
	}
	return binaryBufferedString(r.buf, r.cur, r.hdr)
}

func (r *BinaryReader) NumberValue() (Number64, error) {
	if r.tt != Number {
		return Number64{}, mismatch(Number, r.tt)
	}
	return decodeNumber(r.buf, r.cur, r.hdr), nil
}

func (r *BinaryReader) Int8Value() (int8, error) {
	p, err := r.scalar(Int8)
	if err != nil {
		return 0, err
	}
	return int8(p[0]), nil
}

func (r *BinaryReader) Int16Value() (int16, error) {
	p, err := r.scalar(Int16)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(p)), nil
}

func (r *BinaryReader) Int32Value() (int32, error) {
	p, err := r.scalar(Int32)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

func (r *BinaryReader) Int64Value() (int64, error) {
	p, err := r.scalar(Int64)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(p)), nil
}

func (r *BinaryReader) UInt32Value() (uint32, error) {
	p, err := r.scalar(UInt32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *BinaryReader) Float32Value() (float32, error) {
	p, err := r.scalar(Float32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p)), nil
}

func (r *BinaryReader) Float64Value() (float64, error) {
	p, err := r.scalar(Float64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p)), nil
}

func (r *BinaryReader) GuidValue() (uuid.UUID, error) {
	p, err := r.scalar(Guid)
	if err != nil {
		return uuid.UUID{}, err
	}
	return uuid.UUID(p), nil
}

// BinaryValue returns the current Binary token's bytes.  The slice aliases the
// reader's buffer.
func (r *BinaryReader) BinaryValue() ([]byte, error) {
	return r.scalar(Binary)
}

func (r *BinaryReader) scalar(want TokenType) ([]byte, error) {
	if r.tt != want {
		return nil, mismatch(want, r.tt)
	}
	return payload(r.buf, r.cur, r.hdr), nil
}

// binaryBufferedString is bufferedString restricted to valid UTF-8.
func binaryBufferedString(buf []byte, pos int, h valueHeader) ([]byte, bool) {
	b, ok := bufferedString(buf, pos, h)
	if !ok || !utf8.Valid(b) {
		return nil, false
	}
	return b, true
}
