// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"encoding/binary"
	"iter"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// BinaryNavigator navigates a binary buffer in place.  Nodes are byte offsets
// of value markers.
type BinaryNavigator struct {
	buf  []byte
	dict *StringDictionary
}

var _ Navigator = (*BinaryNavigator)(nil)

// NewBinaryNavigator validates the structure of buf and returns a navigator
// over it.
func NewBinaryNavigator(buf []byte, opts ...Option) (*BinaryNavigator, error) {
	r, err := NewBinaryReader(buf, opts...)
	if err != nil {
		return nil, err
	}
	for {
		ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	return &BinaryNavigator{buf: buf, dict: r.dict}, nil
}

// Format returns BinaryFormat.
func (nav *BinaryNavigator) Format() Format { return BinaryFormat }

// Root returns the node just after the format byte.
func (nav *BinaryNavigator) Root() Node { return Node{off: 1} }

func (nav *BinaryNavigator) header(n Node) valueHeader {
	// Offsets handed out by this navigator point at validated values.
	h, _ := readHeader(nav.buf, n.off)
	return h
}

// NodeType returns the kind of value at n.
func (nav *BinaryNavigator) NodeType(n Node) NodeType {
	return nodeTypeOf(nav.header(n).typ)
}

func (nav *BinaryNavigator) scalar(n Node, want TokenType) ([]byte, error) {
	h := nav.header(n)
	if h.typ != want {
		return nil, mismatch(want, h.typ)
	}
	return payload(nav.buf, n.off, h), nil
}

func (nav *BinaryNavigator) StringValue(n Node) (string, error) {
	h := nav.header(n)
	if h.typ != String {
		return "", mismatch(String, h.typ)
	}
	return decodeString(nav.buf, n.off, h, nav.dict)
}

func (nav *BinaryNavigator) BufferedString(n Node) ([]byte, bool) {
	h := nav.header(n)
	if h.typ != String {
		return nil, false
	}
	return binaryBufferedString(nav.buf, n.off, h)
}

func (nav *BinaryNavigator) NumberValue(n Node) (Number64, error) {
	h := nav.header(n)
	if h.typ != Number {
		return Number64{}, mismatch(Number, h.typ)
	}
	return decodeNumber(nav.buf, n.off, h), nil
}

func (nav *BinaryNavigator) Int8Value(n Node) (int8, error) {
	p, err := nav.scalar(n, Int8)
	if err != nil {
		return 0, err
	}
	return int8(p[0]), nil
}

func (nav *BinaryNavigator) Int16Value(n Node) (int16, error) {
	p, err := nav.scalar(n, Int16)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(p)), nil
}

func (nav *BinaryNavigator) Int32Value(n Node) (int32, error) {
	p, err := nav.scalar(n, Int32)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

func (nav *BinaryNavigator) Int64Value(n Node) (int64, error) {
	p, err := nav.scalar(n, Int64)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(p)), nil
}

func (nav *BinaryNavigator) UInt32Value(n Node) (uint32, error) {
	p, err := nav.scalar(n, UInt32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (nav *BinaryNavigator) Float32Value(n Node) (float32, error) {
	p, err := nav.scalar(n, Float32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p)), nil
}

func (nav *BinaryNavigator) Float64Value(n Node) (float64, error) {
	p, err := nav.scalar(n, Float64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p)), nil
}

func (nav *BinaryNavigator) GuidValue(n Node) (uuid.UUID, error) {
	p, err := nav.scalar(n, Guid)
	if err != nil {
		return uuid.UUID{}, err
	}
	return uuid.UUID(p), nil
}

// BinaryValue returns the bytes of a Binary node.  The slice aliases the
// navigator's buffer.
func (nav *BinaryNavigator) BinaryValue(n Node) ([]byte, error) {
	return nav.scalar(n, Binary)
}

// children yields the offsets of the values directly inside a container.
// Object contents alternate between names and values.
func (nav *BinaryNavigator) children(pos int, h valueHeader) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		off := pos + h.header
		end, remaining := off+h.length, -1
		if h.length < 0 {
			remaining = 1
			if h.typ == BeginObject {
				remaining = 2
			}
		}
		for remaining != 0 && (remaining > 0 || off < end) {
			if !yield(off, nil) {
				return
			}
			l, err := valueLength(nav.buf, off)
			if err != nil {
				yield(0, err)
				return
			}
			off += l
			if remaining > 0 {
				remaining--
			}
		}
	}
}

func (nav *BinaryNavigator) container(n Node, want TokenType) (valueHeader, error) {
	h := nav.header(n)
	if h.typ != want {
		return h, mismatch(want, h.typ)
	}
	return h, nil
}

// ArrayLen returns the number of items.  Arrays encoded with a count answer
// without a scan.
func (nav *BinaryNavigator) ArrayLen(n Node) (int, error) {
	h, err := nav.container(n, BeginArray)
	if err != nil {
		return 0, err
	}
	if h.count >= 0 {
		return h.count, nil
	}
	count := 0
	for _, err := range nav.children(n.off, h) {
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (nav *BinaryNavigator) ArrayItem(n Node, i int) (Node, error) {
	h, err := nav.container(n, BeginArray)
	if err != nil {
		return Node{}, err
	}
	if i >= 0 {
		j := 0
		for off, err := range nav.children(n.off, h) {
			if err != nil {
				return Node{}, err
			}
			if j == i {
				return Node{off: off}, nil
			}
			j++
		}
	}
	l, err := nav.ArrayLen(n)
	if err != nil {
		return Node{}, err
	}
	return Node{}, indexError(i, l)
}

func (nav *BinaryNavigator) ArrayItems(n Node) iter.Seq2[Node, error] {
	h, err := nav.container(n, BeginArray)
	if err != nil {
		return seqError[Node](err)
	}
	return func(yield func(Node, error) bool) {
		for off, err := range nav.children(n.off, h) {
			if !yield(Node{off: off}, err) || err != nil {
				return
			}
		}
	}
}

func (nav *BinaryNavigator) ObjectLen(n Node) (int, error) {
	h, err := nav.container(n, BeginObject)
	if err != nil {
		return 0, err
	}
	if h.count >= 0 {
		return h.count, nil
	}
	count := 0
	for _, err := range nav.ObjectProperties(n) {
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (nav *BinaryNavigator) ObjectProperties(n Node) iter.Seq2[Property, error] {
	h, err := nav.container(n, BeginObject)
	if err != nil {
		return seqError[Property](err)
	}
	return func(yield func(Property, error) bool) {
		var name int
		haveName := false
		for off, err := range nav.children(n.off, h) {
			if err != nil {
				yield(Property{}, err)
				return
			}
			if !haveName {
				name, haveName = off, true
				continue
			}
			haveName = false
			if !yield(Property{Name: Node{off: name}, Value: Node{off: off}}, nil) {
				return
			}
		}
	}
}

func (nav *BinaryNavigator) ObjectProperty(n Node, name string) (Node, bool, error) {
	for p, err := range nav.ObjectProperties(n) {
		if err != nil {
			return Node{}, false, err
		}
		if b, ok := nav.BufferedString(p.Name); ok {
			if string(b) == name {
				return p.Value, true, nil
			}
			continue
		}
		s, err := nav.StringValue(p.Name)
		if err != nil {
			return Node{}, false, err
		}
		if s == name {
			return p.Value, true, nil
		}
	}
	return Node{}, false, nil
}

// raw returns the encoded bytes of the value at n.
func (nav *BinaryNavigator) raw(n Node) ([]byte, error) {
	l, err := valueLength(nav.buf, n.off)
	if err != nil {
		return nil, err
	}
	return nav.buf[n.off : n.off+l], nil
}

// WriteNode writes the subtree at n to w.  A binary writer sharing this
// navigator's dictionary receives the encoded bytes directly when the subtree
// fits within its depth limit and holds no reference strings.
func (nav *BinaryNavigator) WriteNode(n Node, w Writer) error {
	if bw, ok := w.(*BinaryWriter); ok && bw.dict == nav.dict && nav.rawCopyable(n.off, bw.g.depthBudget()) {
		raw, err := nav.raw(n)
		if err != nil {
			return err
		}
		return bw.writeRaw(nav.header(n).typ, raw)
	}
	return writeNode(nav, n, w)
}

// rawCopyable reports whether the value at pos nests at most budget
// containers deep and has only valid, position independent strings.
func (nav *BinaryNavigator) rawCopyable(pos int, budget int) bool {
	h, err := readHeader(nav.buf, pos)
	if err != nil {
		return false
	}
	switch {
	case h.isContainer():
		if budget <= 0 {
			return false
		}
		for off, err := range nav.children(pos, h) {
			if err != nil || !nav.rawCopyable(off, budget-1) {
				return false
			}
		}
	case h.isString():
		if isReference(h.marker) {
			return false
		}
		if b, ok := bufferedString(nav.buf, pos, h); ok {
			return utf8.Valid(b)
		}
		_, err := decodeString(nav.buf, pos, h, nav.dict)
		return err == nil
	}
	return true
}
