// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"iter"

	"github.com/google/uuid"
)

// textEntry is one value or field name in a text navigator's arena.
type textEntry struct {
	tok textToken
	// next is the index of the entry after this value's subtree.
	next int
	// count is the number of items or properties in a container.
	count int
	// end is the buffer offset after a container's closing bracket.
	end int
}

// TextNavigator navigates a text buffer through an index of its tokens built
// in one pass at construction.  Nodes are arena indexes.
type TextNavigator struct {
	buf     []byte
	entries []textEntry
}

var _ Navigator = (*TextNavigator)(nil)

// NewTextNavigator tokenizes buf and returns a navigator over it.
func NewTextNavigator(buf []byte, opts ...Option) (*TextNavigator, error) {
	o := buildOptions(opts)
	s, err := newTextScanner(buf, o.maxDepth)
	if err != nil {
		return nil, err
	}

	entries := make([]textEntry, 0, len(buf)/8+1)
	open := make([]int, 0, 8)
	for {
		ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch s.tok.typ {
		case EndArray, EndObject:
			top := open[len(open)-1]
			open = open[:len(open)-1]
			entries[top].next = len(entries)
			entries[top].end = s.tok.end
			continue
		}
		if len(open) > 0 {
			parent := &entries[open[len(open)-1]]
			if s.tok.typ == FieldName || parent.tok.typ == BeginArray {
				parent.count++
			}
		}
		entries = append(entries, textEntry{tok: s.tok, next: len(entries) + 1, end: s.tok.end})
		if s.tok.typ == BeginArray || s.tok.typ == BeginObject {
			open = append(open, len(entries)-1)
		}
	}
	return &TextNavigator{buf: buf, entries: entries}, nil
}

// Format returns TextFormat.
func (nav *TextNavigator) Format() Format { return TextFormat }

// Root returns the first node.
func (nav *TextNavigator) Root() Node { return Node{off: 0} }

func (nav *TextNavigator) tok(n Node) textToken { return nav.entries[n.off].tok }

// valueType reports field names as strings.
func (nav *TextNavigator) valueType(n Node) TokenType {
	if tt := nav.tok(n).typ; tt != FieldName {
		return tt
	}
	return String
}

// NodeType returns the kind of value at n.
func (nav *TextNavigator) NodeType(n Node) NodeType {
	return nodeTypeOf(nav.valueType(n))
}

func (nav *TextNavigator) StringValue(n Node) (string, error) {
	if tt := nav.valueType(n); tt != String {
		return "", mismatch(String, tt)
	}
	return textString(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) BufferedString(n Node) ([]byte, bool) {
	return textBufferedString(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) NumberValue(n Node) (Number64, error) {
	return textNumber(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) Int8Value(n Node) (int8, error) {
	v, err := textInt(nav.buf, nav.tok(n), Int8, 8)
	return int8(v), err
}

func (nav *TextNavigator) Int16Value(n Node) (int16, error) {
	v, err := textInt(nav.buf, nav.tok(n), Int16, 16)
	return int16(v), err
}

func (nav *TextNavigator) Int32Value(n Node) (int32, error) {
	v, err := textInt(nav.buf, nav.tok(n), Int32, 32)
	return int32(v), err
}

func (nav *TextNavigator) Int64Value(n Node) (int64, error) {
	return textInt(nav.buf, nav.tok(n), Int64, 64)
}

func (nav *TextNavigator) UInt32Value(n Node) (uint32, error) {
	return textUInt32(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) Float32Value(n Node) (float32, error) {
	v, err := textFloat(nav.buf, nav.tok(n), Float32, 32)
	return float32(v), err
}

func (nav *TextNavigator) Float64Value(n Node) (float64, error) {
	return textFloat(nav.buf, nav.tok(n), Float64, 64)
}

func (nav *TextNavigator) GuidValue(n Node) (uuid.UUID, error) {
	return textGuid(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) BinaryValue(n Node) ([]byte, error) {
	return textBinary(nav.buf, nav.tok(n))
}

func (nav *TextNavigator) container(n Node, want TokenType) (textEntry, error) {
	e := nav.entries[n.off]
	if e.tok.typ != want {
		return e, mismatch(want, nav.valueType(n))
	}
	return e, nil
}

// ArrayLen returns the number of items without a scan.
func (nav *TextNavigator) ArrayLen(n Node) (int, error) {
	e, err := nav.container(n, BeginArray)
	if err != nil {
		return 0, err
	}
	return e.count, nil
}

func (nav *TextNavigator) ArrayItem(n Node, i int) (Node, error) {
	e, err := nav.container(n, BeginArray)
	if err != nil {
		return Node{}, err
	}
	if i < 0 || i >= e.count {
		return Node{}, indexError(i, e.count)
	}
	idx := n.off + 1
	for ; i > 0; i-- {
		idx = nav.entries[idx].next
	}
	return Node{off: idx}, nil
}

func (nav *TextNavigator) ArrayItems(n Node) iter.Seq2[Node, error] {
	e, err := nav.container(n, BeginArray)
	if err != nil {
		return seqError[Node](err)
	}
	return func(yield func(Node, error) bool) {
		for idx := n.off + 1; idx < e.next; idx = nav.entries[idx].next {
			if !yield(Node{off: idx}, nil) {
				return
			}
		}
	}
}

// ObjectLen returns the number of properties without a scan.
func (nav *TextNavigator) ObjectLen(n Node) (int, error) {
	e, err := nav.container(n, BeginObject)
	if err != nil {
		return 0, err
	}
	return e.count, nil
}

func (nav *TextNavigator) ObjectProperties(n Node) iter.Seq2[Property, error] {
	e, err := nav.container(n, BeginObject)
	if err != nil {
		return seqError[Property](err)
	}
	return func(yield func(Property, error) bool) {
		for idx := n.off + 1; idx < e.next; idx = nav.entries[idx+1].next {
			if !yield(Property{Name: Node{off: idx}, Value: Node{off: idx + 1}}, nil) {
				return
			}
		}
	}
}

func (nav *TextNavigator) ObjectProperty(n Node, name string) (Node, bool, error) {
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

// WriteNode writes the subtree at n to w.  A text writer receives the
// subtree's text directly when its scalars decode and it fits within the
// writer's depth limit.
func (nav *TextNavigator) WriteNode(n Node, w Writer) error {
	if tw, ok := w.(*TextWriter); ok {
		e := nav.entries[n.off]
		if e.tok.typ != FieldName && nav.rawCopyable(n.off, tw.g.depthBudget()) {
			return tw.writeRaw(e.tok.typ, nav.buf[e.tok.start:e.end])
		}
	}
	return writeNode(nav, n, w)
}

// rawCopyable reports whether the subtree at idx nests at most budget
// containers deep and has only valid scalars.
func (nav *TextNavigator) rawCopyable(idx, budget int) bool {
	e := nav.entries[idx]
	switch e.tok.typ {
	case BeginArray, BeginObject:
		if budget <= 0 {
			return false
		}
		for c := idx + 1; c < e.next; c = nav.entries[c].next {
			if !nav.rawCopyable(c, budget-1) {
				return false
			}
		}
		return true
	}
	return validTextScalar(nav.buf, e.tok) == nil
}

// validTextScalar decodes a scalar token and discards the value.
func validTextScalar(buf []byte, tok textToken) error {
	var err error
	switch tok.typ {
	case String, FieldName:
		if _, ok := textBufferedString(buf, tok); !ok {
			_, err = textString(buf, tok)
		}
	case Number:
		_, err = textNumber(buf, tok)
	case Int8:
		_, err = textInt(buf, tok, Int8, 8)
	case Int16:
		_, err = textInt(buf, tok, Int16, 16)
	case Int32:
		_, err = textInt(buf, tok, Int32, 32)
	case Int64:
		_, err = textInt(buf, tok, Int64, 64)
	case UInt32:
		_, err = textUInt32(buf, tok)
	case Float32:
		_, err = textFloat(buf, tok, Float32, 32)
	case Float64:
		_, err = textFloat(buf, tok, Float64, 64)
	case Guid:
		_, err = textGuid(buf, tok)
	case Binary:
		_, err = textBinary(buf, tok)
	}
	return err
}
