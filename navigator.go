// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
)

// Node is a position in a navigator's tree.  It holds no data of its own and
// is only meaningful to the navigator that produced it.
type Node struct {
	off int
}

// Property is one name/value pair of an object node.  The name is a node of
// type StringNode.
type Property struct {
	Name  Node
	Value Node
}

// Navigator gives random access to the tree of a complete buffer.
//
// Structure is validated when a navigator is created; scalar payloads are
// not converted until an accessor asks for them.  Every method may be called
// any number of times, in any order, and the sequences it returns can be
// ranged over repeatedly.
type Navigator interface {
	Format() Format
	// Root returns the node of the root value.
	Root() Node
	NodeType(n Node) NodeType

	StringValue(n Node) (string, error)
	BufferedString(n Node) ([]byte, bool)
	NumberValue(n Node) (Number64, error)
	Int8Value(n Node) (int8, error)
	Int16Value(n Node) (int16, error)
	Int32Value(n Node) (int32, error)
	Int64Value(n Node) (int64, error)
	UInt32Value(n Node) (uint32, error)
	Float32Value(n Node) (float32, error)
	Float64Value(n Node) (float64, error)
	GuidValue(n Node) (uuid.UUID, error)
	BinaryValue(n Node) ([]byte, error)

	ArrayLen(n Node) (int, error)
	ArrayItem(n Node, i int) (Node, error)
	ArrayItems(n Node) iter.Seq2[Node, error]
	ObjectLen(n Node) (int, error)
	// ObjectProperty returns the value of the first property with the given
	// name.
	ObjectProperty(n Node, name string) (Node, bool, error)
	ObjectProperties(n Node) iter.Seq2[Property, error]

	// WriteNode writes the subtree at n to w.
	WriteNode(n Node, w Writer) error
}

var errIndexOutOfRange = errors.New("index out of range")

// NewNavigator returns a Navigator over buf, choosing the text or binary
// implementation from the buffer's first byte.
func NewNavigator(buf []byte, opts ...Option) (Navigator, error) {
	if DetectFormat(buf) == BinaryFormat {
		return NewBinaryNavigator(buf, opts...)
	}
	return NewTextNavigator(buf, opts...)
}

func indexError(i, n int) error {
	return fmt.Errorf("array item %d of %d: %w", i, n, errIndexOutOfRange)
}

// seqError returns a sequence holding only err.
func seqError[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// writeNode walks the subtree at n, writing a token for every node.
func writeNode(nav Navigator, n Node, w Writer) error {
	switch t := nav.NodeType(n); t {
	case ArrayNode:
		if err := w.WriteArrayStart(); err != nil {
			return err
		}
		for item, err := range nav.ArrayItems(n) {
			if err != nil {
				return err
			}
			if err := writeNode(nav, item, w); err != nil {
				return err
			}
		}
		return w.WriteArrayEnd()
	case ObjectNode:
		if err := w.WriteObjectStart(); err != nil {
			return err
		}
		for p, err := range nav.ObjectProperties(n) {
			if err != nil {
				return err
			}
			if b, ok := nav.BufferedString(p.Name); ok {
				err = w.WriteUTF8FieldName(b)
			} else {
				var name string
				if name, err = nav.StringValue(p.Name); err == nil {
					err = w.WriteFieldName(name)
				}
			}
			if err != nil {
				return err
			}
			if err := writeNode(nav, p.Value, w); err != nil {
				return err
			}
		}
		return w.WriteObjectEnd()
	case StringNode:
		if b, ok := nav.BufferedString(n); ok {
			return w.WriteUTF8String(b)
		}
		s, err := nav.StringValue(n)
		if err != nil {
			return err
		}
		return w.WriteString(s)
	case NullNode:
		return w.WriteNull()
	case TrueNode:
		return w.WriteBool(true)
	case FalseNode:
		return w.WriteBool(false)
	case NumberNode:
		v, err := nav.NumberValue(n)
		if err != nil {
			return err
		}
		return w.WriteNumber(v)
	case Int8Node:
		v, err := nav.Int8Value(n)
		if err != nil {
			return err
		}
		return w.WriteInt8(v)
	case Int16Node:
		v, err := nav.Int16Value(n)
		if err != nil {
			return err
		}
		return w.WriteInt16(v)
	case Int32Node:
		v, err := nav.Int32Value(n)
		if err != nil {
			return err
		}
		return w.WriteInt32(v)
	case Int64Node:
		v, err := nav.Int64Value(n)
		if err != nil {
			return err
		}
		return w.WriteInt64(v)
	case UInt32Node:
		v, err := nav.UInt32Value(n)
		if err != nil {
			return err
		}
		return w.WriteUInt32(v)
	case Float32Node:
		v, err := nav.Float32Value(n)
		if err != nil {
			return err
		}
		return w.WriteFloat32(v)
	case Float64Node:
		v, err := nav.Float64Value(n)
		if err != nil {
			return err
		}
		return w.WriteFloat64(v)
	case GuidNode:
		v, err := nav.GuidValue(n)
		if err != nil {
			return err
		}
		return w.WriteGuid(v)
	case BinaryNode:
		v, err := nav.BinaryValue(n)
		if err != nil {
			return err
		}
		return w.WriteBinary(v)
	default:
		return fmt.Errorf("cannot write node of type %s", t)
	}
}
