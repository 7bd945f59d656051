// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bsonconv converts between cosmosjson documents and BSON.
//
// Export maps cosmosjson values to BSON types as follows:
//
//	Number (integer)        int32 if it fits, else int64
//	Number (float)          double
//	Int8, Int16, Int32      int32
//	Int64, UInt32           int64
//	Float32, Float64        double
//	Guid                    binary subtype 4
//	Binary                  binary subtype 0
//
// Import maps int32 and int64 to Int32 and Int64, double to a float Number,
// UUID binary to Guid, other binary to Binary, ObjectID to its hex string and
// UTC datetime to Int64 milliseconds.  Other BSON types are rejected.
package bsonconv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xdg-go/cosmosjson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

var (
	// ErrNotDocument is returned when exporting a node that isn't an object.
	ErrNotDocument = errors.New("BSON documents must be objects")
	// ErrUnsupportedType is wrapped when importing a BSON type with no
	// cosmosjson equivalent.
	ErrUnsupportedType = errors.New("unsupported BSON type")

	errNulInKey = errors.New("BSON keys cannot contain NUL")
)

// Marshal converts a serialized cosmosjson document, whose root must be an
// object, to BSON.
func Marshal(buf []byte, opts ...cosmosjson.Option) (bsoncore.Document, error) {
	nav, err := cosmosjson.NewNavigator(buf, opts...)
	if err != nil {
		return nil, err
	}
	return AppendDocument(make([]byte, 0, len(buf)+16), nav, nav.Root())
}

// AppendDocument appends the object at n to dst as a BSON document.
func AppendDocument(dst []byte, nav cosmosjson.Navigator, n cosmosjson.Node) ([]byte, error) {
	if t := nav.NodeType(n); t != cosmosjson.ObjectNode {
		return dst, fmt.Errorf("%w: got %s", ErrNotDocument, t)
	}
	idx, dst := bsoncore.AppendDocumentStart(dst)
	dst, err := appendProperties(dst, nav, n)
	if err != nil {
		return dst, err
	}
	return bsoncore.AppendDocumentEnd(dst, idx)
}

func appendProperties(dst []byte, nav cosmosjson.Navigator, n cosmosjson.Node) ([]byte, error) {
	for p, err := range nav.ObjectProperties(n) {
		if err != nil {
			return dst, err
		}
		key, err := nav.StringValue(p.Name)
		if err != nil {
			return dst, err
		}
		if strings.IndexByte(key, 0) >= 0 {
			return dst, fmt.Errorf("key %q: %w", key, errNulInKey)
		}
		if dst, err = appendElement(dst, key, nav, p.Value); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func appendElement(dst []byte, key string, nav cosmosjson.Navigator, n cosmosjson.Node) ([]byte, error) {
	switch t := nav.NodeType(n); t {
	case cosmosjson.NullNode:
		return bsoncore.AppendNullElement(dst, key), nil
	case cosmosjson.TrueNode:
		return bsoncore.AppendBooleanElement(dst, key, true), nil
	case cosmosjson.FalseNode:
		return bsoncore.AppendBooleanElement(dst, key, false), nil
	case cosmosjson.StringNode:
		s, err := nav.StringValue(n)
		if err != nil {
			return dst, err
		}
		return bsoncore.AppendStringElement(dst, key, s), nil
	case cosmosjson.NumberNode:
		v, err := nav.NumberValue(n)
		if err != nil {
			return dst, err
		}
		if !v.IsInteger() {
			return bsoncore.AppendDoubleElement(dst, key, v.Float64()), nil
		}
		return appendInteger(dst, key, v.Int64()), nil
	case cosmosjson.Int8Node:
		v, err := nav.Int8Value(n)
		return bsoncore.AppendInt32Element(dst, key, int32(v)), err
	case cosmosjson.Int16Node:
		v, err := nav.Int16Value(n)
		return bsoncore.AppendInt32Element(dst, key, int32(v)), err
	case cosmosjson.Int32Node:
		v, err := nav.Int32Value(n)
		return bsoncore.AppendInt32Element(dst, key, v), err
	case cosmosjson.Int64Node:
		v, err := nav.Int64Value(n)
		return bsoncore.AppendInt64Element(dst, key, v), err
	case cosmosjson.UInt32Node:
		v, err := nav.UInt32Value(n)
		return bsoncore.AppendInt64Element(dst, key, int64(v)), err
	case cosmosjson.Float32Node:
		v, err := nav.Float32Value(n)
		return bsoncore.AppendDoubleElement(dst, key, float64(v)), err
	case cosmosjson.Float64Node:
		v, err := nav.Float64Value(n)
		return bsoncore.AppendDoubleElement(dst, key, v), err
	case cosmosjson.GuidNode:
		g, err := nav.GuidValue(n)
		return bsoncore.AppendBinaryElement(dst, key, bsontype.BinaryUUID, g[:]), err
	case cosmosjson.BinaryNode:
		b, err := nav.BinaryValue(n)
		return bsoncore.AppendBinaryElement(dst, key, bsontype.BinaryGeneric, b), err
	case cosmosjson.ObjectNode:
		idx, dst := bsoncore.AppendDocumentElementStart(dst, key)
		dst, err := appendProperties(dst, nav, n)
		if err != nil {
			return dst, err
		}
		return bsoncore.AppendDocumentEnd(dst, idx)
	case cosmosjson.ArrayNode:
		idx, dst := bsoncore.AppendArrayElementStart(dst, key)
		i := 0
		for item, err := range nav.ArrayItems(n) {
			if err != nil {
				return dst, err
			}
			if dst, err = appendElement(dst, strconv.Itoa(i), nav, item); err != nil {
				return dst, err
			}
			i++
		}
		return bsoncore.AppendArrayEnd(dst, idx)
	default:
		return dst, fmt.Errorf("cannot convert %s to BSON", t)
	}
}

func appendInteger(dst []byte, key string, v int64) []byte {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return bsoncore.AppendInt32Element(dst, key, int32(v))
	}
	return bsoncore.AppendInt64Element(dst, key, v)
}

// Unmarshal converts a BSON document to the given cosmosjson format.
func Unmarshal(doc bsoncore.Document, format cosmosjson.Format, opts ...cosmosjson.Option) ([]byte, error) {
	w, err := cosmosjson.NewWriter(format, opts...)
	if err != nil {
		return nil, err
	}
	if err := WriteDocument(w, doc); err != nil {
		return nil, err
	}
	return w.Result()
}

// WriteDocument validates a BSON document and writes it to w as an object.
func WriteDocument(w cosmosjson.Writer, doc bsoncore.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return writeDocument(w, doc)
}

func writeDocument(w cosmosjson.Writer, doc bsoncore.Document) error {
	elems, err := doc.Elements()
	if err != nil {
		return err
	}
	if err := w.WriteObjectStart(); err != nil {
		return err
	}
	for _, e := range elems {
		if err := w.WriteFieldName(e.Key()); err != nil {
			return err
		}
		if err := writeValue(w, e.Value()); err != nil {
			return fmt.Errorf("field %q: %w", e.Key(), err)
		}
	}
	return w.WriteObjectEnd()
}

func writeValue(w cosmosjson.Writer, v bsoncore.Value) error {
	switch v.Type {
	case bsontype.Null:
		return w.WriteNull()
	case bsontype.Boolean:
		return w.WriteBool(v.Boolean())
	case bsontype.Double:
		return w.WriteNumber(cosmosjson.FloatNumber(v.Double()))
	case bsontype.String:
		return w.WriteString(v.StringValue())
	case bsontype.Int32:
		return w.WriteInt32(v.Int32())
	case bsontype.Int64:
		return w.WriteInt64(v.Int64())
	case bsontype.DateTime:
		return w.WriteInt64(v.DateTime())
	case bsontype.ObjectID:
		return w.WriteString(v.ObjectID().Hex())
	case bsontype.Binary:
		subtype, data := v.Binary()
		if subtype == bsontype.BinaryUUID && len(data) == 16 {
			return w.WriteGuid(uuid.UUID(data))
		}
		return w.WriteBinary(data)
	case bsontype.EmbeddedDocument:
		return writeDocument(w, v.Document())
	case bsontype.Array:
		values, err := v.Array().Values()
		if err != nil {
			return err
		}
		if err := w.WriteArrayStart(); err != nil {
			return err
		}
		for _, item := range values {
			if err := writeValue(w, item); err != nil {
				return err
			}
		}
		return w.WriteArrayEnd()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type)
}
