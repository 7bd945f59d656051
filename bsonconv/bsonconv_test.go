// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonconv

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdg-go/cosmosjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

var testGuid = uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")

func mustBSON(t *testing.T, v any) bsoncore.Document {
	t.Helper()
	b, err := bson.Marshal(v)
	require.NoError(t, err)
	return bsoncore.Document(b)
}

func TestMarshalPlain(t *testing.T) {
	t.Parallel()
	text := []byte(`{"n":null,"t":true,"f":false,"s":"x","i":1,"neg":-7,"big":5000000000,` +
		`"d":2.5,"arr":[1,"two",[]],"obj":{"k":"v","e":{}}}`)
	want := mustBSON(t, bson.D{
		{Key: "n", Value: nil},
		{Key: "t", Value: true},
		{Key: "f", Value: false},
		{Key: "s", Value: "x"},
		{Key: "i", Value: int32(1)},
		{Key: "neg", Value: int32(-7)},
		{Key: "big", Value: int64(5000000000)},
		{Key: "d", Value: 2.5},
		{Key: "arr", Value: bson.A{int32(1), "two", bson.A{}}},
		{Key: "obj", Value: bson.D{{Key: "k", Value: "v"}, {Key: "e", Value: bson.D{}}}},
	})

	got, err := Marshal(text)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The binary encoding of the same document converts identically.
	r, err := cosmosjson.NewTextReader(text)
	require.NoError(t, err)
	w := cosmosjson.NewBinaryWriter()
	require.NoError(t, cosmosjson.WriteAll(w, r))
	bin, err := w.Result()
	require.NoError(t, err)
	got, err = Marshal(bin)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarshalTyped(t *testing.T) {
	t.Parallel()
	dict := cosmosjson.NewStringDictionary(0)
	w := cosmosjson.NewBinaryWriter(cosmosjson.WithDictionary(dict))
	for _, err := range []error{
		w.WriteObjectStart(),
		w.WriteFieldName("i8"), w.WriteInt8(-8),
		w.WriteFieldName("i16"), w.WriteInt16(16),
		w.WriteFieldName("i32"), w.WriteInt32(-32),
		w.WriteFieldName("i64"), w.WriteInt64(64),
		w.WriteFieldName("u32"), w.WriteUInt32(math.MaxUint32),
		w.WriteFieldName("f32"), w.WriteFloat32(0.5),
		w.WriteFieldName("f64"), w.WriteFloat64(-1.25),
		w.WriteFieldName("g"), w.WriteGuid(testGuid),
		w.WriteFieldName("b"), w.WriteBinary([]byte{1, 2, 3}),
		w.WriteFieldName("fl"), w.WriteNumber(cosmosjson.FloatNumber(3)),
		w.WriteObjectEnd(),
	} {
		require.NoError(t, err)
	}
	buf, err := w.Result()
	require.NoError(t, err)

	want := mustBSON(t, bson.D{
		{Key: "i8", Value: int32(-8)},
		{Key: "i16", Value: int32(16)},
		{Key: "i32", Value: int32(-32)},
		{Key: "i64", Value: int64(64)},
		{Key: "u32", Value: int64(math.MaxUint32)},
		{Key: "f32", Value: 0.5},
		{Key: "f64", Value: -1.25},
		{Key: "g", Value: primitive.Binary{Subtype: 4, Data: testGuid[:]}},
		{Key: "b", Value: primitive.Binary{Subtype: 0, Data: []byte{1, 2, 3}}},
		{Key: "fl", Value: 3.0},
	})
	got, err := Marshal(buf, cosmosjson.WithDictionary(dict))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarshalErrors(t *testing.T) {
	t.Parallel()

	_, err := Marshal([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotDocument)

	_, err = Marshal([]byte(`"x"`))
	assert.ErrorIs(t, err, ErrNotDocument)

	_, err = Marshal([]byte(`{"a":{"b\u0000c":1}}`))
	assert.ErrorIs(t, err, errNulInKey)

	_, err = Marshal([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestAppendDocument(t *testing.T) {
	t.Parallel()
	nav, err := cosmosjson.NewNavigator([]byte(`{"outer":{"x":1}}`))
	require.NoError(t, err)
	inner, ok, err := nav.ObjectProperty(nav.Root(), "outer")
	require.NoError(t, err)
	require.True(t, ok)

	prefix := []byte{0xAA}
	got, err := AppendDocument(prefix, nav, inner)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), got[0])
	assert.Equal(t, mustBSON(t, bson.D{{Key: "x", Value: int32(1)}}), bsoncore.Document(got[1:]))
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()
	oid, err := primitive.ObjectIDFromHex("5f0c4f5b9d3b2a1c0d0e0f10")
	require.NoError(t, err)
	doc := mustBSON(t, bson.D{
		{Key: "n", Value: nil},
		{Key: "t", Value: true},
		{Key: "d", Value: 1.0},
		{Key: "s", Value: "x"},
		{Key: "i32", Value: int32(5)},
		{Key: "i64", Value: int64(-5)},
		{Key: "when", Value: primitive.DateTime(1234)},
		{Key: "oid", Value: oid},
		{Key: "g", Value: primitive.Binary{Subtype: 4, Data: testGuid[:]}},
		{Key: "short", Value: primitive.Binary{Subtype: 4, Data: []byte{1}}},
		{Key: "b", Value: primitive.Binary{Subtype: 0x80, Data: []byte{9}}},
		{Key: "arr", Value: bson.A{int32(1), bson.D{{Key: "k", Value: false}}}},
	})
	want := cosmosjson.Object{
		{Name: "n", Value: nil},
		{Name: "t", Value: true},
		{Name: "d", Value: cosmosjson.FloatNumber(1)},
		{Name: "s", Value: "x"},
		{Name: "i32", Value: int32(5)},
		{Name: "i64", Value: int64(-5)},
		{Name: "when", Value: int64(1234)},
		{Name: "oid", Value: "5f0c4f5b9d3b2a1c0d0e0f10"},
		{Name: "g", Value: testGuid},
		{Name: "short", Value: []byte{1}},
		{Name: "b", Value: []byte{9}},
		{Name: "arr", Value: []any{int32(1), cosmosjson.Object{{Name: "k", Value: false}}}},
	}

	for _, format := range []cosmosjson.Format{cosmosjson.TextFormat, cosmosjson.BinaryFormat} {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()
			buf, err := Unmarshal(doc, format)
			require.NoError(t, err)
			assert.Equal(t, format, cosmosjson.DetectFormat(buf))
			r, err := cosmosjson.NewReader(buf)
			require.NoError(t, err)
			got, err := cosmosjson.Materialize(r)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal(mustBSON(t, bson.D{{Key: "re", Value: primitive.Regex{Pattern: "a"}}}), cosmosjson.TextFormat)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), `field "re"`)

	_, err = Unmarshal(bsoncore.Document{5, 0, 0, 0, 1}, cosmosjson.TextFormat)
	assert.Error(t, err)

	_, err = Unmarshal(mustBSON(t, bson.D{}), cosmosjson.InteropFormat)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	doc := mustBSON(t, bson.D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: int64(1) << 40},
		{Key: "c", Value: 0.25},
		{Key: "d", Value: bson.A{"x", nil, true}},
		{Key: "e", Value: primitive.Binary{Subtype: 4, Data: testGuid[:]}},
	})
	bin, err := Unmarshal(doc, cosmosjson.BinaryFormat)
	require.NoError(t, err)
	back, err := Marshal(bin)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}
