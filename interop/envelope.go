// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package interop connects cosmosjson readers and writers with the streaming
// token API of github.com/go-json-experiment/json/jsontext.
//
// Plain JSON can't carry the typed scalars cosmosjson supports, so they cross
// the boundary as envelope objects:
//
//	{"$t":"int16","$v":12}
//
// The kinds are int8, int16, int32, int64, uint32, float32, float64, guid,
// binary and double.  A "double" envelope carries a generic number that is a
// float with an integral or non-finite value, which would otherwise read
// back as an integer or not be valid JSON at all.  Every adapter in this
// package writes envelopes for such values and turns well-formed envelopes
// back into typed tokens.  Objects that merely look like envelopes pass
// through unchanged.
package interop

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/xdg-go/cosmosjson"
)

const (
	typeName  = "$t"
	valueName = "$v"

	kindDouble = "double"
)

// Kind bytes, as documented for jsontext.Kind.
const (
	kindNull        jsontext.Kind = 'n'
	kindFalse       jsontext.Kind = 'f'
	kindTrue        jsontext.Kind = 't'
	kindString      jsontext.Kind = '"'
	kindNumber      jsontext.Kind = '0'
	kindBeginObject jsontext.Kind = '{'
	kindEndObject   jsontext.Kind = '}'
	kindBeginArray  jsontext.Kind = '['
	kindEndArray    jsontext.Kind = ']'
)

var envelopeKinds = map[cosmosjson.TokenType]string{
	cosmosjson.Int8:    "int8",
	cosmosjson.Int16:   "int16",
	cosmosjson.Int32:   "int32",
	cosmosjson.Int64:   "int64",
	cosmosjson.UInt32:  "uint32",
	cosmosjson.Float32: "float32",
	cosmosjson.Float64: "float64",
	cosmosjson.Guid:    "guid",
	cosmosjson.Binary:  "binary",
	cosmosjson.Number:  kindDouble,
}

var envelopeTypes = func() map[string]cosmosjson.TokenType {
	m := make(map[string]cosmosjson.TokenType, len(envelopeKinds))
	for tt, k := range envelopeKinds {
		m[k] = tt
	}
	return m
}()

// typedValue is a scalar restored from, or bound for, an envelope.  For
// Number the value is a cosmosjson.Number64.
type typedValue struct {
	tt cosmosjson.TokenType
	v  any
}

// decodeEnvelope converts the kind and value of an envelope.  The value is
// given by its token kind and its jsontext.Token String form.
func decodeEnvelope(kind string, k jsontext.Kind, text string) (typedValue, bool) {
	tt, ok := envelopeTypes[kind]
	if !ok {
		return typedValue{}, false
	}
	tv := typedValue{tt: tt}
	var err error
	switch tt {
	case cosmosjson.Int8, cosmosjson.Int16, cosmosjson.Int32, cosmosjson.Int64:
		if k != kindNumber {
			return tv, false
		}
		var i int64
		i, err = strconv.ParseInt(text, 10, intBits(tt))
		switch tt {
		case cosmosjson.Int8:
			tv.v = int8(i)
		case cosmosjson.Int16:
			tv.v = int16(i)
		case cosmosjson.Int32:
			tv.v = int32(i)
		default:
			tv.v = i
		}
	case cosmosjson.UInt32:
		if k != kindNumber {
			return tv, false
		}
		var u uint64
		u, err = strconv.ParseUint(text, 10, 32)
		tv.v = uint32(u)
	case cosmosjson.Float32:
		var f float64
		f, err = parseFloat(k, text, 32)
		tv.v = float32(f)
	case cosmosjson.Float64:
		tv.v, err = parseFloat(k, text, 64)
	case cosmosjson.Number:
		var f float64
		f, err = parseFloat(k, text, 64)
		tv.v = cosmosjson.FloatNumber(f)
	case cosmosjson.Guid:
		if k != kindString {
			return tv, false
		}
		tv.v, err = uuid.Parse(text)
	case cosmosjson.Binary:
		if k != kindString {
			return tv, false
		}
		tv.v, err = base64.StdEncoding.DecodeString(text)
	}
	return tv, err == nil
}

func intBits(tt cosmosjson.TokenType) int {
	switch tt {
	case cosmosjson.Int8:
		return 8
	case cosmosjson.Int16:
		return 16
	case cosmosjson.Int32:
		return 32
	}
	return 64
}

// Non-finite floats are carried as strings.
const (
	nanText    = "NaN"
	posInfText = "Infinity"
	negInfText = "-Infinity"
)

func parseFloat(k jsontext.Kind, text string, bits int) (float64, error) {
	if k == kindString {
		switch text {
		case nanText:
			return math.NaN(), nil
		case posInfText:
			return math.Inf(1), nil
		case negInfText:
			return math.Inf(-1), nil
		}
		return 0, strconv.ErrSyntax
	}
	if k != kindNumber {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(text, bits)
}

func floatToken(f float64) jsontext.Token {
	switch {
	case math.IsNaN(f):
		return jsontext.String(nanText)
	case math.IsInf(f, 1):
		return jsontext.String(posInfText)
	case math.IsInf(f, -1):
		return jsontext.String(negInfText)
	}
	return jsontext.Float(f)
}

// envelopeTokens returns the token sequence for a typed value.
func envelopeTokens(tv typedValue) []jsontext.Token {
	var v jsontext.Token
	switch x := tv.v.(type) {
	case int8:
		v = jsontext.Int(int64(x))
	case int16:
		v = jsontext.Int(int64(x))
	case int32:
		v = jsontext.Int(int64(x))
	case int64:
		v = jsontext.Int(x)
	case uint32:
		v = jsontext.Uint(uint64(x))
	case float32:
		v = floatToken(float64(x))
	case float64:
		v = floatToken(x)
	case cosmosjson.Number64:
		v = floatToken(x.Float64())
	case uuid.UUID:
		v = jsontext.String(x.String())
	case []byte:
		v = jsontext.String(base64.StdEncoding.EncodeToString(x))
	}
	return []jsontext.Token{
		jsontext.BeginObject,
		jsontext.String(typeName),
		jsontext.String(envelopeKinds[tv.tt]),
		jsontext.String(valueName),
		v,
		jsontext.EndObject,
	}
}

// numberTokens returns the tokens for a generic number.  Integers and floats
// with a fractional part are plain numbers; other floats need an envelope.
func numberTokens(n cosmosjson.Number64) []jsontext.Token {
	if n.IsInteger() {
		return []jsontext.Token{jsontext.Int(n.Int64())}
	}
	f := n.Float64()
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f != math.Trunc(f) {
		return []jsontext.Token{jsontext.Float(f)}
	}
	return envelopeTokens(typedValue{tt: cosmosjson.Number, v: n})
}

// writeTyped sends a typed value to a cosmosjson Writer.
func writeTyped(w cosmosjson.Writer, tv typedValue) error {
	switch x := tv.v.(type) {
	case int8:
		return w.WriteInt8(x)
	case int16:
		return w.WriteInt16(x)
	case int32:
		return w.WriteInt32(x)
	case int64:
		return w.WriteInt64(x)
	case uint32:
		return w.WriteUInt32(x)
	case float32:
		return w.WriteFloat32(x)
	case float64:
		return w.WriteFloat64(x)
	case cosmosjson.Number64:
		return w.WriteNumber(x)
	case uuid.UUID:
		return w.WriteGuid(x)
	case []byte:
		return w.WriteBinary(x)
	}
	return nil
}

// tokenTypeOf classifies a foreign token.  Strings are values; callers turn
// them into field names where the grammar expects one.
func tokenTypeOf(tok jsontext.Token) cosmosjson.TokenType {
	switch tok.Kind() {
	case kindNull:
		return cosmosjson.Null
	case kindFalse:
		return cosmosjson.False
	case kindTrue:
		return cosmosjson.True
	case kindString:
		return cosmosjson.String
	case kindNumber:
		return cosmosjson.Number
	case kindBeginObject:
		return cosmosjson.BeginObject
	case kindEndObject:
		return cosmosjson.EndObject
	case kindBeginArray:
		return cosmosjson.BeginArray
	case kindEndArray:
		return cosmosjson.EndArray
	}
	return cosmosjson.NotStarted
}
