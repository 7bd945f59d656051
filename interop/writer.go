// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package interop

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/xdg-go/cosmosjson"
)

// TokenEncoder is the push side of the jsontext API.  *jsontext.Encoder and
// *TokenWriter satisfy it.
type TokenEncoder interface {
	WriteToken(jsontext.Token) error
	WriteValue(jsontext.Value) error
}

var _ TokenEncoder = (*jsontext.Encoder)(nil)

// Writer presents a TokenEncoder as a cosmosjson.Writer.  Calls are checked
// against the cosmosjson grammar before they reach the encoder.
type Writer struct {
	enc TokenEncoder
	g   *cosmosjson.Grammar
	out *bytes.Buffer
}

var _ cosmosjson.Writer = (*Writer)(nil)

// NewWriter returns a Writer pushing tokens to enc.  Its Result only reports
// whether the document is complete; the output belongs to enc.
func NewWriter(enc TokenEncoder) *Writer {
	return &Writer{enc: enc, g: cosmosjson.NewGrammar(0)}
}

// NewBufferWriter returns a Writer over a new jsontext.Encoder whose output
// Result returns.
func NewBufferWriter(opts ...jsontext.Options) *Writer {
	out := new(bytes.Buffer)
	return &Writer{
		enc: jsontext.NewEncoder(out, opts...),
		g:   cosmosjson.NewGrammar(0),
		out: out,
	}
}

// Format returns cosmosjson.InteropFormat.
func (w *Writer) Format() cosmosjson.Format { return cosmosjson.InteropFormat }

func (w *Writer) emit(tt cosmosjson.TokenType, toks ...jsontext.Token) error {
	if err := w.g.Next(tt); err != nil {
		return err
	}
	for _, tok := range toks {
		if err := w.enc.WriteToken(tok); err != nil {
			return w.g.Fail(err)
		}
	}
	return nil
}

func (w *Writer) WriteArrayStart() error {
	return w.emit(cosmosjson.BeginArray, jsontext.BeginArray)
}

func (w *Writer) WriteArrayEnd() error {
	return w.emit(cosmosjson.EndArray, jsontext.EndArray)
}

func (w *Writer) WriteObjectStart() error {
	return w.emit(cosmosjson.BeginObject, jsontext.BeginObject)
}

func (w *Writer) WriteObjectEnd() error {
	return w.emit(cosmosjson.EndObject, jsontext.EndObject)
}

func (w *Writer) WriteFieldName(name string) error {
	return w.emit(cosmosjson.FieldName, jsontext.String(name))
}

func (w *Writer) WriteUTF8FieldName(name []byte) error {
	return w.WriteFieldName(string(name))
}

func (w *Writer) WriteString(s string) error {
	return w.emit(cosmosjson.String, jsontext.String(s))
}

func (w *Writer) WriteUTF8String(s []byte) error {
	return w.WriteString(string(s))
}

func (w *Writer) WriteNumber(n cosmosjson.Number64) error {
	return w.emit(cosmosjson.Number, numberTokens(n)...)
}

func (w *Writer) WriteBool(b bool) error {
	if b {
		return w.emit(cosmosjson.True, jsontext.True)
	}
	return w.emit(cosmosjson.False, jsontext.False)
}

func (w *Writer) WriteNull() error {
	return w.emit(cosmosjson.Null, jsontext.Null)
}

func (w *Writer) writeTyped(tt cosmosjson.TokenType, v any) error {
	return w.emit(tt, envelopeTokens(typedValue{tt: tt, v: v})...)
}

func (w *Writer) WriteInt8(v int8) error       { return w.writeTyped(cosmosjson.Int8, v) }
func (w *Writer) WriteInt16(v int16) error     { return w.writeTyped(cosmosjson.Int16, v) }
func (w *Writer) WriteInt32(v int32) error     { return w.writeTyped(cosmosjson.Int32, v) }
func (w *Writer) WriteInt64(v int64) error     { return w.writeTyped(cosmosjson.Int64, v) }
func (w *Writer) WriteUInt32(v uint32) error   { return w.writeTyped(cosmosjson.UInt32, v) }
func (w *Writer) WriteFloat32(v float32) error { return w.writeTyped(cosmosjson.Float32, v) }
func (w *Writer) WriteFloat64(v float64) error { return w.writeTyped(cosmosjson.Float64, v) }
func (w *Writer) WriteGuid(g uuid.UUID) error  { return w.writeTyped(cosmosjson.Guid, g) }
func (w *Writer) WriteBinary(b []byte) error   { return w.writeTyped(cosmosjson.Binary, b) }

// CurrentDepth returns the number of open containers.
func (w *Writer) CurrentDepth() int { return w.g.Depth() }

// Result returns the encoded document for a Writer from NewBufferWriter, and
// nil for one from NewWriter.  Either way it fails if the document is
// incomplete.
func (w *Writer) Result() ([]byte, error) {
	if err := w.g.Finish(); err != nil {
		return nil, err
	}
	if w.out == nil {
		return nil, nil
	}
	return bytes.TrimRight(w.out.Bytes(), "\n"), nil
}
