// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"encoding/base64"
	"strconv"

	"github.com/google/uuid"
)

// TextReader reads tokens from a text buffer.
type TextReader struct {
	s   textScanner
	err error
}

var _ Reader = (*TextReader)(nil)

// NewTextReader returns a reader over a text buffer.  A leading UTF-8
// byte-order-mark is skipped.
func NewTextReader(buf []byte, opts ...Option) (*TextReader, error) {
	o := buildOptions(opts)
	s, err := newTextScanner(buf, o.maxDepth)
	if err != nil {
		return nil, err
	}
	return &TextReader{s: s}, nil
}

// Format returns TextFormat.
func (r *TextReader) Format() Format { return TextFormat }

// Read advances to the next token.  Errors are sticky.
func (r *TextReader) Read() (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	ok, err := r.s.next()
	if err != nil {
		r.err = err
		return false, err
	}
	return ok, nil
}

// TokenType returns the kind of the current token.
func (r *TextReader) TokenType() TokenType { return r.s.tok.typ }

// CurrentDepth returns the nesting depth after the current token.
func (r *TextReader) CurrentDepth() int { return r.s.state.depth() }

func (r *TextReader) StringValue() (string, error) {
	if r.s.tok.typ != String && r.s.tok.typ != FieldName {
		return "", mismatch(String, r.s.tok.typ)
	}
	return textString(r.s.buf, r.s.tok)
}

func (r *TextReader) BufferedString() ([]byte, bool) {
	return textBufferedString(r.s.buf, r.s.tok)
}

func (r *TextReader) NumberValue() (Number64, error) {
	return textNumber(r.s.buf, r.s.tok)
}

func (r *TextReader) Int8Value() (int8, error) {
	v, err := textInt(r.s.buf, r.s.tok, Int8, 8)
	return int8(v), err
}

func (r *TextReader) Int16Value() (int16, error) {
	v, err := textInt(r.s.buf, r.s.tok, Int16, 16)
	return int16(v), err
}

func (r *TextReader) Int32Value() (int32, error) {
	v, err := textInt(r.s.buf, r.s.tok, Int32, 32)
	return int32(v), err
}

func (r *TextReader) Int64Value() (int64, error) {
	return textInt(r.s.buf, r.s.tok, Int64, 64)
}

func (r *TextReader) UInt32Value() (uint32, error) {
	return textUInt32(r.s.buf, r.s.tok)
}

func (r *TextReader) Float32Value() (float32, error) {
	v, err := textFloat(r.s.buf, r.s.tok, Float32, 32)
	return float32(v), err
}

func (r *TextReader) Float64Value() (float64, error) {
	return textFloat(r.s.buf, r.s.tok, Float64, 64)
}

func (r *TextReader) GuidValue() (uuid.UUID, error) {
	return textGuid(r.s.buf, r.s.tok)
}

// BinaryValue decodes the base64 payload of the current Binary token into a
// new slice.
func (r *TextReader) BinaryValue() ([]byte, error) {
	return textBinary(r.s.buf, r.s.tok)
}

// The text scalar decoders below are shared with TextNavigator.

func textString(buf []byte, tok textToken) (string, error) {
	s, err := unescapeString(tok.body(buf), tok.escaped)
	if err != nil {
		return "", &ValueError{Offset: tok.start, Type: String, err: err}
	}
	return s, nil
}

func textBufferedString(buf []byte, tok textToken) ([]byte, bool) {
	if (tok.typ != String && tok.typ != FieldName) || tok.escaped {
		return nil, false
	}
	b := tok.body(buf)
	if checkStringBytes(b) != nil {
		return nil, false
	}
	return b, true
}

func textNumber(buf []byte, tok textToken) (Number64, error) {
	if tok.typ != Number {
		return Number64{}, mismatch(Number, tok.typ)
	}
	n, err := ParseNumber64(tok.raw(buf))
	if err != nil {
		return Number64{}, &ValueError{Offset: tok.start, Type: Number, err: err}
	}
	return n, nil
}

func textInt(buf []byte, tok textToken, want TokenType, bits int) (int64, error) {
	if tok.typ != want {
		return 0, mismatch(want, tok.typ)
	}
	v, err := strconv.ParseInt(string(tok.body(buf)), 10, bits)
	if err != nil {
		return 0, &ValueError{Offset: tok.start, Type: want, err: err}
	}
	return v, nil
}

func textUInt32(buf []byte, tok textToken) (uint32, error) {
	if tok.typ != UInt32 {
		return 0, mismatch(UInt32, tok.typ)
	}
	v, err := strconv.ParseUint(string(tok.body(buf)), 10, 32)
	if err != nil {
		return 0, &ValueError{Offset: tok.start, Type: UInt32, err: err}
	}
	return uint32(v), nil
}

func textFloat(buf []byte, tok textToken, want TokenType, bits int) (float64, error) {
	if tok.typ != want {
		return 0, mismatch(want, tok.typ)
	}
	v, err := strconv.ParseFloat(string(tok.body(buf)), bits)
	if err != nil {
		return 0, &ValueError{Offset: tok.start, Type: want, err: err}
	}
	return v, nil
}

func textGuid(buf []byte, tok textToken) (uuid.UUID, error) {
	if tok.typ != Guid {
		return uuid.UUID{}, mismatch(Guid, tok.typ)
	}
	g, err := uuid.ParseBytes(tok.body(buf))
	if err != nil {
		return uuid.UUID{}, &ValueError{Offset: tok.start, Type: Guid, err: err}
	}
	return g, nil
}

func textBinary(buf []byte, tok textToken) ([]byte, error) {
	if tok.typ != Binary {
		return nil, mismatch(Binary, tok.typ)
	}
	body := tok.body(buf)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(out, body)
	if err != nil {
		return nil, &ValueError{Offset: tok.start, Type: Binary, err: err}
	}
	return out[:n], nil
}
