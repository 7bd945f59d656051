// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package interop

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/xdg-go/cosmosjson"
)

// TokenDecoder is the pull side of the jsontext API.  *jsontext.Decoder and
// *TokenReader satisfy it.
type TokenDecoder interface {
	ReadToken() (jsontext.Token, error)
	PeekKind() jsontext.Kind
	SkipValue() error
	ReadValue() (jsontext.Value, error)
}

var _ TokenDecoder = (*jsontext.Decoder)(nil)

// item is a token already taken from the decoder.  Scalars keep the token's
// String form so conversion can wait for an accessor.
type item struct {
	tt    cosmosjson.TokenType
	text  string
	typed typedValue
}

// Reader presents a TokenDecoder as a cosmosjson.Reader.
type Reader struct {
	dec     TokenDecoder
	g       *cosmosjson.Grammar
	cur     item
	pending []item
	err     error
}

var _ cosmosjson.Reader = (*Reader)(nil)

// NewReader returns a Reader pulling tokens from dec.
func NewReader(dec TokenDecoder) *Reader {
	return &Reader{dec: dec, g: cosmosjson.NewGrammar(0)}
}

// Format returns cosmosjson.InteropFormat.
func (r *Reader) Format() cosmosjson.Format { return cosmosjson.InteropFormat }

// Read advances to the next token.  Errors are sticky.
func (r *Reader) Read() (bool, error) {
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

func (r *Reader) next() (bool, error) {
	var it item
	if len(r.pending) > 0 {
		it = r.pending[0]
		r.pending = r.pending[1:]
	} else {
		if r.g.Done() {
			if _, err := r.dec.ReadToken(); !errors.Is(err, io.EOF) {
				if err != nil {
					return false, err
				}
				return false, errors.New("unexpected data after root value")
			}
			return false, nil
		}
		tok, err := r.dec.ReadToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, io.ErrUnexpectedEOF
			}
			return false, err
		}
		it = item{tt: tokenTypeOf(tok)}
		switch it.tt {
		case cosmosjson.NotStarted:
			return false, fmt.Errorf("unknown token kind %v", tok.Kind())
		case cosmosjson.String:
			if r.g.ExpectingName() {
				it.tt = cosmosjson.FieldName
			}
			it.text = tok.String()
		case cosmosjson.Number:
			it.text = tok.String()
		case cosmosjson.BeginObject:
			if it, err = r.lookahead(); err != nil {
				return false, err
			}
		}
	}
	if err := r.g.Next(it.tt); err != nil {
		return false, err
	}
	r.cur = it
	return true, nil
}

// lookahead is called after an object start has been read.  It consumes an
// envelope if one follows, and otherwise queues the tokens it read.  Nested
// containers are never read ahead, so they get their own chance to be
// envelopes.
func (r *Reader) lookahead() (item, error) {
	begin := item{tt: cosmosjson.BeginObject}

	var kind, value item
	var valueKind jsontext.Kind
	steps := []func() (bool, error){
		func() (bool, error) { return r.readName(typeName) },
		func() (bool, error) {
			if r.dec.PeekKind() != kindString {
				return false, nil
			}
			tok, err := r.dec.ReadToken()
			if err != nil {
				return false, err
			}
			kind = item{tt: cosmosjson.String, text: tok.String()}
			r.pending = append(r.pending, kind)
			_, ok := envelopeTypes[kind.text]
			return ok, nil
		},
		func() (bool, error) { return r.readName(valueName) },
		func() (bool, error) {
			valueKind = r.dec.PeekKind()
			if valueKind == kindBeginObject || valueKind == kindBeginArray || valueKind == kindEndObject {
				return false, nil
			}
			tok, err := r.dec.ReadToken()
			if err != nil {
				return false, err
			}
			value = item{tt: tokenTypeOf(tok), text: tok.String()}
			r.pending = append(r.pending, value)
			return true, nil
		},
		func() (bool, error) { return r.dec.PeekKind() == kindEndObject, nil },
	}
	for _, step := range steps {
		ok, err := step()
		if err != nil {
			return item{}, err
		}
		if !ok {
			return begin, nil
		}
	}

	tv, ok := decodeEnvelope(kind.text, valueKind, value.text)
	if !ok {
		return begin, nil
	}
	if _, err := r.dec.ReadToken(); err != nil {
		return item{}, err
	}
	r.pending = r.pending[:0]
	return item{tt: tv.tt, typed: tv, text: value.text}, nil
}

// readName reads a field name if one is next and reports whether it matched.
func (r *Reader) readName(want string) (bool, error) {
	if r.dec.PeekKind() != kindString {
		return false, nil
	}
	tok, err := r.dec.ReadToken()
	if err != nil {
		return false, err
	}
	name := tok.String()
	r.pending = append(r.pending, item{tt: cosmosjson.FieldName, text: name})
	return name == want, nil
}

// TokenType returns the kind of the current token.
func (r *Reader) TokenType() cosmosjson.TokenType { return r.cur.tt }

// CurrentDepth returns the nesting depth after the current token.
func (r *Reader) CurrentDepth() int { return r.g.Depth() }

func (r *Reader) StringValue() (string, error) {
	if r.cur.tt != cosmosjson.String && r.cur.tt != cosmosjson.FieldName {
		return "", mismatch(cosmosjson.String, r.cur.tt)
	}
	return r.cur.text, nil
}

// BufferedString always returns false: jsontext hands out strings, not
// buffer views.
func (r *Reader) BufferedString() ([]byte, bool) { return nil, false }

// NumberValue returns a plain number, or a generic float restored from a
// double envelope.
func (r *Reader) NumberValue() (cosmosjson.Number64, error) {
	if r.cur.tt != cosmosjson.Number {
		return cosmosjson.Number64{}, mismatch(cosmosjson.Number, r.cur.tt)
	}
	if n, ok := r.cur.typed.v.(cosmosjson.Number64); ok {
		return n, nil
	}
	return cosmosjson.ParseNumber64([]byte(r.cur.text))
}

func typed[T any](r *Reader, want cosmosjson.TokenType) (T, error) {
	var zero T
	if r.cur.tt != want {
		return zero, mismatch(want, r.cur.tt)
	}
	v, ok := r.cur.typed.v.(T)
	if !ok {
		return zero, mismatch(want, r.cur.tt)
	}
	return v, nil
}

func (r *Reader) Int8Value() (int8, error)     { return typed[int8](r, cosmosjson.Int8) }
func (r *Reader) Int16Value() (int16, error)   { return typed[int16](r, cosmosjson.Int16) }
func (r *Reader) Int32Value() (int32, error)   { return typed[int32](r, cosmosjson.Int32) }
func (r *Reader) Int64Value() (int64, error)   { return typed[int64](r, cosmosjson.Int64) }
func (r *Reader) UInt32Value() (uint32, error) { return typed[uint32](r, cosmosjson.UInt32) }

func (r *Reader) Float32Value() (float32, error) {
	return typed[float32](r, cosmosjson.Float32)
}

func (r *Reader) Float64Value() (float64, error) {
	return typed[float64](r, cosmosjson.Float64)
}

func (r *Reader) GuidValue() (uuid.UUID, error) {
	return typed[uuid.UUID](r, cosmosjson.Guid)
}

func (r *Reader) BinaryValue() ([]byte, error) {
	return typed[[]byte](r, cosmosjson.Binary)
}

func mismatch(want, got cosmosjson.TokenType) error {
	return &cosmosjson.TypeMismatchError{Want: want, Got: got}
}
