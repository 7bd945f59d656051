// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package interop

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/xdg-go/cosmosjson"
)

// TokenReader presents a cosmosjson.Reader as a TokenDecoder.  Typed scalars
// come out as envelope objects.
type TokenReader struct {
	r       cosmosjson.Reader
	pending []jsontext.Token
	err     error
}

var _ TokenDecoder = (*TokenReader)(nil)

// NewTokenReader returns a TokenReader pulling from r.
func NewTokenReader(r cosmosjson.Reader) *TokenReader {
	return &TokenReader{r: r}
}

// fill makes sure at least one token is pending.  It returns io.EOF after the
// last token.
func (tr *TokenReader) fill() error {
	if len(tr.pending) > 0 {
		return nil
	}
	if tr.err != nil {
		return tr.err
	}
	toks, err := tr.readTokens()
	if err != nil {
		tr.err = err
		return err
	}
	tr.pending = toks
	return nil
}

func (tr *TokenReader) readTokens() ([]jsontext.Token, error) {
	ok, err := tr.r.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	r := tr.r
	switch tt := r.TokenType(); tt {
	case cosmosjson.BeginArray:
		return []jsontext.Token{jsontext.BeginArray}, nil
	case cosmosjson.EndArray:
		return []jsontext.Token{jsontext.EndArray}, nil
	case cosmosjson.BeginObject:
		return []jsontext.Token{jsontext.BeginObject}, nil
	case cosmosjson.EndObject:
		return []jsontext.Token{jsontext.EndObject}, nil
	case cosmosjson.Null:
		return []jsontext.Token{jsontext.Null}, nil
	case cosmosjson.True:
		return []jsontext.Token{jsontext.True}, nil
	case cosmosjson.False:
		return []jsontext.Token{jsontext.False}, nil
	case cosmosjson.FieldName, cosmosjson.String:
		s, err := r.StringValue()
		if err != nil {
			return nil, err
		}
		return []jsontext.Token{jsontext.String(s)}, nil
	case cosmosjson.Number:
		n, err := r.NumberValue()
		if err != nil {
			return nil, err
		}
		return numberTokens(n), nil
	default:
		tv, err := readTyped(r, tt)
		if err != nil {
			return nil, err
		}
		return envelopeTokens(tv), nil
	}
}

func readTyped(r cosmosjson.Reader, tt cosmosjson.TokenType) (typedValue, error) {
	tv := typedValue{tt: tt}
	var err error
	switch tt {
	case cosmosjson.Int8:
		tv.v, err = r.Int8Value()
	case cosmosjson.Int16:
		tv.v, err = r.Int16Value()
	case cosmosjson.Int32:
		tv.v, err = r.Int32Value()
	case cosmosjson.Int64:
		tv.v, err = r.Int64Value()
	case cosmosjson.UInt32:
		tv.v, err = r.UInt32Value()
	case cosmosjson.Float32:
		tv.v, err = r.Float32Value()
	case cosmosjson.Float64:
		tv.v, err = r.Float64Value()
	case cosmosjson.Guid:
		tv.v, err = r.GuidValue()
	case cosmosjson.Binary:
		tv.v, err = r.BinaryValue()
	default:
		err = fmt.Errorf("unexpected token %s", tt)
	}
	return tv, err
}

// ReadToken returns the next token, or io.EOF after the root value.
func (tr *TokenReader) ReadToken() (jsontext.Token, error) {
	if err := tr.fill(); err != nil {
		return jsontext.Token{}, err
	}
	tok := tr.pending[0]
	tr.pending = tr.pending[1:]
	return tok, nil
}

// PeekKind returns the kind of the next token, or 0 if there is none.
func (tr *TokenReader) PeekKind() jsontext.Kind {
	if tr.fill() != nil {
		return 0
	}
	return tr.pending[0].Kind()
}

// SkipValue reads past the next value.
func (tr *TokenReader) SkipValue() error {
	depth := 0
	for {
		tok, err := tr.ReadToken()
		if err != nil {
			return err
		}
		switch tok.Kind() {
		case kindBeginObject, kindBeginArray:
			depth++
		case kindEndObject, kindEndArray:
			depth--
		}
		if depth <= 0 {
			return nil
		}
	}
}

// ReadValue reads the next value and returns it as compact JSON text.
func (tr *TokenReader) ReadValue() (jsontext.Value, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := tr.ReadToken()
		if err != nil {
			return nil, err
		}
		if err := enc.WriteToken(tok); err != nil {
			return nil, err
		}
		switch tok.Kind() {
		case kindBeginObject, kindBeginArray:
			depth++
		case kindEndObject, kindEndArray:
			depth--
		}
		if depth <= 0 {
			return jsontext.Value(bytes.TrimRight(buf.Bytes(), "\n")), nil
		}
	}
}
