// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package interop

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/xdg-go/cosmosjson"
)

// TokenWriter presents a cosmosjson.Writer as a TokenEncoder.  Envelope
// objects are written as the typed scalars they describe.
//
// Every object start is held back until the tokens after it show whether it
// is an envelope, so output for an object lags its first few tokens.
type TokenWriter struct {
	w       cosmosjson.Writer
	g       *cosmosjson.Grammar
	pending []jsontext.Token
}

var _ TokenEncoder = (*TokenWriter)(nil)

// NewTokenWriter returns a TokenWriter pushing to w.
func NewTokenWriter(w cosmosjson.Writer) *TokenWriter {
	return &TokenWriter{w: w, g: cosmosjson.NewGrammar(0)}
}

// WriteToken writes one token.
func (tw *TokenWriter) WriteToken(tok jsontext.Token) error {
	if err := tw.g.Err(); err != nil {
		return err
	}
	if len(tw.pending) == 0 {
		if tok.Kind() == kindBeginObject {
			tw.pending = append(tw.pending, tok.Clone())
			return nil
		}
		return tw.write(tok)
	}

	tw.pending = append(tw.pending, tok.Clone())
	switch tw.match() {
	case matchPartial:
		return nil
	case matchFailed:
		return tw.flush()
	}

	p := tw.pending
	tv, _ := decodeEnvelope(p[2].String(), p[4].Kind(), p[4].String())
	tw.pending = tw.pending[:0]
	if err := tw.g.Next(tv.tt); err != nil {
		return err
	}
	return tw.fail(writeTyped(tw.w, tv))
}

const (
	matchPartial = iota
	matchFailed
	matchComplete
)

// match checks the pending tokens against the envelope layout.
func (tw *TokenWriter) match() int {
	p := tw.pending
	last := p[len(p)-1]
	switch len(p) {
	case 2:
		if last.Kind() != kindString || last.String() != typeName {
			return matchFailed
		}
	case 3:
		if last.Kind() != kindString {
			return matchFailed
		}
		if _, ok := envelopeTypes[last.String()]; !ok {
			return matchFailed
		}
	case 4:
		if last.Kind() != kindString || last.String() != valueName {
			return matchFailed
		}
	case 5:
		switch last.Kind() {
		case kindBeginObject, kindBeginArray, kindEndObject, kindEndArray:
			return matchFailed
		}
		if _, ok := decodeEnvelope(p[2].String(), last.Kind(), last.String()); !ok {
			return matchFailed
		}
	case 6:
		if last.Kind() != kindEndObject {
			return matchFailed
		}
		return matchComplete
	}
	return matchPartial
}

// flush writes the held object start and replays the tokens after it, any of
// which may start another envelope.
func (tw *TokenWriter) flush() error {
	p := append([]jsontext.Token(nil), tw.pending...)
	tw.pending = tw.pending[:0]
	if err := tw.write(p[0]); err != nil {
		return err
	}
	for _, tok := range p[1:] {
		if err := tw.WriteToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// write sends one plain token to the writer.
func (tw *TokenWriter) write(tok jsontext.Token) error {
	tt := tokenTypeOf(tok)
	if tt == cosmosjson.String && tw.g.ExpectingName() {
		tt = cosmosjson.FieldName
	}
	if err := tw.g.Next(tt); err != nil {
		return err
	}
	var err error
	switch tt {
	case cosmosjson.BeginArray:
		err = tw.w.WriteArrayStart()
	case cosmosjson.EndArray:
		err = tw.w.WriteArrayEnd()
	case cosmosjson.BeginObject:
		err = tw.w.WriteObjectStart()
	case cosmosjson.EndObject:
		err = tw.w.WriteObjectEnd()
	case cosmosjson.FieldName:
		err = tw.w.WriteFieldName(tok.String())
	case cosmosjson.String:
		err = tw.w.WriteString(tok.String())
	case cosmosjson.Null:
		err = tw.w.WriteNull()
	case cosmosjson.True:
		err = tw.w.WriteBool(true)
	case cosmosjson.False:
		err = tw.w.WriteBool(false)
	case cosmosjson.Number:
		var n cosmosjson.Number64
		if n, err = cosmosjson.ParseNumber64([]byte(tok.String())); err == nil {
			err = tw.w.WriteNumber(n)
		}
	default:
		err = fmt.Errorf("unknown token kind %v", tok.Kind())
	}
	return tw.fail(err)
}

func (tw *TokenWriter) fail(err error) error {
	if err == nil {
		return nil
	}
	return tw.g.Fail(err)
}

// WriteValue writes a complete JSON value, restoring any envelopes in it.
func (tw *TokenWriter) WriteValue(v jsontext.Value) error {
	dec := jsontext.NewDecoder(bytes.NewReader(v))
	for {
		tok, err := dec.ReadToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return tw.fail(err)
		}
		if err := tw.WriteToken(tok); err != nil {
			return err
		}
	}
}

// Close reports an error if an object is still held back or the document is
// incomplete.
func (tw *TokenWriter) Close() error {
	for len(tw.pending) > 0 {
		if err := tw.flush(); err != nil {
			return err
		}
	}
	return tw.g.Finish()
}
