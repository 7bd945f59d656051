// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"encoding/base64"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TextWriter writes compact text.  Typed values are written with their
// prefixes so the output reads back with the same token types.
type TextWriter struct {
	g   writeGuard
	buf []byte
}

var _ Writer = (*TextWriter)(nil)

// NewTextWriter returns an empty text writer.  A dictionary option is
// ignored.
func NewTextWriter(opts ...Option) *TextWriter {
	o := buildOptions(opts)
	return &TextWriter{
		g:   newWriteGuard(o.maxDepth),
		buf: make([]byte, 0, 256),
	}
}

// Format returns TextFormat.
func (w *TextWriter) Format() Format { return TextFormat }

// begin validates the next token and writes any separator it needs.
func (w *TextWriter) begin(tt TokenType) error {
	sep := tt != EndArray && tt != EndObject && w.g.needsSeparator()
	if err := w.g.check(tt); err != nil {
		return err
	}
	if sep {
		w.buf = append(w.buf, ',')
	}
	return nil
}

func (w *TextWriter) WriteArrayStart() error {
	if err := w.begin(BeginArray); err != nil {
		return err
	}
	w.buf = append(w.buf, '[')
	return nil
}

func (w *TextWriter) WriteArrayEnd() error {
	if err := w.begin(EndArray); err != nil {
		return err
	}
	w.buf = append(w.buf, ']')
	return nil
}

func (w *TextWriter) WriteObjectStart() error {
	if err := w.begin(BeginObject); err != nil {
		return err
	}
	w.buf = append(w.buf, '{')
	return nil
}

func (w *TextWriter) WriteObjectEnd() error {
	if err := w.begin(EndObject); err != nil {
		return err
	}
	w.buf = append(w.buf, '}')
	return nil
}

func (w *TextWriter) WriteFieldName(name string) error {
	return w.WriteUTF8FieldName([]byte(name))
}

func (w *TextWriter) WriteUTF8FieldName(name []byte) error {
	if err := w.checkUTF8(name); err != nil {
		return err
	}
	if err := w.begin(FieldName); err != nil {
		return err
	}
	w.buf = appendQuoted(w.buf, name)
	w.buf = append(w.buf, ':')
	return nil
}

func (w *TextWriter) WriteString(s string) error {
	return w.WriteUTF8String([]byte(s))
}

func (w *TextWriter) WriteUTF8String(s []byte) error {
	if err := w.checkUTF8(s); err != nil {
		return err
	}
	if err := w.begin(String); err != nil {
		return err
	}
	w.buf = appendQuoted(w.buf, s)
	return nil
}

func (w *TextWriter) checkUTF8(s []byte) error {
	if w.g.err != nil {
		return w.g.err
	}
	if !utf8.Valid(s) {
		return w.g.fail(&ValueError{Offset: len(w.buf), Type: String, err: errInvalidUTF8})
	}
	return nil
}

// WriteNumber writes a generic number.  Integral floats get a ".0" suffix so
// they read back as floats.  NaN and infinities can't be written.
func (w *TextWriter) WriteNumber(n Number64) error {
	if w.g.err == nil && !n.IsInteger() && !isFinite(n.Float64()) {
		return w.g.fail(&ValueError{Offset: len(w.buf), Type: Number, err: errNonFiniteNumber})
	}
	if err := w.begin(Number); err != nil {
		return err
	}
	w.buf = appendNumber64(w.buf, n)
	return nil
}

func (w *TextWriter) WriteBool(b bool) error {
	if !b {
		if err := w.begin(False); err != nil {
			return err
		}
		w.buf = append(w.buf, literalFalse...)
		return nil
	}
	if err := w.begin(True); err != nil {
		return err
	}
	w.buf = append(w.buf, literalTrue...)
	return nil
}

func (w *TextWriter) WriteNull() error {
	if err := w.begin(Null); err != nil {
		return err
	}
	w.buf = append(w.buf, literalNull...)
	return nil
}

func (w *TextWriter) writeInt(tt TokenType, v int64, prefix ...byte) error {
	if err := w.begin(tt); err != nil {
		return err
	}
	w.buf = append(w.buf, prefix...)
	w.buf = strconv.AppendInt(w.buf, v, 10)
	return nil
}

func (w *TextWriter) WriteInt8(v int8) error {
	return w.writeInt(Int8, int64(v), int8Prefix)
}

func (w *TextWriter) WriteInt16(v int16) error {
	return w.writeInt(Int16, int64(v), int16Prefix)
}

func (w *TextWriter) WriteInt32(v int32) error {
	return w.writeInt(Int32, int64(v), int32Prefix)
}

func (w *TextWriter) WriteInt64(v int64) error {
	return w.writeInt(Int64, v, int32Prefix, int32Prefix)
}

func (w *TextWriter) WriteUInt32(v uint32) error {
	return w.writeInt(UInt32, int64(v), unsignedPrefix, int32Prefix)
}

func (w *TextWriter) WriteFloat32(v float32) error {
	if err := w.begin(Float32); err != nil {
		return err
	}
	w.buf = append(w.buf, float32Prefix)
	w.buf = strconv.AppendFloat(w.buf, float64(v), 'g', -1, 32)
	return nil
}

func (w *TextWriter) WriteFloat64(v float64) error {
	if err := w.begin(Float64); err != nil {
		return err
	}
	w.buf = append(w.buf, float64Prefix)
	w.buf = strconv.AppendFloat(w.buf, v, 'g', -1, 64)
	return nil
}

func (w *TextWriter) WriteGuid(g uuid.UUID) error {
	if err := w.begin(Guid); err != nil {
		return err
	}
	w.buf = append(w.buf, guidPrefix)
	w.buf = append(w.buf, g.String()...)
	return nil
}

func (w *TextWriter) WriteBinary(b []byte) error {
	if err := w.begin(Binary); err != nil {
		return err
	}
	w.buf = append(w.buf, binaryPrefix)
	w.buf = base64.StdEncoding.AppendEncode(w.buf, b)
	return nil
}

// writeRaw copies a complete text value starting with tt.  Only the outer
// container is checked against the depth limit; the caller checks the
// nesting and scalars inside raw.
func (w *TextWriter) writeRaw(tt TokenType, raw []byte) error {
	sep := w.g.needsSeparator()
	if err := w.g.checkRaw(tt); err != nil {
		return err
	}
	if sep {
		w.buf = append(w.buf, ',')
	}
	w.buf = append(w.buf, raw...)
	return nil
}

// CurrentDepth returns the number of open containers.
func (w *TextWriter) CurrentDepth() int { return w.g.state.depth() }

// Result returns the text document.  The slice is owned by the writer.
func (w *TextWriter) Result() ([]byte, error) {
	return w.g.result(w.buf)
}
