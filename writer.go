// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Writer builds a serialized document from a sequence of calls.
//
// Calls are validated against the same grammar a Reader enforces.  The first
// invalid call returns a *WriteStateError and every later call returns the
// same error.  Result returns the finished buffer once exactly one complete
// root value has been written.
type Writer interface {
	// Format returns the serialization format being produced.
	Format() Format
	WriteArrayStart() error
	WriteArrayEnd() error
	WriteObjectStart() error
	WriteObjectEnd() error
	WriteFieldName(name string) error
	// WriteUTF8FieldName writes a field name given as UTF-8 bytes.
	WriteUTF8FieldName(name []byte) error
	WriteString(s string) error
	// WriteUTF8String writes a string value given as UTF-8 bytes.
	WriteUTF8String(s []byte) error
	WriteNumber(n Number64) error
	WriteBool(b bool) error
	WriteNull() error
	WriteInt8(v int8) error
	WriteInt16(v int16) error
	WriteInt32(v int32) error
	WriteInt64(v int64) error
	WriteUInt32(v uint32) error
	WriteFloat32(v float32) error
	WriteFloat64(v float64) error
	WriteGuid(g uuid.UUID) error
	WriteBinary(b []byte) error
	// CurrentDepth returns the number of open containers.
	CurrentDepth() int
	// Result returns the serialized document.  It fails if the root value is
	// incomplete or an earlier call failed.
	Result() ([]byte, error)
}

var (
	errIncomplete      = errors.New("document is incomplete")
	errNonFiniteNumber = errors.New("NaN and infinity are not valid JSON numbers")
)

// NewWriter returns a Writer for the given format.
func NewWriter(format Format, opts ...Option) (Writer, error) {
	switch format {
	case TextFormat:
		return NewTextWriter(opts...), nil
	case BinaryFormat:
		return NewBinaryWriter(opts...), nil
	}
	return nil, fmt.Errorf("cannot create writer for %s format", format)
}

// writeGuard is the grammar check and sticky error shared by writers.
type writeGuard struct {
	state objectState
	last  TokenType
	err   error
}

func newWriteGuard(maxDepth int) writeGuard {
	return writeGuard{state: newObjectState(maxDepth)}
}

// check registers tt, or returns the sticky error.
func (g *writeGuard) check(tt TokenType) error {
	if g.err != nil {
		return g.err
	}
	if err := g.state.register(tt); err != nil {
		return g.fail(&WriteStateError{msg: fmt.Sprintf("%s: %v", tt, err)})
	}
	g.last = tt
	return nil
}

// checkRaw registers a complete value that starts with tt.
func (g *writeGuard) checkRaw(tt TokenType) error {
	if err := g.check(tt); err != nil {
		return err
	}
	switch tt {
	case BeginArray:
		return g.check(EndArray)
	case BeginObject:
		return g.check(EndObject)
	}
	return nil
}

// depthBudget is the number of containers that may still be opened.
func (g *writeGuard) depthBudget() int {
	return g.state.maxDepth - g.state.depth()
}

func (g *writeGuard) fail(err error) error {
	if g.err == nil {
		g.err = err
	}
	return g.err
}

// needsSeparator reports whether a value-separator must precede the next
// field name or array item.
func (g *writeGuard) needsSeparator() bool {
	if g.state.depth() == 0 {
		return false
	}
	switch g.last {
	case BeginArray, BeginObject, FieldName:
		return false
	}
	return true
}

func (g *writeGuard) result(buf []byte) ([]byte, error) {
	if g.err != nil {
		return nil, g.err
	}
	if !g.state.complete() {
		return nil, &WriteStateError{msg: errIncomplete.Error()}
	}
	return buf, nil
}

// Grammar checks that a token sequence forms exactly one well-nested
// document.  It lets Reader and Writer implementations outside this package
// classify strings and report the same *WriteStateError as the built-in
// writers.  Errors are sticky.
type Grammar struct {
	g writeGuard
}

// NewGrammar returns a Grammar with the given depth limit; zero or less means
// DefaultMaxDepth.
func NewGrammar(maxDepth int) *Grammar {
	return &Grammar{g: newWriteGuard(maxDepth)}
}

// Next validates and records the next token.
func (g *Grammar) Next(tt TokenType) error { return g.g.check(tt) }

// ExpectingName reports whether the next token must be a field name or the
// end of an object.
func (g *Grammar) ExpectingName() bool { return g.g.state.expectingName() }

// Depth returns the number of open containers.
func (g *Grammar) Depth() int { return g.g.state.depth() }

// Done reports whether a complete root value has been recorded.
func (g *Grammar) Done() bool { return g.g.state.complete() }

// Fail records err as the sticky error, unless one is already recorded, and
// returns the sticky error.
func (g *Grammar) Fail(err error) error { return g.g.fail(err) }

// Err returns the sticky error, if any.
func (g *Grammar) Err() error { return g.g.err }

// Finish returns the sticky error or a *WriteStateError if the document is
// incomplete.
func (g *Grammar) Finish() error {
	_, err := g.g.result(nil)
	return err
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// WriteAll drains r into w.  Strings are passed as buffered bytes when the
// reader can provide them, skipping materialization.
func WriteAll(w Writer, r Reader) error {
	return Copy(w, r)
}

// Copy is WriteAll for concrete reader and writer types.
func Copy[W Writer, R Reader](w W, r R) error {
	for {
		ok, err := r.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := copyToken(w, r); err != nil {
			return err
		}
	}
}

func copyToken[W Writer, R Reader](w W, r R) error {
	switch tt := r.TokenType(); tt {
	case BeginArray:
		return w.WriteArrayStart()
	case EndArray:
		return w.WriteArrayEnd()
	case BeginObject:
		return w.WriteObjectStart()
	case EndObject:
		return w.WriteObjectEnd()
	case FieldName:
		if b, ok := r.BufferedString(); ok {
			return w.WriteUTF8FieldName(b)
		}
		s, err := r.StringValue()
		if err != nil {
			return err
		}
		return w.WriteFieldName(s)
	case String:
		if b, ok := r.BufferedString(); ok {
			return w.WriteUTF8String(b)
		}
		s, err := r.StringValue()
		if err != nil {
			return err
		}
		return w.WriteString(s)
	case Null:
		return w.WriteNull()
	case True:
		return w.WriteBool(true)
	case False:
		return w.WriteBool(false)
	case Number:
		n, err := r.NumberValue()
		if err != nil {
			return err
		}
		return w.WriteNumber(n)
	case Int8:
		v, err := r.Int8Value()
		if err != nil {
			return err
		}
		return w.WriteInt8(v)
	case Int16:
		v, err := r.Int16Value()
		if err != nil {
			return err
		}
		return w.WriteInt16(v)
	case Int32:
		v, err := r.Int32Value()
		if err != nil {
			return err
		}
		return w.WriteInt32(v)
	case Int64:
		v, err := r.Int64Value()
		if err != nil {
			return err
		}
		return w.WriteInt64(v)
	case UInt32:
		v, err := r.UInt32Value()
		if err != nil {
			return err
		}
		return w.WriteUInt32(v)
	case Float32:
		v, err := r.Float32Value()
		if err != nil {
			return err
		}
		return w.WriteFloat32(v)
	case Float64:
		v, err := r.Float64Value()
		if err != nil {
			return err
		}
		return w.WriteFloat64(v)
	case Guid:
		v, err := r.GuidValue()
		if err != nil {
			return err
		}
		return w.WriteGuid(v)
	case Binary:
		v, err := r.BinaryValue()
		if err != nil {
			return err
		}
		return w.WriteBinary(v)
	default:
		return fmt.Errorf("cannot copy token %s", tt)
	}
}
