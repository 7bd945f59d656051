// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import "github.com/google/uuid"

// Reader is a forward-only pull tokenizer over a serialized buffer.
//
// Read advances to the next token and returns false once the root value has
// been consumed.  After a successful Read, TokenType reports the kind of the
// current token and the accessor matching that kind materializes its value.
// Calling an accessor for a different kind returns a *TypeMismatchError.
// Values are not validated until an accessor is called, so skipping them is
// cheap.
type Reader interface {
	// Format returns the serialization format of the underlying buffer.
	Format() Format
	// Read advances to the next token.
	Read() (bool, error)
	// TokenType returns the kind of the current token.
	TokenType() TokenType
	// CurrentDepth returns the number of containers enclosing the position
	// after the current token.
	CurrentDepth() int

	// StringValue returns the current String or FieldName token.
	StringValue() (string, error)
	// BufferedString returns the UTF-8 bytes of the current String or
	// FieldName token without copying, if the encoding holds them verbatim.
	// The slice aliases the reader's buffer and must not be modified.
	BufferedString() ([]byte, bool)
	NumberValue() (Number64, error)
	Int8Value() (int8, error)
	Int16Value() (int16, error)
	Int32Value() (int32, error)
	Int64Value() (int64, error)
	UInt32Value() (uint32, error)
	Float32Value() (float32, error)
	Float64Value() (float64, error)
	GuidValue() (uuid.UUID, error)
	// BinaryValue returns the current Binary token.  For binary buffers the
	// slice aliases the buffer.
	BinaryValue() ([]byte, error)
}

// Option configures readers, writers and navigators.
type Option func(*options)

type options struct {
	dict     *StringDictionary
	maxDepth int
	noEncode bool
}

// WithDictionary binds a string dictionary.  Binary writers add eligible
// strings to it; binary readers and navigators resolve codes with it.  Text
// formats ignore it.
func WithDictionary(d *StringDictionary) Option {
	return func(o *options) { o.dict = d }
}

// WithMaxDepth sets the maximum nesting depth.  The default is 200.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithStringEncoding controls whether binary writers use the compact string
// encodings: GUID strings, hex and date-time nibble strings, bit-packed
// strings and back references to earlier strings.  It is on by default.
// Readers always decode these encodings, and text formats ignore it.
func WithStringEncoding(enabled bool) Option {
	return func(o *options) { o.noEncode = !enabled }
}

func buildOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewReader returns a Reader over buf, choosing the text or binary
// implementation from the buffer's first byte.
func NewReader(buf []byte, opts ...Option) (Reader, error) {
	if DetectFormat(buf) == BinaryFormat {
		return NewBinaryReader(buf, opts...)
	}
	return NewTextReader(buf, opts...)
}

func mismatch(want, got TokenType) error {
	return &TypeMismatchError{Want: want, Got: got}
}
