// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package cosmosjson is a JSON engine for document database clients.  It
// presents one token model over two wire encodings: human-readable text and a
// compact, tokenized binary form.
//
// Readers
//
// A Reader is a forward-only pull tokenizer.  Each call to Read advances to
// the next token; typed accessors materialize the current value on demand, so
// skipping values never pays for conversion.  NewReader sniffs the format
// from the first byte of the buffer: binary buffers always start with 0x80.
//
// Writers
//
// A Writer accepts structural and scalar calls, validates that they form a
// well-nested document and produces a buffer in its format.  WriteAll drains
// a Reader into a Writer, which is how buffers are converted between formats
// in a single streaming pass.
//
// Navigators
//
// A Navigator gives random access over a complete buffer.  Nodes are plain
// offsets into the buffer, so they are cheap to copy, never own data and stay
// valid as long as the buffer does.
//
// Binary encoding
//
// Every binary value starts with a one byte type marker.  Small integers and
// a table of common "system" strings fit in the marker itself.  Typed
// numerics (Int8 through Float64, UInt32), GUIDs and raw binary keep their
// exact subtype.  An optional StringDictionary, shared between a writer and a
// later reader, replaces repeated strings with one or two byte codes.
// Other strings are written as the offset of their first occurrence when
// repeated, and GUIDs, hex digits, timestamps and other small-alphabet ASCII
// strings are bit-packed.  WithStringEncoding(false) turns that off.
//
// Readers, writers and navigators are not safe for concurrent use.  A
// StringDictionary does no locking; only one writer may use it at a time.
package cosmosjson
