// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cosmosjson

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

// Compact string encodings.  A GUID string stores the 16 bytes behind its 36
// hex digits.  Nibble strings store one table index per half byte.  Packed
// strings store each character as a 4 to 7 bit offset from a base character.
// Reference strings hold the absolute offset of an earlier string.

const (
	guidStringLength = 36

	// Shorter strings are never worth a nibble encoding.
	minNibbleStringLength = 16

	// Values longer than this are written inline rather than shared.
	maxReferenceValueLength = 88

	minPacked7BitStringLength = 88
)

var (
	errBadReference     = errors.New("reference does not point at an earlier string")
	errBadEncodedString = errors.New("malformed encoded string")
)

type nibbleTable struct {
	marker byte
	chars  string
	index  [utf8.RuneSelf]int8
}

func newNibbleTable(marker byte, chars string) *nibbleTable {
	t := &nibbleTable{marker: marker, chars: chars}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := 0; i < len(chars); i++ {
		t.index[chars[i]] = int8(i)
	}
	return t
}

// nibbleTables are tried in order when encoding.
var nibbleTables = [...]*nibbleTable{
	newNibbleTable(markerCompressedDateTime, " -.0123456789:TZ"),
	newNibbleTable(markerCompressedLowercase, "0123456789abcdef"),
	newNibbleTable(markerCompressedUppercase, "0123456789ABCDEF"),
}

func nibbleTableFor(m byte) *nibbleTable {
	for _, t := range nibbleTables {
		if t.marker == m {
			return t
		}
	}
	return nil
}

func packedBits(m byte) int {
	switch m {
	case markerPacked4BitString:
		return 4
	case markerPacked5BitString:
		return 5
	case markerPacked6BitString:
		return 6
	}
	return 7
}

// referenceTarget resolves the reference string at pos.  The target must be
// an earlier string that is not itself a reference.
func referenceTarget(buf []byte, pos int, h valueHeader) (int, valueHeader, error) {
	p := payload(buf, pos, h)
	target := 0
	for i := len(p) - 1; i >= 0; i-- {
		target = target<<8 | int(p[i])
	}
	if target < 1 || target >= pos {
		return 0, valueHeader{}, &ValueError{Offset: pos, Type: String, err: errBadReference}
	}
	th, err := readHeader(buf, target)
	if err != nil || !th.isString() || isReference(th.marker) {
		return 0, valueHeader{}, &ValueError{Offset: pos, Type: String, err: errBadReference}
	}
	return target, th, nil
}

func isReference(m byte) bool {
	return m >= markerReferenceString1 && m <= markerReferenceString4
}

// referenceWidth is the number of offset bytes needed to reach off.
func referenceWidth(off int) int {
	switch {
	case off <= math.MaxUint8:
		return 1
	case off <= math.MaxUint16:
		return 2
	case off <= 0xFFFFFF:
		return 3
	}
	return 4
}

// expandString decodes the GUID, nibble and packed string encodings.
func expandString(buf []byte, pos int, h valueHeader) ([]byte, error) {
	m := h.marker
	p := payload(buf, pos, h)
	switch {
	case m >= markerLowercaseGuidString && m <= markerQuotedGuidString:
		return expandGuidString(m, p), nil
	case m >= markerCompressedLowercase && m <= markerCompressedDateTime:
		return expandNibbleString(nibbleTableFor(m), int(buf[pos+1]), p)
	case m >= markerPacked4BitString && m <= markerPacked7BitStringLen2:
		var n int
		var base byte
		switch m {
		case markerPacked7BitStringLen1:
			n = int(buf[pos+1])
		case markerPacked7BitStringLen2:
			n = int(binary.LittleEndian.Uint16(buf[pos+1:]))
		default:
			n, base = int(buf[pos+1]), buf[pos+2]
		}
		return expandPackedString(packedBits(m), base, n, p), nil
	}
	return nil, errBadEncodedString
}

func expandGuidString(m byte, p []byte) []byte {
	digits := nibbleTableFor(markerCompressedLowercase).chars
	if m == markerUppercaseGuidString {
		digits = nibbleTableFor(markerCompressedUppercase).chars
	}
	out := make([]byte, 0, guidStringLength+2)
	if m == markerQuotedGuidString {
		out = append(out, '"')
	}
	for i, b := range p {
		if i == 4 || i == 6 || i == 8 || i == 10 {
			out = append(out, '-')
		}
		out = append(out, digits[b&0x0F], digits[b>>4])
	}
	if m == markerQuotedGuidString {
		out = append(out, '"')
	}
	return out
}

func expandNibbleString(t *nibbleTable, n int, p []byte) ([]byte, error) {
	if n%2 == 1 && p[len(p)-1]>>4 != 0 {
		return nil, errBadEncodedString
	}
	out := make([]byte, n)
	for i := range out {
		b := p[i/2]
		if i%2 == 1 {
			b >>= 4
		}
		out[i] = t.chars[b&0x0F]
	}
	return out, nil
}

// expandPackedString reads n characters of bits width from a little endian
// bit stream.
func expandPackedString(bits int, base byte, n int, p []byte) []byte {
	mask := byte(1)<<bits - 1
	out := make([]byte, n)
	for i := range out {
		off := i * bits
		v := uint16(p[off/8])
		if off/8+1 < len(p) {
			v |= uint16(p[off/8+1]) << 8
		}
		out[i] = byte(v>>(off%8))&mask + base
	}
	return out
}

// appendGuidString writes a 36 character GUID in a single letter case, or the
// same in lower case wrapped in double quotes, as its 16 bytes.
func appendGuidString(out []byte, s []byte) ([]byte, bool) {
	m := markerLowercaseGuidString
	if len(s) == guidStringLength+2 && s[0] == '"' && s[len(s)-1] == '"' {
		m, s = markerQuotedGuidString, s[1:len(s)-1]
	}
	if len(s) != guidStringLength {
		return out, false
	}
	var g [guidLength]byte
	var lower, upper bool
	j := 0
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return out, false
			}
			continue
		}
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v, lower = c-'a'+10, true
		case c >= 'A' && c <= 'F':
			v, upper = c-'A'+10, true
		default:
			return out, false
		}
		g[j/2] |= v << (4 * (j % 2))
		j++
	}
	if upper {
		if lower || m == markerQuotedGuidString {
			return out, false
		}
		m = markerUppercaseGuidString
	}
	out = append(out, m)
	return append(out, g[:]...), true
}

// appendCompressedString writes an ASCII string as a nibble or packed string
// when one fits.
func appendCompressedString(out []byte, s []byte) ([]byte, bool) {
	if len(s) == 0 {
		return out, false
	}
	var seen [utf8.RuneSelf]bool
	distinct := 0
	lo, hi := s[0], s[0]
	for _, c := range s {
		if c >= utf8.RuneSelf {
			return out, false
		}
		if !seen[c] {
			seen[c] = true
			distinct++
		}
		lo, hi = min(lo, c), max(hi, c)
	}

	if len(s) <= math.MaxUint8 {
		if len(s) >= minNibbleStringLength && distinct <= 16 {
			for _, t := range nibbleTables {
				if b, ok := appendNibbleString(out, s, t); ok {
					return b, true
				}
			}
		}
		span := int(hi-lo) + 1
		switch {
		case span <= 16 && len(s) >= 24:
			return appendPackedString(out, markerPacked4BitString, lo, s), true
		case span <= 32 && len(s) >= 32:
			return appendPackedString(out, markerPacked5BitString, lo, s), true
		case span <= 64 && len(s) >= 40:
			return appendPackedString(out, markerPacked6BitString, lo, s), true
		}
	}
	switch {
	case len(s) >= minPacked7BitStringLength && len(s) <= math.MaxUint8:
		return appendPackedString(out, markerPacked7BitStringLen1, 0, s), true
	case len(s) >= minPacked7BitStringLength && len(s) <= math.MaxUint16:
		return appendPackedString(out, markerPacked7BitStringLen2, 0, s), true
	}
	return out, false
}

func appendNibbleString(out []byte, s []byte, t *nibbleTable) ([]byte, bool) {
	for _, c := range s {
		if t.index[c] < 0 {
			return out, false
		}
	}
	out = append(out, t.marker, byte(len(s)))
	for i := 0; i < len(s); i += 2 {
		b := byte(t.index[s[i]])
		if i+1 < len(s) {
			b |= byte(t.index[s[i+1]]) << 4
		}
		out = append(out, b)
	}
	return out, true
}

func appendPackedString(out []byte, m byte, base byte, s []byte) []byte {
	switch m {
	case markerPacked7BitStringLen1:
		out = append(out, m, byte(len(s)))
	case markerPacked7BitStringLen2:
		out = append(out, m)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(s)))
	default:
		out = append(out, m, byte(len(s)), base)
	}
	bits := packedBits(m)
	var acc uint32
	n := 0
	for _, c := range s {
		acc |= uint32(c-base) << n
		n += bits
		for n >= 8 {
			out = append(out, byte(acc))
			acc >>= 8
			n -= 8
		}
	}
	if n > 0 {
		out = append(out, byte(acc))
	}
	return out
}
