package cosmosjson

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/x448/float16"
)

// Binary type markers.  Ranges are half-open: [min, max).
const (
	markerLiteralIntMin byte = 0x00
	markerLiteralIntMax byte = 0x20

	markerSystemStringMin byte = 0x20
	markerSystemStringMax byte = 0x40

	markerUserString1Min byte = 0x40
	markerUserString1Max byte = 0x60
	markerUserString2Min byte = 0x60
	markerUserString2Max byte = 0x68

	markerLowercaseGuidString  byte = 0x75
	markerUppercaseGuidString  byte = 0x76
	markerQuotedGuidString     byte = 0x77
	markerCompressedLowercase  byte = 0x78
	markerCompressedUppercase  byte = 0x79
	markerCompressedDateTime   byte = 0x7A
	markerPacked4BitString     byte = 0x7B
	markerPacked5BitString     byte = 0x7C
	markerPacked6BitString     byte = 0x7D
	markerPacked7BitStringLen1 byte = 0x7E
	markerPacked7BitStringLen2 byte = 0x7F

	markerEncodedStringMin byte = 0x80
	markerEncodedStringMax byte = 0xC0

	markerString1ByteLength byte = 0xC0
	markerString2ByteLength byte = 0xC1
	markerString4ByteLength byte = 0xC2

	markerReferenceString1 byte = 0xC3
	markerReferenceString4 byte = 0xC6

	markerNumberUInt64 byte = 0xC7
	markerNumberUInt8  byte = 0xC8
	markerNumberInt16  byte = 0xC9
	markerNumberInt32  byte = 0xCA
	markerNumberInt64  byte = 0xCB
	markerNumberDouble byte = 0xCC

	markerFloat32 byte = 0xCD
	markerFloat64 byte = 0xCE
	markerFloat16 byte = 0xCF

	markerNull  byte = 0xD0
	markerFalse byte = 0xD1
	markerTrue  byte = 0xD2
	markerGuid  byte = 0xD3

	markerUInt8  byte = 0xD7
	markerInt8   byte = 0xD8
	markerInt16  byte = 0xD9
	markerInt32  byte = 0xDA
	markerInt64  byte = 0xDB
	markerUInt32 byte = 0xDC

	markerBinary1ByteLength byte = 0xDD
	markerBinary2ByteLength byte = 0xDE
	markerBinary4ByteLength byte = 0xDF

	markerArr0   byte = 0xE0
	markerArr1   byte = 0xE1
	markerArrL1  byte = 0xE2
	markerArrL2  byte = 0xE3
	markerArrL4  byte = 0xE4
	markerArrLC1 byte = 0xE5
	markerArrLC2 byte = 0xE6
	markerArrLC4 byte = 0xE7

	markerObj0   byte = 0xE8
	markerObj1   byte = 0xE9
	markerObjL1  byte = 0xEA
	markerObjL2  byte = 0xEB
	markerObjL4  byte = 0xEC
	markerObjLC1 byte = 0xED
	markerObjLC2 byte = 0xEE
	markerObjLC4 byte = 0xEF
)

const guidLength = 16

// systemStrings are encoded in the type marker alone.  The table is part of
// the wire format: entries may never be reordered or removed.
var systemStrings = [...]string{
	"$s",
	"$t",
	"$v",
	"_attachments",
	"_etag",
	"_rid",
	"_self",
	"_ts",
	"attachments/",
	"coordinates",
	"geometry",
	"GeometryCollection",
	"id",
	"inE",
	"inV",
	"label",
	"LineString",
	"link",
	"MultiLineString",
	"MultiPoint",
	"MultiPolygon",
	"name",
	"outE",
	"outV",
	"Point",
	"Polygon",
	"properties",
	"type",
	"value",
	"Feature",
	"FeatureCollection",
	"_id",
}

var (
	systemStringIDs   = make(map[string]int, len(systemStrings))
	systemStringBytes = make([][]byte, len(systemStrings))
)

func init() {
	for i, s := range systemStrings {
		systemStringIDs[s] = i
		systemStringBytes[i] = []byte(s)
	}
}

// valueHeader describes the value that starts at some offset in a binary
// buffer.  For scalars, header+length is the whole value.  For containers,
// length is the size of the contents, or -1 for a single item container
// whose size must be computed from its item.
type valueHeader struct {
	typ    TokenType
	marker byte
	header int
	length int
	count  int
}

func (h valueHeader) isContainer() bool {
	return h.typ == BeginArray || h.typ == BeginObject
}

func (h valueHeader) isString() bool {
	return h.typ == String
}

// readHeader decodes the marker and any length fields at pos.  It checks that
// the header and, where known, the payload lie within buf, but it does not
// look at payload bytes.
func readHeader(buf []byte, pos int) (valueHeader, error) {
	if pos >= len(buf) {
		return valueHeader{}, newSyntaxError(buf, pos, "unexpected end of buffer")
	}
	m := buf[pos]
	h := valueHeader{marker: m, header: 1, count: -1}

	switch {
	case m < markerLiteralIntMax:
		h.typ = Number
	case m < markerSystemStringMax:
		h.typ = String
	case m < markerUserString1Max:
		h.typ = String
	case m < markerUserString2Max:
		h.typ = String
		h.header = 2
	case m >= markerEncodedStringMin && m < markerEncodedStringMax:
		h.typ = String
		h.length = int(m - markerEncodedStringMin)
	case m >= markerLowercaseGuidString && m <= markerQuotedGuidString:
		h.typ, h.length = String, guidLength
	case m >= markerCompressedLowercase && m <= markerCompressedDateTime:
		h.typ = String
		n, err := readLength(buf, pos+1, 1)
		if err != nil {
			return h, err
		}
		h.header, h.length = 2, (n+1)/2
	case m >= markerPacked4BitString && m <= markerPacked7BitStringLen2:
		h.typ = String
		width, header := 1, 3
		switch m {
		case markerPacked7BitStringLen1:
			header = 2
		case markerPacked7BitStringLen2:
			width = 2
		}
		n, err := readLength(buf, pos+1, width)
		if err != nil {
			return h, err
		}
		h.header, h.length = header, (n*packedBits(m)+7)/8
	case isReference(m):
		h.typ, h.length = String, int(m-markerReferenceString1)+1
	default:
		switch m {
		case markerString1ByteLength, markerString2ByteLength, markerString4ByteLength:
			h.typ = String
			n := lengthWidth(m - markerString1ByteLength)
			l, err := readLength(buf, pos+1, n)
			if err != nil {
				return h, err
			}
			h.header += n
			h.length = l
		case markerNumberUInt8:
			h.typ, h.length = Number, 1
		case markerNumberInt16:
			h.typ, h.length = Number, 2
		case markerNumberInt32:
			h.typ, h.length = Number, 4
		case markerNumberInt64, markerNumberDouble:
			h.typ, h.length = Number, 8
		case markerFloat32:
			h.typ, h.length = Float32, 4
		case markerFloat64:
			h.typ, h.length = Float64, 8
		case markerNull:
			h.typ = Null
		case markerFalse:
			h.typ = False
		case markerTrue:
			h.typ = True
		case markerGuid:
			h.typ, h.length = Guid, guidLength
		case markerInt8:
			h.typ, h.length = Int8, 1
		case markerInt16:
			h.typ, h.length = Int16, 2
		case markerInt32:
			h.typ, h.length = Int32, 4
		case markerInt64:
			h.typ, h.length = Int64, 8
		case markerUInt32:
			h.typ, h.length = UInt32, 4
		case markerBinary1ByteLength, markerBinary2ByteLength, markerBinary4ByteLength:
			h.typ = Binary
			n := lengthWidth(m - markerBinary1ByteLength)
			l, err := readLength(buf, pos+1, n)
			if err != nil {
				return h, err
			}
			h.header += n
			h.length = l
		case markerArr0, markerObj0:
			h.typ, h.count = containerType(m), 0
		case markerArr1, markerObj1:
			h.typ, h.length, h.count = containerType(m), -1, 1
		case markerArrL1, markerArrL2, markerArrL4, markerObjL1, markerObjL2, markerObjL4:
			h.typ = containerType(m)
			n := lengthWidth((m - markerArrL1) % 8)
			l, err := readLength(buf, pos+1, n)
			if err != nil {
				return h, err
			}
			h.header += n
			h.length = l
		case markerArrLC1, markerArrLC2, markerArrLC4, markerObjLC1, markerObjLC2, markerObjLC4:
			h.typ = containerType(m)
			n := lengthWidth((m - markerArrLC1) % 8)
			l, err := readLength(buf, pos+1, n)
			if err != nil {
				return h, err
			}
			c, err := readLength(buf, pos+1+n, n)
			if err != nil {
				return h, err
			}
			h.header += 2 * n
			h.length = l
			h.count = c
		default:
			return h, &MarkerError{Offset: pos, Marker: m}
		}
	}

	if pos+h.header > len(buf) {
		return h, newSyntaxError(buf, pos, "unexpected end of buffer")
	}
	if h.length > 0 && h.length > len(buf)-pos-h.header {
		return h, newSyntaxError(buf, pos, "value length exceeds buffer")
	}
	return h, nil
}

func containerType(m byte) TokenType {
	if m < markerObj0 {
		return BeginArray
	}
	return BeginObject
}

// lengthWidth maps a 0, 1, 2 marker offset to a 1, 2 or 4 byte field.
func lengthWidth(i byte) int {
	switch i {
	case 0:
		return 1
	case 1:
		return 2
	}
	return 4
}

func readLength(buf []byte, pos int, width int) (int, error) {
	if pos+width > len(buf) {
		return 0, newSyntaxError(buf, pos, "unexpected end of buffer")
	}
	switch width {
	case 1:
		return int(buf[pos]), nil
	case 2:
		return int(binary.LittleEndian.Uint16(buf[pos:])), nil
	}
	n := binary.LittleEndian.Uint32(buf[pos:])
	if uint64(n) > uint64(len(buf)) {
		return 0, newSyntaxError(buf, pos, "length exceeds buffer")
	}
	return int(n), nil
}

// valueLength returns the total encoded length of the value at pos.
func valueLength(buf []byte, pos int) (int, error) {
	h, err := readHeader(buf, pos)
	if err != nil {
		return 0, err
	}
	if h.length >= 0 {
		return h.header + h.length, nil
	}

	// Single item containers carry no length; measure the item.
	n, err := valueLength(buf, pos+1)
	if err != nil {
		return 0, err
	}
	if h.typ == BeginObject {
		nh, err := readHeader(buf, pos+1)
		if err != nil {
			return 0, err
		}
		if !nh.isString() {
			return 0, newSyntaxError(buf, pos+1, "expecting field name")
		}
		m, err := valueLength(buf, pos+1+n)
		if err != nil {
			return 0, err
		}
		n += m
	}
	return 1 + n, nil
}

// payload returns the bytes after the header of a scalar value.
func payload(buf []byte, pos int, h valueHeader) []byte {
	start := pos + h.header
	return buf[start : start+h.length]
}

// bufferedString returns a view of the UTF-8 bytes of the string at pos
// without copying, when the encoding allows it.
func bufferedString(buf []byte, pos int, h valueHeader) ([]byte, bool) {
	m := h.marker
	switch {
	case m >= markerSystemStringMin && m < markerSystemStringMax:
		return systemStringBytes[m-markerSystemStringMin], true
	case m >= markerUserString1Min && m < markerEncodedStringMin:
		return nil, false
	case isReference(m):
		target, th, err := referenceTarget(buf, pos, h)
		if err != nil {
			return nil, false
		}
		return bufferedString(buf, target, th)
	}
	return payload(buf, pos, h), true
}

// dictionaryCode decodes a one or two byte user string marker.
func dictionaryCode(buf []byte, pos int) int {
	m := buf[pos]
	if m < markerUserString1Max {
		return int(m - markerUserString1Min)
	}
	return oneByteDictionaryCodes + int(m-markerUserString2Min)*256 + int(buf[pos+1])
}

// decodeString materializes the string at pos.
func decodeString(buf []byte, pos int, h valueHeader, dict *StringDictionary) (string, error) {
	m := h.marker
	switch {
	case m >= markerUserString1Min && m < markerUserString2Max:
		return dict.lookupOrError(dictionaryCode(buf, pos))
	case isReference(m):
		target, th, err := referenceTarget(buf, pos, h)
		if err != nil {
			return "", err
		}
		return decodeString(buf, target, th, dict)
	}
	b, ok := bufferedString(buf, pos, h)
	if !ok {
		var err error
		if b, err = expandString(buf, pos, h); err != nil {
			return "", &ValueError{Offset: pos, Type: String, err: err}
		}
	}
	if !utf8.Valid(b) {
		return "", &ValueError{Offset: pos, Type: String, err: errInvalidUTF8}
	}
	return string(b), nil
}

// decodeNumber materializes a generic number at pos.
func decodeNumber(buf []byte, pos int, h valueHeader) Number64 {
	m := h.marker
	if m < markerLiteralIntMax {
		return IntNumber(int64(m - markerLiteralIntMin))
	}
	p := payload(buf, pos, h)
	switch m {
	case markerNumberUInt8, markerUInt8:
		return IntNumber(int64(p[0]))
	case markerFloat16:
		return FloatNumber(float64(float16.Frombits(binary.LittleEndian.Uint16(p)).Float32()))
	case markerNumberUInt64:
		v := binary.LittleEndian.Uint64(p)
		if v > math.MaxInt64 {
			return FloatNumber(float64(v))
		}
		return IntNumber(int64(v))
	case markerNumberInt16:
		return IntNumber(int64(int16(binary.LittleEndian.Uint16(p))))
	case markerNumberInt32:
		return IntNumber(int64(int32(binary.LittleEndian.Uint32(p))))
	case markerNumberInt64:
		return IntNumber(int64(binary.LittleEndian.Uint64(p)))
	}
	return FloatNumber(math.Float64frombits(binary.LittleEndian.Uint64(p)))
}

// appendIntegerNumber writes a generic integer in its most compact form.
func appendIntegerNumber(out []byte, v int64) []byte {
	switch {
	case v >= 0 && v < int64(markerLiteralIntMax):
		return append(out, markerLiteralIntMin+byte(v))
	case v >= 0 && v <= math.MaxUint8:
		return append(out, markerNumberUInt8, byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		out = append(out, markerNumberInt16)
		return binary.LittleEndian.AppendUint16(out, uint16(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		out = append(out, markerNumberInt32)
		return binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	out = append(out, markerNumberInt64)
	return binary.LittleEndian.AppendUint64(out, uint64(v))
}

// appendLengthPrefixed writes one of three markers followed by a 1, 2 or 4
// byte length, whichever is smallest.
func appendLengthPrefixed(out []byte, marker1 byte, n int) []byte {
	switch {
	case n <= math.MaxUint8:
		return append(out, marker1, byte(n))
	case n <= math.MaxUint16:
		out = append(out, marker1+1)
		return binary.LittleEndian.AppendUint16(out, uint16(n))
	}
	out = append(out, marker1+2)
	return binary.LittleEndian.AppendUint32(out, uint32(n))
}
