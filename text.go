package cosmosjson

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// Prefixes for typed values in text.  Plain JSON has no way to say "this
// number is an int16", so the text format extends it with a letter prefix.
const (
	int8Prefix     = 'I'
	int16Prefix    = 'H'
	int32Prefix    = 'L'
	unsignedPrefix = 'U'
	float32Prefix  = 'S'
	float64Prefix  = 'D'
	guidPrefix     = 'G'
	binaryPrefix   = 'B'
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf32BEBOM = []byte{0x00, 0x00, 0xFE, 0xFF}
	utf32LEBOM = []byte{0xFF, 0xFE, 0x00, 0x00}

	literalTrue  = []byte("true")
	literalFalse = []byte("false")
	literalNull  = []byte("null")
)

var (
	errInvalidUTF8    = errors.New("invalid UTF-8")
	errControlChar    = errors.New("control character in string")
	errUnknownEscape  = errors.New("unknown escape sequence")
	errBadUnicodeEsc  = errors.New("invalid unicode escape")
	errUnsupportedBOM = errors.New("detected unsupported BOM")
)

// skipBOM returns the length of a UTF-8 byte-order-mark at the start of buf.
// Because only UTF-8 is supported, other BOMs are errors.
func skipBOM(buf []byte) (int, error) {
	if bytes.HasPrefix(buf, utf32BEBOM) || bytes.HasPrefix(buf, utf32LEBOM) {
		return 0, fmt.Errorf("%w: UTF-32", errUnsupportedBOM)
	}
	if bytes.HasPrefix(buf, utf16BEBOM) || bytes.HasPrefix(buf, utf16LEBOM) {
		return 0, fmt.Errorf("%w: UTF-16", errUnsupportedBOM)
	}
	if bytes.HasPrefix(buf, utf8BOM) {
		return len(utf8BOM), nil
	}
	return 0, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == ',' || c == ']' || c == '}' || c == ':'
}

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

// textToken is the extent of one token in a text buffer.  Strings include
// their quotes; typed values include their prefix.
type textToken struct {
	typ     TokenType
	start   int
	end     int
	prefix  int
	escaped bool
}

func (t textToken) raw(buf []byte) []byte { return buf[t.start:t.end] }

// body returns a string without quotes or a typed value without its prefix.
func (t textToken) body(buf []byte) []byte {
	if t.typ == String || t.typ == FieldName {
		return buf[t.start+1 : t.end-1]
	}
	return buf[t.start+t.prefix : t.end]
}

// textScanner finds token boundaries and checks the structural grammar.  It
// never converts scalar payloads; that's left to accessors.
type textScanner struct {
	buf   []byte
	pos   int
	state objectState
	last  TokenType
	tok   textToken
}

func newTextScanner(buf []byte, maxDepth int) (textScanner, error) {
	n, err := skipBOM(buf)
	if err != nil {
		return textScanner{}, &SyntaxError{Offset: 0, msg: "reading text", err: err}
	}
	return textScanner{
		buf:   buf,
		pos:   n,
		state: newObjectState(maxDepth),
	}, nil
}

func (s *textScanner) skipWS() {
	for s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

func (s *textScanner) syntaxError(msg string) error {
	return newSyntaxError(s.buf, s.pos, msg)
}

// next scans the next token into s.tok.
func (s *textScanner) next() (bool, error) {
	s.skipWS()
	if s.state.complete() {
		if s.pos < len(s.buf) {
			return false, s.syntaxError("unexpected data after root value")
		}
		return false, nil
	}
	if s.pos >= len(s.buf) {
		return false, s.syntaxError("unexpected end of buffer")
	}

	afterComma := false
	if s.state.depth() > 0 {
		switch s.last {
		case BeginArray, BeginObject:
		case FieldName:
			if s.buf[s.pos] != ':' {
				return false, s.syntaxError("expecting name-separator")
			}
			s.pos++
			s.skipWS()
		default:
			switch s.buf[s.pos] {
			case ',':
				s.pos++
				s.skipWS()
				afterComma = true
			case ']', '}':
			default:
				return false, s.syntaxError("expecting value-separator or end of container")
			}
		}
		if s.pos >= len(s.buf) {
			return false, s.syntaxError("unexpected end of buffer")
		}
	}

	tok := textToken{start: s.pos}
	c := s.buf[s.pos]
	switch c {
	case '{':
		tok.typ = BeginObject
		s.pos++
	case '}':
		tok.typ = EndObject
		s.pos++
	case '[':
		tok.typ = BeginArray
		s.pos++
	case ']':
		tok.typ = EndArray
		s.pos++
	case '"':
		if err := s.scanString(&tok); err != nil {
			return false, err
		}
		tok.typ = String
		if s.state.expectingName() {
			tok.typ = FieldName
		}
	case 't':
		if !bytes.HasPrefix(s.buf[s.pos:], literalTrue) {
			return false, s.syntaxError("expecting true")
		}
		tok.typ = True
		s.pos += len(literalTrue)
	case 'f':
		if !bytes.HasPrefix(s.buf[s.pos:], literalFalse) {
			return false, s.syntaxError("expecting false")
		}
		tok.typ = False
		s.pos += len(literalFalse)
	case 'n':
		if !bytes.HasPrefix(s.buf[s.pos:], literalNull) {
			return false, s.syntaxError("expecting null")
		}
		tok.typ = Null
		s.pos += len(literalNull)
	default:
		switch {
		case c == '-' || isDigit(c):
			tok.typ = Number
			for s.pos < len(s.buf) && isNumberChar(s.buf[s.pos]) {
				s.pos++
			}
		default:
			if err := s.scanTyped(&tok); err != nil {
				return false, err
			}
		}
	}
	tok.end = s.pos

	if afterComma && (tok.typ == EndArray || tok.typ == EndObject) {
		return false, newSyntaxError(s.buf, tok.start, "expecting value after value-separator")
	}
	if err := s.state.register(tok.typ); err != nil {
		return false, &SyntaxError{Offset: tok.start, msg: "unexpected " + tok.typ.String() + excerpt(s.buf, tok.start), err: err}
	}
	s.tok = tok
	s.last = tok.typ
	return true, nil
}

// scanString finds the closing quote.  Escapes are skipped, not decoded.
func (s *textScanner) scanString(tok *textToken) error {
	i := s.pos + 1
	for {
		j := bytes.IndexAny(s.buf[i:], "\"\\")
		if j < 0 {
			return newSyntaxError(s.buf, tok.start, "string not terminated")
		}
		i += j
		if s.buf[i] == '"' {
			s.pos = i + 1
			return nil
		}
		tok.escaped = true
		i += 2
		if i > len(s.buf) {
			return newSyntaxError(s.buf, tok.start, "string not terminated")
		}
	}
}

// scanTyped recognizes a prefixed typed value and finds its end.
func (s *textScanner) scanTyped(tok *textToken) error {
	rest := s.buf[s.pos:]
	tok.prefix = 1
	switch rest[0] {
	case int8Prefix:
		tok.typ = Int8
	case int16Prefix:
		tok.typ = Int16
	case int32Prefix:
		tok.typ = Int32
		if len(rest) > 1 && rest[1] == int32Prefix {
			tok.typ = Int64
			tok.prefix = 2
		}
	case unsignedPrefix:
		if len(rest) < 2 || rest[1] != int32Prefix {
			return s.syntaxError("expecting unsigned integer prefix")
		}
		tok.typ = UInt32
		tok.prefix = 2
	case float32Prefix:
		tok.typ = Float32
	case float64Prefix:
		tok.typ = Float64
	case guidPrefix:
		tok.typ = Guid
	case binaryPrefix:
		tok.typ = Binary
	default:
		return s.syntaxError("unexpected character")
	}
	s.pos += tok.prefix
	for s.pos < len(s.buf) && !isDelimiter(s.buf[s.pos]) {
		s.pos++
	}
	return nil
}

// unescapeString decodes the body of a JSON string.
func unescapeString(raw []byte, escaped bool) (string, error) {
	if !escaped {
		if err := checkStringBytes(raw); err != nil {
			return "", err
		}
		return string(raw), nil
	}

	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < 0x20 {
			return "", errControlChar
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", errUnknownEscape
		}
		switch raw[i] {
		case '"', '\\', '/':
			out = append(out, raw[i])
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, n, err := decodeUnicodeEscape(raw[i-1:])
			if err != nil {
				return "", err
			}
			out = utf8.AppendRune(out, r)
			i += n - 2
		default:
			return "", errUnknownEscape
		}
	}
	if !utf8.Valid(out) {
		return "", errInvalidUTF8
	}
	return string(out), nil
}

// decodeUnicodeEscape decodes a \uXXXX escape at the start of b, combining a
// following low surrogate escape if there is one.  It returns the number of
// bytes consumed.
func decodeUnicodeEscape(b []byte) (rune, int, error) {
	r1, ok := hex4(b)
	if !ok {
		return 0, 0, errBadUnicodeEsc
	}
	if !utf16.IsSurrogate(r1) {
		return r1, 6, nil
	}
	if r2, ok := hex4(b[6:]); ok {
		if r := utf16.DecodeRune(r1, r2); r != utf8.RuneError {
			return r, 12, nil
		}
	}
	// A lone surrogate can't be represented in UTF-8.
	return utf8.RuneError, 6, nil
}

func hex4(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	n, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

func checkStringBytes(raw []byte) error {
	for _, c := range raw {
		if c < 0x20 {
			return errControlChar
		}
	}
	if !utf8.Valid(raw) {
		return errInvalidUTF8
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string.  Non-ASCII UTF-8 is copied as is.
func appendQuoted(out []byte, s []byte) []byte {
	out = append(out, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		out = append(out, s[start:i]...)
		switch c {
		case '"', '\\':
			out = append(out, '\\', c)
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		}
		start = i + 1
	}
	out = append(out, s[start:]...)
	return append(out, '"')
}
