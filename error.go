package cosmosjson

import (
	"errors"
	"fmt"
)

// ErrMaxDepth is wrapped by a SyntaxError when nesting exceeds the configured
// maximum depth.
var ErrMaxDepth = errors.New("maximum depth exceeded")

// SyntaxError records malformed nesting, a truncated buffer or trailing data.
// It can include a small excerpt of text from the buffer at the point of
// error.
type SyntaxError struct {
	Offset int
	msg    string
	err    error
}

func (se *SyntaxError) Error() string {
	if se.err != nil {
		return fmt.Sprintf("syntax error at offset %d: %s: %v", se.Offset, se.msg, se.err)
	}
	return fmt.Sprintf("syntax error at offset %d: %s", se.Offset, se.msg)
}

func (se *SyntaxError) Unwrap() error { return se.err }

// TypeMismatchError is returned when an accessor is called for a kind that
// doesn't match the current token or node.
type TypeMismatchError struct {
	Want TokenType
	Got  TokenType
}

func (te *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s accessor called on %s", te.Want, te.Got)
}

// MarkerError records an unknown binary type marker.
type MarkerError struct {
	Offset int
	Marker byte
}

func (me *MarkerError) Error() string {
	return fmt.Sprintf("unknown type marker 0x%02X at offset %d", me.Marker, me.Offset)
}

// DictionaryError is returned when a binary buffer refers to a dictionary
// code that the bound dictionary does not hold.  A code that is in range for
// a different dictionary is not detected.
type DictionaryError struct {
	Code int
	Size int
}

func (de *DictionaryError) Error() string {
	if de.Size < 0 {
		return fmt.Sprintf("dictionary code %d found but no dictionary is bound", de.Code)
	}
	return fmt.Sprintf("dictionary code %d out of range for dictionary of size %d", de.Code, de.Size)
}

// WriteStateError is returned when Writer calls don't form a well-nested
// document.  After one is returned, every subsequent call returns it too.
type WriteStateError struct {
	msg string
}

func (we *WriteStateError) Error() string { return "invalid write: " + we.msg }

// ValueError records a scalar payload that failed to materialize, such as a
// bad escape sequence or number literal.
type ValueError struct {
	Offset int
	Type   TokenType
	err    error
}

func (ve *ValueError) Error() string {
	return fmt.Sprintf("invalid %s value at offset %d: %v", ve.Type, ve.Offset, ve.err)
}

func (ve *ValueError) Unwrap() error { return ve.err }

func newSyntaxError(buf []byte, offset int, msg string) error {
	return &SyntaxError{Offset: offset, msg: msg + excerpt(buf, offset)}
}

// excerpt returns a short quotation of the buffer at offset for error
// messages.
func excerpt(buf []byte, offset int) string {
	if offset < 0 || offset >= len(buf) {
		return ""
	}
	end := offset + 20
	if end > len(buf) {
		end = len(buf)
	}
	return fmt.Sprintf(", near %q", buf[offset:end])
}
