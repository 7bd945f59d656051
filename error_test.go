package cosmosjson

import (
	"errors"
	"fmt"
	"testing"
)

func TestSyntaxError(t *testing.T) {
	r, err := NewTextReader([]byte(`{,}`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Read()
	if err != nil {
		t.Fatalf("unexpected error on first token: %v", err)
	}
	_, err = r.Read()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	wrapped := fmt.Errorf("wrapped: %w", err)

	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatal("error wasn't a SyntaxError")
	}
	if !errors.As(wrapped, &se) {
		t.Fatal("wrapped error wasn't a SyntaxError")
	}
	if se.Offset != 1 {
		t.Errorf("expected offset 1, got %d", se.Offset)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&SyntaxError{Offset: 3, msg: "boom"}, "syntax error at offset 3: boom"},
		{&SyntaxError{msg: "reading text", err: ErrMaxDepth}, "syntax error at offset 0: reading text: maximum depth exceeded"},
		{newSyntaxError([]byte("abc"), 1, "bad"), `syntax error at offset 1: bad, near "bc"`},
		{newSyntaxError([]byte("abc"), 3, "bad"), "syntax error at offset 3: bad"},
		{&TypeMismatchError{Want: Number, Got: String}, "type mismatch: Number accessor called on String"},
		{&MarkerError{Offset: 1, Marker: 0xF0}, "unknown type marker 0xF0 at offset 1"},
		{&DictionaryError{Code: 5, Size: -1}, "dictionary code 5 found but no dictionary is bound"},
		{&DictionaryError{Code: 5, Size: 2}, "dictionary code 5 out of range for dictionary of size 2"},
		{&WriteStateError{msg: "x"}, "invalid write: x"},
		{&ValueError{Offset: 2, Type: Guid, err: errInvalidUTF8}, "invalid Guid value at offset 2: invalid UTF-8"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	ve := error(&ValueError{Type: String, err: errControlChar})
	if !errors.Is(ve, errControlChar) {
		t.Error("ValueError doesn't unwrap to its cause")
	}
	se := fmt.Errorf("context: %w", &SyntaxError{msg: "deep", err: ErrMaxDepth})
	if !errors.Is(se, ErrMaxDepth) {
		t.Error("SyntaxError doesn't unwrap to ErrMaxDepth")
	}
}
