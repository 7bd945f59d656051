package cosmosjson

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// token is one Reader token with its materialized value.
type token struct {
	typ TokenType
	val any
}

func tok(typ TokenType, val any) token { return token{typ: typ, val: val} }

// readTokens drains r, materializing every scalar and field name.
func readTokens(r Reader) ([]token, error) {
	var out []token
	for {
		ok, err := r.Read()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		t := token{typ: r.TokenType()}
		switch t.typ {
		case BeginArray, EndArray, BeginObject, EndObject:
		case FieldName:
			if t.val, err = r.StringValue(); err != nil {
				return out, err
			}
		default:
			if t.val, err = readerScalar(r); err != nil {
				return out, err
			}
		}
		out = append(out, t)
	}
}

// writeScript is a sequence of Writer calls.
type writeScript func(w Writer) error

func writeFormat(t *testing.T, format Format, script writeScript, opts ...Option) []byte {
	t.Helper()
	w, err := NewWriter(format, opts...)
	require.NoError(t, err)
	require.NoError(t, script(w))
	buf, err := w.Result()
	require.NoError(t, err)
	return buf
}

// decodeHex decodes hex, ignoring spaces.
func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("error decoding test output: %v", err)
	}
	return b
}

func requireHex(t *testing.T, expect string, got []byte) {
	t.Helper()
	want := decodeHex(t, expect)
	if string(want) != string(got) {
		t.Fatalf("output doesn't match expected:\nGot:    %v\nExpect: %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func getTestFiles(t testing.TB, dir, prefix, suffix string) []string {
	t.Helper()
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	keep := make([]string, 0)
	for _, file := range files {
		name := file.Name()
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if suffix != "" && !strings.HasSuffix(name, suffix) {
			continue
		}
		keep = append(keep, name)
	}

	return keep
}

// textToBinary converts a text document to binary.
func textToBinary(t *testing.T, text string, opts ...Option) []byte {
	t.Helper()
	r, err := NewTextReader([]byte(text))
	require.NoError(t, err)
	w := NewBinaryWriter(opts...)
	require.NoError(t, Copy(w, r))
	buf, err := w.Result()
	require.NoError(t, err)
	return buf
}
