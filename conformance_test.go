package cosmosjson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wandb/simplejsonext"
)

// The suite follows JSONTestSuite naming: y_ files must parse, n_ files must
// fail.  t_ files use the typed value extensions.
const testSuite = "testdata/suite"

func readSuiteFile(t testing.TB, name string) []byte {
	t.Helper()
	text, err := os.ReadFile(filepath.Join(testSuite, name))
	if err != nil {
		t.Fatalf("error reading %s: %v", name, err)
	}
	return text
}

// convertDoc re-encodes a serialized document, whatever its format.
func convertDoc(buf []byte, to Format, opts ...Option) ([]byte, error) {
	r, err := NewReader(buf, opts...)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(to, opts...)
	if err != nil {
		return nil, err
	}
	if err := WriteAll(w, r); err != nil {
		return nil, err
	}
	return w.Result()
}

func TestSuite_Passing(t *testing.T) {
	t.Parallel()
	files := getTestFiles(t, testSuite, "y", ".json")
	require.NotEmpty(t, files)
	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			t.Parallel()
			text := readSuiteFile(t, f)
			got := testPassingConversion(t, text)

			ref, err := simplejsonext.Unmarshal(text)
			if err != nil {
				// Without a reference parse there is nothing to compare.
				t.Logf("skipping, simplejsonext error: %v\ntext: %s", err, string(text))
				return
			}
			assert.Equal(t, ref, plainValue(got))
		})
	}
}

func TestSuite_Typed(t *testing.T) {
	t.Parallel()
	files := getTestFiles(t, testSuite, "t", ".json")
	require.NotEmpty(t, files)
	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			t.Parallel()
			testPassingConversion(t, readSuiteFile(t, f))
		})
	}
}

// testPassingConversion checks that text reads cleanly and that its binary
// encodings, with and without a dictionary, hold the same values.  It
// returns the materialized document.
func testPassingConversion(t *testing.T, text []byte) any {
	t.Helper()
	r, err := NewTextReader(text)
	require.NoError(t, err)
	want, err := Materialize(r)
	require.NoError(t, err)

	canonical, err := convertDoc(text, TextFormat)
	require.NoError(t, err)

	for _, dict := range []*StringDictionary{nil, NewStringDictionary(0)} {
		var opts []Option
		if dict != nil {
			opts = append(opts, WithDictionary(dict))
		}
		bin, err := convertDoc(text, BinaryFormat, opts...)
		require.NoError(t, err)

		br, err := NewBinaryReader(bin, opts...)
		require.NoError(t, err)
		got, err := Materialize(br)
		require.NoError(t, err)
		assert.Equal(t, want, got, "binary reader")

		nav, err := NewNavigator(bin, opts...)
		require.NoError(t, err)
		got, err = MaterializeNode(nav, nav.Root())
		require.NoError(t, err)
		assert.Equal(t, want, got, "binary navigator")

		back, err := convertDoc(bin, TextFormat, opts...)
		require.NoError(t, err)
		assert.Equal(t, string(canonical), string(back))
	}

	nav, err := NewNavigator(text)
	require.NoError(t, err)
	got, err := MaterializeNode(nav, nav.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got, "text navigator")

	return want
}

// plainValue reshapes a materialized plain-JSON document the way simplejsonext
// returns one.  Empty containers are nil there.
func plainValue(v any) any {
	switch x := v.(type) {
	case Object:
		var m map[string]any
		for _, p := range x {
			if m == nil {
				m = make(map[string]any, len(x))
			}
			m[p.Name] = plainValue(p.Value)
		}
		return m
	case []any:
		var out []any
		for _, item := range x {
			out = append(out, plainValue(item))
		}
		return out
	case Number64:
		if x.IsInteger() {
			return x.Int64()
		}
		return x.Float64()
	}
	return v
}

func TestSuite_Failing(t *testing.T) {
	t.Parallel()
	files := getTestFiles(t, testSuite, "n", ".json")
	require.NotEmpty(t, files)
	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			t.Parallel()
			text := readSuiteFile(t, f)
			r, err := NewTextReader(text)
			if err == nil {
				_, err = Materialize(r)
			}
			if err == nil {
				t.Fatalf("expected error but got none for '%s'", string(text))
			}
			if _, navErr := NewNavigator(text); navErr == nil {
				// Navigators only check structure up front; scalars fail
				// when they are read.
				nav, _ := NewNavigator(text)
				_, navErr = MaterializeNode(nav, nav.Root())
				assert.Error(t, navErr)
			}
		})
	}
}
