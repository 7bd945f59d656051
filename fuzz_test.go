package cosmosjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzTextToBinary checks that any text document the reader accepts survives
// text -> binary -> text -> binary unchanged, and that a navigator over the
// binary form writes the same text as a reader does.
func FuzzTextToBinary(f *testing.F) {
	for _, prefix := range []string{"y", "n", "t"} {
		for _, name := range getTestFiles(f, testSuite, prefix, ".json") {
			f.Add(readSuiteFile(f, name))
		}
	}
	f.Add([]byte(`{"a":[1,-2,3.5,"x",null,true,false],"b":{"c":LL-9}}`))

	f.Fuzz(func(t *testing.T, text []byte) {
		bin, err := convertDoc(text, BinaryFormat)
		if err != nil {
			return
		}
		text2, err := convertDoc(bin, TextFormat)
		require.NoError(t, err)
		bin2, err := convertDoc(text2, BinaryFormat)
		require.NoError(t, err)
		require.Equal(t, bin, bin2)

		nav, err := NewNavigator(bin)
		require.NoError(t, err)
		w := NewTextWriter()
		require.NoError(t, nav.WriteNode(nav.Root(), w))
		out, err := w.Result()
		require.NoError(t, err)
		require.Equal(t, string(text2), string(out))
	})
}

// FuzzBinaryReader feeds arbitrary bytes to the binary reader and navigator.
// Neither may panic, and whatever the reader accepts must re-encode to the
// same bytes.
func FuzzBinaryReader(f *testing.F) {
	f.Add([]byte{0x80, 0xE2, 0x07, 0xD0, 0xD2, 0xC8, 0x7B, 0x82, 0x68, 0x69})
	f.Add([]byte{0x80, 0xE8, 0x00})
	f.Add([]byte{0x80, 0xEA, 0x06, 0x81, 0x61, 0x81, 0x62, 0x81, 0x63})
	f.Add([]byte{0x80, 0xE2, 0x02, 0x01, 0xD4})
	f.Add([]byte{0x80, 0xE2, 0x06, 0x83, 0x61, 0x62, 0x63, 0xC3, 0x03})
	f.Add([]byte{0x80, 0x7B, 0x03, 0x61, 0x10, 0x02})

	f.Fuzz(func(t *testing.T, buf []byte) {
		if DetectFormat(buf) != BinaryFormat {
			return
		}
		if nav, err := NewNavigator(buf); err == nil {
			_, _ = MaterializeNode(nav, nav.Root())
		}
		r, err := NewBinaryReader(buf)
		if err != nil {
			return
		}
		if _, err := Materialize(r); err != nil {
			return
		}
		text, err := convertDoc(buf, TextFormat)
		if err != nil {
			// Valid binary may hold values text can't, such as a non-finite
			// generic number.
			return
		}
		_, err = convertDoc(text, BinaryFormat)
		require.NoError(t, err)
	})
}
