package cosmosjson

import (
	"fmt"
	"strings"
	"testing"
)

// benchDoc returns a text document holding n records of mixed values.
func benchDoc(n int) []byte {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"id":"rec-%d","seq":%d,"score":%d.5,"active":%t,"tags":["red","green","blue"],"owner":{"name":"user%d","level":L%d}}`,
			i, i, i, i%2 == 0, i%16, i)
	}
	sb.WriteByte(']')
	return []byte(sb.String())
}

func benchBinary(b *testing.B, text []byte, opts ...Option) []byte {
	b.Helper()
	bin, err := convertDoc(text, BinaryFormat, opts...)
	if err != nil {
		b.Fatal(err)
	}
	return bin
}

// drain reads every token, materializing scalars only when asked.
func drain(r Reader, materialize bool) error {
	for {
		ok, err := r.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !materialize {
			continue
		}
		switch r.TokenType() {
		case String, FieldName:
			_, err = r.StringValue()
		case Number:
			_, err = r.NumberValue()
		case Int64:
			_, err = r.Int64Value()
		}
		if err != nil {
			return err
		}
	}
}

func BenchmarkReader(b *testing.B) {
	text := benchDoc(500)
	dict := NewStringDictionary(0)
	buffers := []struct {
		name string
		buf  []byte
		opts []Option
	}{
		{"text", text, nil},
		{"binary", benchBinary(b, text), nil},
		{"binary-dict", benchBinary(b, text, WithDictionary(dict)), []Option{WithDictionary(dict)}},
	}
	for _, c := range buffers {
		for _, materialize := range []bool{false, true} {
			name := c.name + "/skip"
			if materialize {
				name = c.name + "/materialize"
			}
			b.Run(name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(c.buf)))
				for i := 0; i < b.N; i++ {
					r, err := NewReader(c.buf, c.opts...)
					if err != nil {
						b.Fatal(err)
					}
					if err := drain(r, materialize); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkNavigator(b *testing.B) {
	text := benchDoc(500)
	for _, c := range []struct {
		name string
		buf  []byte
	}{
		{"text", text},
		{"binary", benchBinary(b, text)},
	} {
		b.Run(c.name+"/count", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(c.buf)))
			for i := 0; i < b.N; i++ {
				nav, err := NewNavigator(c.buf)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := nav.ArrayLen(nav.Root()); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(c.name+"/lookup", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(c.buf)))
			for i := 0; i < b.N; i++ {
				nav, err := NewNavigator(c.buf)
				if err != nil {
					b.Fatal(err)
				}
				for item, err := range nav.ArrayItems(nav.Root()) {
					if err != nil {
						b.Fatal(err)
					}
					id, ok, err := nav.ObjectProperty(item, "id")
					if err != nil || !ok {
						b.Fatal("missing id", err)
					}
					if _, err := nav.StringValue(id); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

func BenchmarkWriteAll(b *testing.B) {
	text := benchDoc(500)
	bin := benchBinary(b, text)
	for _, c := range []struct {
		name string
		buf  []byte
		to   Format
	}{
		{"text-to-binary", text, BinaryFormat},
		{"binary-to-text", bin, TextFormat},
		{"binary-to-binary", bin, BinaryFormat},
	} {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(c.buf)))
			for i := 0; i < b.N; i++ {
				if _, err := convertDoc(c.buf, c.to); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkMaterialize(b *testing.B) {
	text := benchDoc(500)
	bin := benchBinary(b, text)
	b.ReportAllocs()
	b.SetBytes(int64(len(bin)))
	for i := 0; i < b.N; i++ {
		r, err := NewBinaryReader(bin)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Materialize(r); err != nil {
			b.Fatal(err)
		}
	}
}
