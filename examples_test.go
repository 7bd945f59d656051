package cosmosjson_test

import (
	"fmt"
	"log"

	"github.com/xdg-go/cosmosjson"
)

func ExampleNewWriter() {
	w, err := cosmosjson.NewWriter(cosmosjson.BinaryFormat)
	if err != nil {
		log.Fatal(err)
	}
	_ = w.WriteArrayStart()
	_ = w.WriteNull()
	_ = w.WriteBool(true)
	_ = w.WriteNumber(cosmosjson.IntNumber(123))
	_ = w.WriteString("hi")
	_ = w.WriteArrayEnd()

	buf, err := w.Result()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% X\n", buf)
	// Output: 80 E2 07 D0 D2 C8 7B 82 68 69
}

func ExampleNewReader() {
	r, err := cosmosjson.NewReader([]byte(`{"a": 1, "b": [true, "x"]}`))
	if err != nil {
		log.Fatal(err)
	}
	for {
		ok, err := r.Read()
		if err != nil {
			log.Fatal(err)
		}
		if !ok {
			break
		}
		fmt.Println(r.CurrentDepth(), r.TokenType())
	}
	// Output:
	// 1 BeginObject
	// 1 FieldName
	// 1 Number
	// 1 FieldName
	// 2 BeginArray
	// 2 True
	// 2 String
	// 1 EndArray
	// 0 EndObject
}

func ExampleWriteAll() {
	text := []byte(`{"id":"42","n":[1,2.5]}`)

	r, err := cosmosjson.NewTextReader(text)
	if err != nil {
		log.Fatal(err)
	}
	bw := cosmosjson.NewBinaryWriter()
	if err := cosmosjson.WriteAll(bw, r); err != nil {
		log.Fatal(err)
	}
	bin, err := bw.Result()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("binary bytes:", len(bin))

	br, err := cosmosjson.NewBinaryReader(bin)
	if err != nil {
		log.Fatal(err)
	}
	tw := cosmosjson.NewTextWriter()
	if err := cosmosjson.WriteAll(tw, br); err != nil {
		log.Fatal(err)
	}
	out, err := tw.Result()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
	// Output:
	// binary bytes: 21
	// {"id":"42","n":[1,2.5]}
}

func ExampleNavigator() {
	nav, err := cosmosjson.NewNavigator([]byte(`{"name":"widget","tags":["a","b","c"]}`))
	if err != nil {
		log.Fatal(err)
	}
	tags, ok, err := nav.ObjectProperty(nav.Root(), "tags")
	if err != nil || !ok {
		log.Fatal("no tags", err)
	}
	n, err := nav.ArrayLen(tags)
	if err != nil {
		log.Fatal(err)
	}
	second, err := nav.ArrayItem(tags, 1)
	if err != nil {
		log.Fatal(err)
	}
	s, err := nav.StringValue(second)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(n, s)
	// Output: 3 b
}

func ExampleStringDictionary() {
	dict := cosmosjson.NewStringDictionary(0)
	w := cosmosjson.NewBinaryWriter(cosmosjson.WithDictionary(dict))
	_ = w.WriteArrayStart()
	_ = w.WriteString("alpha")
	_ = w.WriteString("alpha")
	_ = w.WriteArrayEnd()
	buf, err := w.Result()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% X\n", buf)
	fmt.Println(dict.Len())
	// Output:
	// 80 E2 02 40 40
	// 1
}
