// Command cosmosperf compares JSON to BSON conversion throughput of
// cosmosjson against the MongoDB Go driver.  The input file holds one JSON
// object or an array of them.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wandb/simplejsonext"
	"github.com/xdg-go/cosmosjson"
	"github.com/xdg-go/cosmosjson/bsonconv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: cosmosperf <json file>")
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	bin, err := toBinary(text)
	if err != nil {
		log.Fatal(err)
	}
	benchNavigator("cosmosjson text", text)
	benchNavigator("cosmosjson binary", bin)
	benchMongoDriverRW(text)
	benchNaive(text)
}

func toBinary(text []byte) ([]byte, error) {
	r, err := cosmosjson.NewTextReader(text)
	if err != nil {
		return nil, err
	}
	w := cosmosjson.NewBinaryWriter()
	if err := cosmosjson.Copy(w, r); err != nil {
		return nil, err
	}
	return w.Result()
}

// documents returns the root if it is an object, or the items of a root
// array.
func documents(nav cosmosjson.Navigator) ([]cosmosjson.Node, error) {
	root := nav.Root()
	switch nav.NodeType(root) {
	case cosmosjson.ObjectNode:
		return []cosmosjson.Node{root}, nil
	case cosmosjson.ArrayNode:
		var docs []cosmosjson.Node
		for item, err := range nav.ArrayItems(root) {
			if err != nil {
				return nil, err
			}
			docs = append(docs, item)
		}
		return docs, nil
	}
	return nil, errors.New("JSON format unsupported")
}

func benchNavigator(label string, input []byte) {
	out := make([]byte, 0, 256)

	start := time.Now()
	nav, err := cosmosjson.NewNavigator(input)
	if err != nil {
		log.Fatal(err)
	}
	docs, err := documents(nav)
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range docs {
		out, err = bsonconv.AppendDocument(out[:0], nav, d)
		if err != nil {
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult(label, len(input), elapsed)
}

func benchMongoDriverRW(input []byte) {
	vr, err := bsonrw.NewExtJSONValueReader(bytes.NewReader(input), false)
	if err != nil {
		log.Fatal(err)
	}

	copier := bsonrw.NewCopier()
	start := time.Now()
	switch vr.Type() {
	case bsontype.EmbeddedDocument:
		if _, err := copier.CopyDocumentToBytes(vr); err != nil {
			log.Fatal(err)
		}
	case bsontype.Array:
		ar, err := vr.ReadArray()
		if err != nil {
			log.Fatal(err)
		}
		for {
			evr, err := ar.ReadValue()
			if err != nil {
				if errors.Is(err, bsonrw.ErrEOA) {
					break
				}
				log.Fatal(err)
			}
			if evr.Type() != bsontype.EmbeddedDocument {
				log.Fatal("JSON format unsupported by Go driver")
			}
			if _, err := copier.CopyDocumentToBytes(evr); err != nil {
				log.Fatal(err)
			}
		}
	default:
		log.Fatal("JSON format unsupported by Go driver")
	}
	elapsed := time.Since(start)
	reportResult("driver bsonrw", len(input), elapsed)
}

func benchNaive(input []byte) {
	start := time.Now()
	v, err := simplejsonext.Unmarshal(input)
	if err != nil {
		log.Fatal(err)
	}
	docs, ok := v.([]any)
	if !ok {
		docs = []any{v}
	}
	for _, d := range docs {
		if _, err := bson.Marshal(d); err != nil {
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult("naive json->bson", len(input), elapsed)
}

func reportResult(label string, size int, elapsed time.Duration) {
	throughput := float64(size) / float64(elapsed.Microseconds())
	fmt.Printf("%18s %.2f MB/s\n", label, throughput)
}
