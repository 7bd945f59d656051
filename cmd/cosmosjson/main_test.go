// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdg-go/cosmosjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const sampleDoc = `{"id":"a1","tags":["x","y"],"n":3}`

// run executes the command line and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{log: zap.NewNop()}
	cmd := a.rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func TestOutputPath(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path     string
		outDir   string
		format   cosmosjson.Format
		compress bool
		want     string
	}{
		{"data/a.json", "", cosmosjson.BinaryFormat, false, "data/a.cjb"},
		{"data/a.cjb", "", cosmosjson.TextFormat, false, "data/a.json"},
		{"data/a.cjb.zst", "out", cosmosjson.TextFormat, false, "out/a.json"},
		{"a.json", "", cosmosjson.BinaryFormat, true, "a.cjb.zst"},
		{"a", "", cosmosjson.TextFormat, true, "a.json.zst"},
	}
	for _, c := range cases {
		got := outputPath(c.path, c.outDir, c.format, c.compress)
		assert.Equal(t, filepath.FromSlash(c.want), got, c.path)
	}
	assert.Equal(t, "x.cjb.dict.json", dictionaryPath("x.cjb"))
}

func TestDocumentFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.json")
	require.NoError(t, writeDocument(plain, []byte(sampleDoc), false))
	got, err := readDocument(plain)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(got))

	packed := filepath.Join(dir, "packed.json.zst")
	require.NoError(t, writeDocument(packed, []byte(sampleDoc), true))
	raw, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, zstdMagic))
	got, err = readDocument(packed)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(got))

	bad := writeFile(t, dir, "bad.zst", append(append([]byte(nil), zstdMagic...), 0xFF, 0xFF))
	_, err = readDocument(bad)
	assert.Error(t, err)
}

func TestDictionaryFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	dict := cosmosjson.NewStringDictionary(0)
	for _, s := range []string{"alpha", "beta", "gamma"} {
		_, ok := dict.Add(s)
		require.True(t, ok)
	}
	path := filepath.Join(dir, "d.dict.json")
	require.NoError(t, saveDictionary(path, dict))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `["alpha","beta","gamma"]`, string(raw))

	loaded, err := loadDictionary(path)
	require.NoError(t, err)
	require.Equal(t, dict.Len(), loaded.Len())
	for i := 0; i < dict.Len(); i++ {
		want, _ := dict.Lookup(i)
		got, ok := loaded.Lookup(i)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	missing, err := loadDictionary(filepath.Join(dir, "missing.dict.json"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = loadDictionary(writeFile(t, dir, "dup.dict.json", []byte(`["a","a"]`)))
	assert.ErrorContains(t, err, "duplicate or excess entry")

	_, err = loadDictionary(writeFile(t, dir, "num.dict.json", []byte(`["a",1]`)))
	assert.Error(t, err)
}

func TestDumpTokens(t *testing.T) {
	t.Parallel()
	r, err := cosmosjson.NewReader([]byte(`{"a":[1,"x",LL-2]}`))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, dumpTokens(&out, r, true))
	assert.Equal(t, `BeginObject
  FieldName "a"
  BeginArray
    Number 1
    String "x"
    Int64 -2
  EndArray
EndObject
`, out.String())

	r, err = cosmosjson.NewReader([]byte(`[true]`))
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, dumpTokens(&out, r, false))
	assert.Equal(t, "BeginArray\n  True\nEndArray\n", out.String())
}

func TestConvertCommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.json", []byte(sampleDoc))

	binDir := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(binDir, 0o755))
	_, err := run(t, "convert", "--dictionary", "--zstd", "--out-dir", binDir, src)
	require.NoError(t, err)
	binPath := filepath.Join(binDir, "doc.cjb.zst")
	assert.FileExists(t, binPath)
	assert.FileExists(t, dictionaryPath(binPath))

	bin, err := readDocument(binPath)
	require.NoError(t, err)
	assert.Equal(t, cosmosjson.BinaryFormat, cosmosjson.DetectFormat(bin))

	textDir := filepath.Join(dir, "text")
	require.NoError(t, os.Mkdir(textDir, 0o755))
	_, err = run(t, "convert", "--to", "text", "--out-dir", textDir, binPath)
	require.NoError(t, err)
	back, err := os.ReadFile(filepath.Join(textDir, "doc.json"))
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(back))

	out, err := run(t, "dump", "--skip-values", binPath)
	require.NoError(t, err)
	assert.Contains(t, out, "  BeginArray\n")

	_, err = run(t, "convert", "--to", "text", src)
	assert.ErrorContains(t, err, "overwrite input")

	_, err = run(t, "convert", "--to", "yaml", src)
	assert.ErrorContains(t, err, `unknown format "yaml"`)
}

func TestConvertPlainStrings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.json", []byte(`["abcdef","abcdef"]`))

	sizes := map[string]int{}
	for _, mode := range []string{"encoded", "plain"} {
		outDir := filepath.Join(dir, mode)
		require.NoError(t, os.Mkdir(outDir, 0o755))
		args := []string{"convert", "--out-dir", outDir, src}
		if mode == "plain" {
			args = append(args, "--plain-strings")
		}
		_, err := run(t, args...)
		require.NoError(t, err)
		bin, err := os.ReadFile(filepath.Join(outDir, "doc.cjb"))
		require.NoError(t, err)
		sizes[mode] = len(bin)

		r, err := cosmosjson.NewBinaryReader(bin)
		require.NoError(t, err)
		v, err := cosmosjson.Materialize(r)
		require.NoError(t, err)
		assert.Equal(t, []any{"abcdef", "abcdef"}, v)
	}
	assert.Equal(t, 12, sizes["encoded"], "second string is a reference")
	assert.Equal(t, 17, sizes["plain"])
}

func TestBSONCommands(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.json", []byte(sampleDoc))

	want, err := bson.Marshal(bson.D{
		{Key: "id", Value: "a1"},
		{Key: "tags", Value: bson.A{"x", "y"}},
		{Key: "n", Value: int32(3)},
	})
	require.NoError(t, err)

	out, err := run(t, "bson", "export", src)
	require.NoError(t, err)
	assert.Equal(t, string(want), out)

	bsonPath := writeFile(t, dir, "doc.bson", want)
	out, err = run(t, "bson", "import", bsonPath)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a1","tags":["x","y"],"n":L3}`, out)

	binPath := filepath.Join(dir, "doc.cjb")
	_, err = run(t, "bson", "import", "--to", "binary", "-o", binPath, bsonPath)
	require.NoError(t, err)
	out, err = run(t, "bson", "export", binPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}
