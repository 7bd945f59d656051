// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/xdg-go/cosmosjson"
)

const (
	textExt       = ".json"
	binaryExt     = ".cjb"
	compressedExt = ".zst"
	dictionaryExt = ".dict.json"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// readDocument reads a file, decompressing it if it is a zstd frame.
func readDocument(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(buf, zstdMagic) {
		return buf, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(buf, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return out, nil
}

// writeDocument writes buf to path, zstd-compressed if requested.
func writeDocument(path string, buf []byte, compress bool) error {
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		buf = enc.EncodeAll(buf, nil)
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf, 0o644)
}

// outputPath names the converted form of path.
func outputPath(path, outDir string, format cosmosjson.Format, compress bool) string {
	dir, base := filepath.Split(path)
	if outDir != "" {
		dir = outDir
	}
	base = strings.TrimSuffix(base, compressedExt)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ext := textExt
	if format == cosmosjson.BinaryFormat {
		ext = binaryExt
	}
	if compress {
		ext += compressedExt
	}
	return filepath.Join(dir, base+ext)
}

func dictionaryPath(path string) string {
	return path + dictionaryExt
}

// saveDictionary writes the dictionary's strings, in code order, as a text
// array.
func saveDictionary(path string, dict *cosmosjson.StringDictionary) error {
	w := cosmosjson.NewTextWriter()
	if err := w.WriteArrayStart(); err != nil {
		return err
	}
	for i := 0; i < dict.Len(); i++ {
		s, _ := dict.Lookup(i)
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	if err := w.WriteArrayEnd(); err != nil {
		return err
	}
	buf, err := w.Result()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// loadDictionary reads a dictionary saved by saveDictionary.  A missing file
// returns a nil dictionary.
func loadDictionary(path string) (*cosmosjson.StringDictionary, error) {
	buf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	nav, err := cosmosjson.NewTextNavigator(buf)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	dict := cosmosjson.NewStringDictionary(0)
	for item, err := range nav.ArrayItems(nav.Root()) {
		if err != nil {
			return nil, fmt.Errorf("dictionary %s: %w", path, err)
		}
		s, err := nav.StringValue(item)
		if err != nil {
			return nil, fmt.Errorf("dictionary %s: %w", path, err)
		}
		n := dict.Len()
		if _, ok := dict.Add(s); !ok || dict.Len() != n+1 {
			return nil, fmt.Errorf("dictionary %s: duplicate or excess entry %q", path, s)
		}
	}
	return dict, nil
}

// readerOptions returns options for reading the document at path, binding
// its sidecar dictionary if there is one.
func readerOptions(path string, maxDepth int) ([]cosmosjson.Option, error) {
	opts := []cosmosjson.Option{cosmosjson.WithMaxDepth(maxDepth)}
	dict, err := loadDictionary(dictionaryPath(path))
	if err != nil {
		return nil, err
	}
	if dict != nil {
		opts = append(opts, cosmosjson.WithDictionary(dict))
	}
	return opts, nil
}
