// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xdg-go/cosmosjson"
	"github.com/xdg-go/cosmosjson/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (a *app) convertCommand() *cobra.Command {
	var c config.Convert
	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert documents between text and binary",
		Long: "Convert each file to the target format.  Binary input is read with its " +
			"sidecar dictionary if one exists; zstd-compressed input is detected.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := a.cfg.Convert
			flags := cmd.Flags()
			if flags.Changed("to") {
				merged.To = c.To
			}
			if flags.Changed("dictionary") {
				merged.Dictionary = c.Dictionary
			}
			if flags.Changed("plain-strings") {
				merged.PlainStrings = c.PlainStrings
			}
			if flags.Changed("zstd") {
				merged.Compress = c.Compress
			}
			if flags.Changed("max-depth") {
				merged.MaxDepth = c.MaxDepth
			}
			if flags.Changed("parallel") {
				merged.Parallel = c.Parallel
			}
			if flags.Changed("out-dir") {
				merged.OutDir = c.OutDir
			}
			cfg := a.cfg
			cfg.Convert = merged
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.convertFiles(cmd, args, merged)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&c.To, "to", "binary", "output format: text or binary")
	flags.BoolVar(&c.Dictionary, "dictionary", false, "write binary output with a string dictionary sidecar")
	flags.BoolVar(&c.PlainStrings, "plain-strings", false, "write binary strings inline without compact encodings")
	flags.BoolVar(&c.Compress, "zstd", false, "compress output with zstd")
	flags.IntVar(&c.MaxDepth, "max-depth", cosmosjson.DefaultMaxDepth, "maximum nesting depth")
	flags.IntVar(&c.Parallel, "parallel", 1, "files to convert at once")
	flags.StringVar(&c.OutDir, "out-dir", "", "output directory (default: next to each input)")
	return cmd
}

func (a *app) convertFiles(cmd *cobra.Command, paths []string, c config.Convert) error {
	format, err := config.ParseFormat(c.To)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(c.Parallel)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.convertFile(path, format, c)
		})
	}
	return g.Wait()
}

func (a *app) convertFile(path string, format cosmosjson.Format, c config.Convert) error {
	in, err := readDocument(path)
	if err != nil {
		return err
	}
	readOpts, err := readerOptions(path, c.MaxDepth)
	if err != nil {
		return err
	}
	r, err := cosmosjson.NewReader(in, readOpts...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	writeOpts := []cosmosjson.Option{
		cosmosjson.WithMaxDepth(c.MaxDepth),
		cosmosjson.WithStringEncoding(!c.PlainStrings),
	}
	var dict *cosmosjson.StringDictionary
	if c.Dictionary && format == cosmosjson.BinaryFormat {
		dict = cosmosjson.NewStringDictionary(0)
		writeOpts = append(writeOpts, cosmosjson.WithDictionary(dict))
	}
	w, err := cosmosjson.NewWriter(format, writeOpts...)
	if err != nil {
		return err
	}
	if err := cosmosjson.WriteAll(w, r); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out, err := w.Result()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	outPath := outputPath(path, c.OutDir, format, c.Compress)
	if filepath.Clean(outPath) == filepath.Clean(path) {
		return fmt.Errorf("%s: output would overwrite input", path)
	}
	if err := writeDocument(outPath, out, c.Compress); err != nil {
		return err
	}
	if dict != nil {
		if err := saveDictionary(dictionaryPath(outPath), dict); err != nil {
			return err
		}
	}
	a.log.Info("converted",
		zap.String("input", path),
		zap.String("output", outPath),
		zap.Stringer("from", r.Format()),
		zap.Stringer("to", format),
		zap.Int("inBytes", len(in)),
		zap.Int("outBytes", len(out)),
	)
	return nil
}
