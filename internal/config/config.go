// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package config loads the cosmosjson command's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xdg-go/cosmosjson"
)

// Config is the whole configuration file.  Command-line flags override it.
type Config struct {
	Log     Log     `toml:"log"`
	Convert Convert `toml:"convert"`
	Bench   Bench   `toml:"bench"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Convert configures the convert command.
type Convert struct {
	// To is the output format, "text" or "binary".
	To string `toml:"to"`
	// Dictionary enables a string dictionary for binary output, saved next
	// to each output file.
	Dictionary bool `toml:"dictionary"`
	// PlainStrings writes every binary string inline, without the compact
	// encodings or references.
	PlainStrings bool `toml:"plain_strings"`
	// Compress writes zstd-compressed output.
	Compress bool `toml:"compress"`
	MaxDepth int  `toml:"max_depth"`
	// Parallel limits how many files are converted at once.
	Parallel int    `toml:"parallel"`
	OutDir   string `toml:"out_dir"`
}

// Bench configures the bench command.
type Bench struct {
	Workers    int      `toml:"workers"`
	Iterations int      `toml:"iterations"`
	Scenarios  []string `toml:"scenarios"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Convert: Convert{
			To:       "binary",
			MaxDepth: cosmosjson.DefaultMaxDepth,
			Parallel: runtime.NumCPU(),
		},
		Bench: Bench{
			Workers:    runtime.NumCPU(),
			Iterations: 100,
		},
	}
}

// Load reads path over the defaults.  An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("reading config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks values that can't be caught by decoding.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseFormat(c.Convert.To); err != nil {
		errs = append(errs, err)
	}
	if c.Convert.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("convert.max_depth must not be negative, got %d", c.Convert.MaxDepth))
	}
	if c.Convert.Parallel < 1 {
		errs = append(errs, fmt.Errorf("convert.parallel must be at least 1, got %d", c.Convert.Parallel))
	}
	if c.Bench.Workers < 1 {
		errs = append(errs, fmt.Errorf("bench.workers must be at least 1, got %d", c.Bench.Workers))
	}
	if c.Bench.Iterations < 1 {
		errs = append(errs, fmt.Errorf("bench.iterations must be at least 1, got %d", c.Bench.Iterations))
	}
	return errors.Join(errs...)
}

// ParseFormat parses a wire format name.
func ParseFormat(s string) (cosmosjson.Format, error) {
	switch strings.ToLower(s) {
	case "text", "json":
		return cosmosjson.TextFormat, nil
	case "binary", "bin":
		return cosmosjson.BinaryFormat, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}
