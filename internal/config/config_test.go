// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdg-go/cosmosjson"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cosmosjson.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cosmosjson.DefaultMaxDepth, cfg.Convert.MaxDepth)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[log]
level = "debug"
development = true

[convert]
to = "text"
dictionary = true
plain_strings = true
compress = true
max_depth = 64
parallel = 2
out_dir = "out"

[bench]
workers = 3
scenarios = ["navigate", "read-skip"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Log{Level: "debug", Development: true}, cfg.Log)
	assert.Equal(t, Convert{
		To:           "text",
		Dictionary:   true,
		PlainStrings: true,
		Compress:     true,
		MaxDepth:     64,
		Parallel:     2,
		OutDir:       "out",
	}, cfg.Convert)
	assert.Equal(t, 3, cfg.Bench.Workers)
	assert.Equal(t, Default().Bench.Iterations, cfg.Bench.Iterations, "unset keys keep defaults")
	assert.Equal(t, []string{"navigate", "read-skip"}, cfg.Bench.Scenarios)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		label  string
		body   string
		errStr string
	}{
		{"unknown key", "[convert]\nzip = true\n", `unknown key "convert.zip"`},
		{"bad syntax", "[convert\n", "reading config"},
		{"wrong type", "[convert]\nparallel = \"many\"\n", "reading config"},
		{"bad format", "[convert]\nto = \"yaml\"\n", `unknown format "yaml"`},
		{"bad parallel", "[convert]\nparallel = 0\n", "convert.parallel must be at least 1"},
		{"negative depth", "[convert]\nmax_depth = -1\n", "convert.max_depth must not be negative"},
		{"bad workers", "[bench]\nworkers = 0\n", "bench.workers must be at least 1"},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, c.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.errStr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Convert.To = "xml"
	cfg.Bench.Iterations = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
	assert.Contains(t, err.Error(), "bench.iterations must be at least 1")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]cosmosjson.Format{
		"text":   cosmosjson.TextFormat,
		"JSON":   cosmosjson.TextFormat,
		"binary": cosmosjson.BinaryFormat,
		"bin":    cosmosjson.BinaryFormat,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("")
	assert.Error(t, err)
}
