// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xdg-go/cosmosjson"
	"github.com/xdg-go/cosmosjson/internal/bench"
	"go.uber.org/zap"
)

func (a *app) benchCommand() *cobra.Command {
	var (
		workers    int
		iterations int
		scenarios  []string
		dictionary bool
	)
	cmd := &cobra.Command{
		Use:   "bench <file>",
		Short: "Measure read, navigate and convert throughput for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bench.Options{
				Workers:    a.cfg.Bench.Workers,
				Iterations: a.cfg.Bench.Iterations,
				Scenarios:  a.cfg.Bench.Scenarios,
				Dictionary: dictionary,
			}
			flags := cmd.Flags()
			if flags.Changed("workers") {
				opts.Workers = workers
			}
			if flags.Changed("iterations") {
				opts.Iterations = iterations
			}
			if flags.Changed("scenario") {
				opts.Scenarios = scenarios
			}

			buf, err := readDocument(args[0])
			if err != nil {
				return err
			}
			text, err := asText(buf, args[0], a.cfg.Convert.MaxDepth)
			if err != nil {
				return err
			}
			a.log.Info("benchmarking",
				zap.String("input", args[0]),
				zap.Int("workers", opts.Workers),
				zap.Int("iterations", opts.Iterations),
			)
			results, err := bench.Run(text, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range results {
				if _, err := fmt.Fprintln(out, r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&workers, "workers", 0, "worker pool size")
	flags.IntVar(&iterations, "iterations", 0, "runs per scenario and format")
	flags.StringSliceVar(&scenarios, "scenario", nil, "scenarios to run (default: all)")
	flags.BoolVar(&dictionary, "dictionary", false, "encode the binary input with a string dictionary")
	return cmd
}

// asText converts a binary document to text; text is returned unchanged.
func asText(buf []byte, path string, maxDepth int) ([]byte, error) {
	if cosmosjson.DetectFormat(buf) == cosmosjson.TextFormat {
		return buf, nil
	}
	opts, err := readerOptions(path, maxDepth)
	if err != nil {
		return nil, err
	}
	r, err := cosmosjson.NewBinaryReader(buf, opts...)
	if err != nil {
		return nil, err
	}
	w := cosmosjson.NewTextWriter()
	if err := cosmosjson.Copy(w, r); err != nil {
		return nil, err
	}
	return w.Result()
}
