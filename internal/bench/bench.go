// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bench measures cosmosjson read, navigate and convert throughput
// for one document in each wire format.  Runs are spread over an ants worker
// pool; every task owns its readers, writers and navigators.
package bench

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/wandb/simplejsonext"
	"github.com/xdg-go/cosmosjson"
)

// Scenario is one measured operation over a serialized document.
type Scenario struct {
	Name string
	Run  func(buf []byte, opts ...cosmosjson.Option) error
	// TextOnly scenarios only run against the text input.
	TextOnly bool
}

// Scenarios lists the built-in scenarios.
var Scenarios = []Scenario{
	{Name: "read-materialize", Run: readMaterialize},
	{Name: "read-skip", Run: readSkip},
	{Name: "navigate", Run: navigate},
	{Name: "convert-text", Run: convertTo(cosmosjson.TextFormat)},
	{Name: "convert-binary", Run: convertTo(cosmosjson.BinaryFormat)},
	{Name: "reference-parse", Run: referenceParse, TextOnly: true},
}

func readMaterialize(buf []byte, opts ...cosmosjson.Option) error {
	r, err := cosmosjson.NewReader(buf, opts...)
	if err != nil {
		return err
	}
	_, err = cosmosjson.Materialize(r)
	return err
}

// readSkip drains tokens without calling any accessor.
func readSkip(buf []byte, opts ...cosmosjson.Option) error {
	r, err := cosmosjson.NewReader(buf, opts...)
	if err != nil {
		return err
	}
	for {
		ok, err := r.Read()
		if err != nil || !ok {
			return err
		}
	}
}

func navigate(buf []byte, opts ...cosmosjson.Option) error {
	nav, err := cosmosjson.NewNavigator(buf, opts...)
	if err != nil {
		return err
	}
	_, err = cosmosjson.MaterializeNode(nav, nav.Root())
	return err
}

// referenceParse decodes text with simplejsonext as a baseline for
// read-materialize.
func referenceParse(buf []byte, _ ...cosmosjson.Option) error {
	_, err := simplejsonext.Unmarshal(buf)
	return err
}

// convertTo drains a reader into a writer of the given format.  The writer
// gets no dictionary, so tasks never add to a shared one.
func convertTo(format cosmosjson.Format) func([]byte, ...cosmosjson.Option) error {
	return func(buf []byte, opts ...cosmosjson.Option) error {
		r, err := cosmosjson.NewReader(buf, opts...)
		if err != nil {
			return err
		}
		w, err := cosmosjson.NewWriter(format)
		if err != nil {
			return err
		}
		if err := cosmosjson.WriteAll(w, r); err != nil {
			return err
		}
		_, err = w.Result()
		return err
	}
}

// Options controls a benchmark run.
type Options struct {
	Workers    int
	Iterations int
	// Scenarios selects scenarios by name; empty means all.
	Scenarios []string
	// Dictionary encodes the binary input with a string dictionary.
	Dictionary bool
}

// Result is the outcome of one scenario over one format.
type Result struct {
	Scenario   string
	Format     cosmosjson.Format
	Iterations int
	Bytes      int
	Elapsed    time.Duration
}

// Throughput returns processed megabytes per second of worker time.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Bytes*r.Iterations) / r.Elapsed.Seconds() / 1e6
}

func (r Result) String() string {
	return fmt.Sprintf("%-18s %-7s %10.2f MB/s", r.Scenario, r.Format, r.Throughput())
}

// Inputs encodes a text document in both wire formats.
func Inputs(text []byte, dict *cosmosjson.StringDictionary) (map[cosmosjson.Format][]byte, error) {
	r, err := cosmosjson.NewTextReader(text)
	if err != nil {
		return nil, err
	}
	var opts []cosmosjson.Option
	if dict != nil {
		opts = append(opts, cosmosjson.WithDictionary(dict))
	}
	w := cosmosjson.NewBinaryWriter(opts...)
	if err := cosmosjson.Copy(w, r); err != nil {
		return nil, err
	}
	bin, err := w.Result()
	if err != nil {
		return nil, err
	}
	return map[cosmosjson.Format][]byte{
		cosmosjson.TextFormat:   text,
		cosmosjson.BinaryFormat: bin,
	}, nil
}

func selectScenarios(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Scenarios, nil
	}
	byName := make(map[string]Scenario, len(Scenarios))
	for _, s := range Scenarios {
		byName[s.Name] = s
	}
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

// probeTextOnly runs each text-only scenario once.  Plain JSON parsers
// reject typed values, so a failing scenario is dropped unless it was asked
// for by name.
func probeTextOnly(scenarios []Scenario, text []byte, explicit bool) ([]Scenario, error) {
	out := scenarios[:0:0]
	for _, s := range scenarios {
		if s.TextOnly {
			if err := s.Run(text); err != nil {
				if explicit {
					return nil, fmt.Errorf("%s: %w", s.Name, err)
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

type task struct {
	scenario string
	format   cosmosjson.Format
}

// Run measures every selected scenario against text in both formats.
// Results are sorted by scenario, then format.
func Run(text []byte, opts Options) ([]Result, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	scenarios, err := selectScenarios(opts.Scenarios)
	if err != nil {
		return nil, err
	}
	if scenarios, err = probeTextOnly(scenarios, text, len(opts.Scenarios) > 0); err != nil {
		return nil, err
	}

	var dict *cosmosjson.StringDictionary
	if opts.Dictionary {
		dict = cosmosjson.NewStringDictionary(0)
	}
	inputs, err := Inputs(text, dict)
	if err != nil {
		return nil, err
	}
	var readOpts []cosmosjson.Option
	if dict != nil {
		// Tasks only read the dictionary from here on.
		readOpts = append(readOpts, cosmosjson.WithDictionary(dict))
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		errs      []error
		submitErr error
		elapsed   = make(map[task]time.Duration)
	)
submit:
	for _, s := range scenarios {
		for format, buf := range inputs {
			if s.TextOnly && format != cosmosjson.TextFormat {
				continue
			}
			t := task{scenario: s.Name, format: format}
			run := s.Run
			for i := 0; i < opts.Iterations; i++ {
				wg.Add(1)
				submitErr = pool.Submit(func() {
					defer wg.Done()
					start := time.Now()
					err := run(buf, readOpts...)
					d := time.Since(start)

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, fmt.Errorf("%s/%s: %w", t.scenario, t.format, err))
						return
					}
					elapsed[t] += d
				})
				if submitErr != nil {
					wg.Done()
					break submit
				}
			}
		}
	}
	wg.Wait()
	if submitErr != nil {
		return nil, submitErr
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	results := make([]Result, 0, len(elapsed))
	for t, d := range elapsed {
		results = append(results, Result{
			Scenario:   t.scenario,
			Format:     t.format,
			Iterations: opts.Iterations,
			Bytes:      len(inputs[t.format]),
			Elapsed:    d,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Scenario != results[j].Scenario {
			return results[i].Scenario < results[j].Scenario
		}
		return results[i].Format < results[j].Format
	})
	return results, nil
}
