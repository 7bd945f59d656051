// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/xdg-go/cosmosjson"
	"github.com/xdg-go/cosmosjson/bsonconv"
	"github.com/xdg-go/cosmosjson/internal/config"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"go.uber.org/zap"
)

func (a *app) bsonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bson",
		Short: "Convert documents to and from BSON",
	}
	cmd.AddCommand(a.bsonExportCommand(), a.bsonImportCommand())
	return cmd
}

func (a *app) bsonExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Convert a text or binary document to BSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			buf, err := readDocument(path)
			if err != nil {
				return err
			}
			opts, err := readerOptions(path, a.cfg.Convert.MaxDepth)
			if err != nil {
				return err
			}
			doc, err := bsonconv.Marshal(buf, opts...)
			if err != nil {
				return err
			}
			a.log.Info("exported", zap.String("input", path), zap.Int("bsonBytes", len(doc)))
			return a.emit(cmd, out, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func (a *app) bsonImportCommand() *cobra.Command {
	var (
		out string
		to  string
	)
	cmd := &cobra.Command{
		Use:   "import <file.bson>",
		Short: "Convert a BSON document to text or binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := config.ParseFormat(to)
			if err != nil {
				return err
			}
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := bsonconv.Unmarshal(bsoncore.Document(buf), format,
				cosmosjson.WithMaxDepth(a.cfg.Convert.MaxDepth))
			if err != nil {
				return err
			}
			a.log.Info("imported", zap.String("input", args[0]), zap.Stringer("to", format))
			return a.emit(cmd, out, res)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&to, "to", "text", "output format: text or binary")
	return cmd
}

func (a *app) emit(cmd *cobra.Command, path string, buf []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(buf)
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
