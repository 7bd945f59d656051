// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xdg-go/cosmosjson"
)

func (a *app) dumpCommand() *cobra.Command {
	var skipValues bool
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the token stream of a document",
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
			r, err := cosmosjson.NewReader(buf, opts...)
			if err != nil {
				return err
			}
			return dumpTokens(cmd.OutOrStdout(), r, !skipValues)
		},
	}
	cmd.Flags().BoolVar(&skipValues, "skip-values", false, "print token types only")
	return cmd
}

// dumpTokens prints one line per token, indented by depth.
func dumpTokens(out io.Writer, r cosmosjson.Reader, values bool) error {
	for {
		ok, err := r.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		tt := r.TokenType()
		depth := r.CurrentDepth()
		if tt == cosmosjson.BeginArray || tt == cosmosjson.BeginObject {
			depth--
		}
		line := tt.String()
		if values && tt != cosmosjson.BeginArray && tt != cosmosjson.BeginObject &&
			tt != cosmosjson.EndArray && tt != cosmosjson.EndObject {
			v, err := tokenText(r)
			if err != nil {
				return err
			}
			line += " " + v
		}
		if _, err := fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), line); err != nil {
			return err
		}
	}
}

// tokenText renders the current scalar or field name.
func tokenText(r cosmosjson.Reader) (string, error) {
	switch r.TokenType() {
	case cosmosjson.FieldName, cosmosjson.String:
		s, err := r.StringValue()
		return strconv.Quote(s), err
	case cosmosjson.Null:
		return "null", nil
	case cosmosjson.True:
		return "true", nil
	case cosmosjson.False:
		return "false", nil
	case cosmosjson.Number:
		n, err := r.NumberValue()
		return n.String(), err
	case cosmosjson.Int8:
		v, err := r.Int8Value()
		return strconv.FormatInt(int64(v), 10), err
	case cosmosjson.Int16:
		v, err := r.Int16Value()
		return strconv.FormatInt(int64(v), 10), err
	case cosmosjson.Int32:
		v, err := r.Int32Value()
		return strconv.FormatInt(int64(v), 10), err
	case cosmosjson.Int64:
		v, err := r.Int64Value()
		return strconv.FormatInt(v, 10), err
	case cosmosjson.UInt32:
		v, err := r.UInt32Value()
		return strconv.FormatUint(uint64(v), 10), err
	case cosmosjson.Float32:
		v, err := r.Float32Value()
		return strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case cosmosjson.Float64:
		v, err := r.Float64Value()
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case cosmosjson.Guid:
		g, err := r.GuidValue()
		return g.String(), err
	case cosmosjson.Binary:
		b, err := r.BinaryValue()
		return base64.StdEncoding.EncodeToString(b), err
	}
	return "", nil
}
