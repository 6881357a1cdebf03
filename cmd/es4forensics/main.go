// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package es4forensics implements the es4forensics command line tool that
// converts forensic evidence into ECS documents.
//     create    Create the index
//     exists    Check whether the index exists
//     import    Import evidence files into the index
//     export    Write the documents as JSON lines
//
// Usage
//
// Import a bodyfile recorded in Berlin
//     es4forensics import --index case-42 -H es.example.com -W secret --timezone Europe/Berlin bodyfile.txt.gz
// Import evidence items into a local database
//     es4forensics import --sqlite case-42.db --index case-42 --format evidence items.jsonl
// Print the flattened documents of Windows event records
//     evtxdump -o jsonl Security.evtx | es4forensics export --format evtx --flat
//
// All options can be set in a YAML file (--config) or as environment
// variables with the E4F_ prefix, e.g. E4F_PASSWORD.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/forensicanalysis/es4forensics/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Root().ExecuteContext(ctx); err != nil {
		slog.Error("es4forensics failed", "error", err)
		stop()
		os.Exit(1)
	}
}
