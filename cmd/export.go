/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cmd

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/es4forensics"
	"github.com/forensicanalysis/es4forensics/ecs"
)

// Export is the es4forensics export subcommand. It writes the documents of
// the evidence files as JSON lines instead of sending them to an index.
func Export() *cobra.Command {
	var format string
	var flat, withID bool
	exportCmd := &cobra.Command{
		Use:   "export [<file>...]",
		Short: "Convert evidence files to ECS documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Index == "" {
				cfg.Index = "export"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := commandContext(cmd)

			client := newWriterClient(cmd.OutOrStdout(), flat, withID)
			idx, err := es4forensics.NewIndex(cfg.Index, client, cfg.BulkSize)
			if err != nil {
				return err
			}
			defer idx.Close()

			importer := es4forensics.NewImporter(idx, cfg.Strict, importOptions(cfg, nil)...)
			if err := importFiles(ctx, cmd, importer, format, cfg, args); err != nil {
				return err
			}
			return importer.Flush(ctx)
		},
	}
	addImportFlags(exportCmd.Flags(), &format)
	exportCmd.Flags().BoolVar(&flat, "flat", false, "write dotted field names, e.g. file.path")
	exportCmd.Flags().BoolVar(&withID, "with-id", false, "add the document id as _id")
	return exportCmd
}

// writerClient is an index client that writes every new document to w.
type writerClient struct {
	w      io.Writer
	flat   bool
	withID bool
	seen   map[string]bool
}

func newWriterClient(w io.Writer, flat, withID bool) *writerClient {
	return &writerClient{w: w, flat: flat, withID: withID, seen: map[string]bool{}}
}

func (c *writerClient) BulkWrite(_ context.Context, _ string, items []es4forensics.BulkItem) (*es4forensics.BatchAck, error) {
	start := time.Now()
	ack := &es4forensics.BatchAck{}
	for _, item := range items {
		if c.seen[item.ID] {
			ack.Duplicates++
			continue
		}
		line, err := c.line(item)
		if err != nil {
			ack.Failures = append(ack.Failures, es4forensics.ItemFailure{
				ID: item.ID, Status: 400, Type: "serialization_exception", Reason: err.Error(),
			})
			continue
		}
		if _, err := c.w.Write(append(line, '\n')); err != nil {
			return nil, &es4forensics.TransportError{Op: "export", Err: err}
		}
		c.seen[item.ID] = true
		ack.Created++
	}
	ack.Took = time.Since(start)
	return ack, nil
}

func (c *writerClient) line(item es4forensics.BulkItem) ([]byte, error) {
	if !c.flat && !c.withID {
		return item.Body, nil
	}
	doc, err := ecs.ParseDocument(item.Body)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{} = doc
	if c.flat {
		if out, err = doc.Flatten(); err != nil {
			return nil, err
		}
	}
	if c.withID {
		out["_id"] = item.ID
	}
	return json.Marshal(out)
}

func (c *writerClient) ListIndices(context.Context) ([]string, error) { return nil, nil }

func (c *writerClient) CreateIndex(context.Context, string) error { return nil }
