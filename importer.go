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

package es4forensics

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/bodyfile"
	"github.com/forensicanalysis/es4forensics/ecs"
	"github.com/forensicanalysis/es4forensics/objects"
)

// ImportOption configures an Importer.
type ImportOption func(*Importer)

// WithValidation checks every document against the document schema before
// it is enqueued.
func WithValidation() ImportOption {
	return func(i *Importer) { i.validate = true }
}

// WithImportMetrics counts skipped records in m.
func WithImportMetrics(m *Metrics) ImportOption {
	return func(i *Importer) { i.metrics = m }
}

// Importer feeds evidence records into an Index. In lenient mode records that
// cannot be converted are logged and skipped, rejected documents are logged
// by the Index. In strict mode both abort the import.
type Importer struct {
	index    *Index
	strict   bool
	validate bool
	metrics  *Metrics
	skipped  int
}

// NewImporter creates an Importer writing to index.
func NewImporter(index *Index, strict bool, opts ...ImportOption) *Importer {
	i := &Importer{index: index, strict: strict}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Skipped returns the number of records dropped in lenient mode.
func (i *Importer) Skipped() int { return i.skipped }

// ImportObject enqueues all documents of obj.
func (i *Importer) ImportObject(ctx context.Context, obj objects.EvidenceObject) error {
	docs, err := objects.Documents(obj)
	if err != nil {
		return err
	}
	return i.enqueue(ctx, docs)
}

// ImportItem enqueues all documents of item.
func (i *Importer) ImportItem(ctx context.Context, item *objects.EvidenceItem) error {
	docs, err := item.Documents()
	if err != nil {
		return err
	}
	return i.enqueue(ctx, docs)
}

// ImportBodyfile reads a bodyfile, loc is the timezone of its timestamps.
func (i *Importer) ImportBodyfile(ctx context.Context, r io.Reader, loc *time.Location) error {
	reader := bodyfile.NewReader(r)
	for {
		line, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		var perr *bodyfile.ParseError
		if errors.As(err, &perr) {
			if err := i.skip(err, "line", perr.Line); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return errors.Wrap(err, "could not read bodyfile")
		}

		file, err := objects.NewPosixFile(line, loc)
		if err != nil {
			if err := i.skip(err, "line", reader.LineNumber()); err != nil {
				return err
			}
			continue
		}
		if err := i.ImportObject(ctx, file); err != nil {
			return err
		}
	}
}

// ImportItems reads evidence items as JSON lines.
func (i *Importer) ImportItems(ctx context.Context, r io.Reader) error {
	decoder := objects.NewDecoder(r)
	for {
		item, err := decoder.Decode()
		if err == io.EOF {
			return nil
		}
		var derr *objects.DecodeError
		if errors.As(err, &derr) {
			if err := i.skip(derr.Err, "line", derr.Line); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return errors.Wrap(err, "could not read evidence items")
		}
		if err := i.ImportItem(ctx, item); err != nil {
			return err
		}
	}
}

// ImportEvtx reads Windows event records, one JSON record per line.
func (i *Importer) ImportEvtx(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		event, err := objects.ParseEvtxRecord(record)
		if err != nil {
			if err := i.skip(err, "line", lineNumber); err != nil {
				return err
			}
			continue
		}
		if err := i.ImportObject(ctx, event); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "could not read event records")
}

// Flush writes the buffered documents.
func (i *Importer) Flush(ctx context.Context) error {
	report, err := i.index.Flush(ctx)
	if err != nil {
		return err
	}
	return i.check(report)
}

func (i *Importer) enqueue(ctx context.Context, docs []ecs.Document) error {
	for _, doc := range docs {
		if i.validate {
			flaws, err := ecs.Validate(doc)
			if err != nil {
				return err
			}
			if len(flaws) > 0 {
				if err := i.skip(errors.New(strings.Join(flaws, "; ")), "timestamp", doc.Timestamp()); err != nil {
					return err
				}
				continue
			}
		}
		report, err := i.index.Enqueue(ctx, doc)
		if err != nil {
			return err
		}
		if err := i.check(report); err != nil {
			return err
		}
	}
	return nil
}

func (i *Importer) check(report *FlushReport) error {
	if i.strict && report != nil && len(report.Failures) > 0 {
		return &PartialBatchError{Index: report.Index, Failures: report.Failures}
	}
	return nil
}

func (i *Importer) skip(err error, args ...interface{}) error {
	if i.strict {
		return err
	}
	i.skipped++
	i.metrics.skipped()
	slog.Warn("skipping record", append(args, "error", err)...)
	return nil
}
