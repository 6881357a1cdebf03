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
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
)

var (
	// ErrIndexClosed is returned by all operations after Close.
	ErrIndexClosed = errors.New("index is closed")
	// ErrInvalidCapacity is returned for capacities below one.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
)

// FlushReport describes one batch write.
type FlushReport struct {
	Index      string
	Documents  int
	Created    int
	Duplicates int
	Failures   []ItemFailure
	Took       time.Duration
}

// Stats are the totals of an Index since it was created.
type Stats struct {
	Enqueued   int
	Flushes    int
	Created    int
	Duplicates int
	Failed     int
	// FailedByType counts rejected documents per store error type.
	FailedByType map[string]int
}

// Option configures an Index.
type Option func(*Index)

// WithMetrics records the index activity in m.
func WithMetrics(m *Metrics) Option {
	return func(idx *Index) { idx.metrics = m }
}

type flushJob struct {
	ctx    context.Context
	batch  []ContentDocument
	result chan<- flushResult
}

type flushResult struct {
	report *FlushReport
	err    error
}

// Index buffers documents for one target index and writes them in batches.
// Enqueue, Flush, SetCapacity and Close must be called from one goroutine.
// The batch writes run on a worker owned by the Index, the calling goroutine
// waits for each of them.
type Index struct {
	name     string
	client   IndexClient
	capacity int
	buffer   []ContentDocument
	closed   bool

	metrics  *Metrics
	failures *failureMap
	counters *counterMap

	jobs chan flushJob
	done chan struct{}
}

// NewIndex creates a buffer that flushes every capacity documents.
func NewIndex(name string, client IndexClient, capacity int, opts ...Option) (*Index, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	idx := &Index{
		name:     name,
		client:   client,
		capacity: capacity,
		failures: newFailureMap(),
		counters: newCounterMap(),
		jobs:     make(chan flushJob),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(idx)
	}
	go idx.work()
	return idx, nil
}

// Name returns the target index name.
func (idx *Index) Name() string { return idx.name }

// Len returns the number of buffered documents.
func (idx *Index) Len() int { return len(idx.buffer) }

// Capacity returns the flush threshold.
func (idx *Index) Capacity() int { return idx.capacity }

// Enqueue adds doc to the buffer. When the buffer reaches its capacity it is
// flushed before Enqueue returns, the report of that flush is returned.
func (idx *Index) Enqueue(ctx context.Context, doc ecs.Document) (*FlushReport, error) {
	if idx.closed {
		return nil, ErrIndexClosed
	}
	cd, err := NewContentDocument(doc)
	if err != nil {
		return nil, err
	}
	idx.buffer = append(idx.buffer, cd)
	idx.counters.add("enqueued", 1)
	idx.metrics.enqueued()

	if len(idx.buffer) >= idx.capacity {
		return idx.flush(ctx)
	}
	return nil, nil
}

// Flush writes all buffered documents as one batch. Flushing an empty buffer
// succeeds without a request. If the write fails the documents are dropped
// from the buffer and the error is returned; they are not retried. Rejected
// single documents are listed in the report.
func (idx *Index) Flush(ctx context.Context) (*FlushReport, error) {
	if idx.closed {
		return nil, ErrIndexClosed
	}
	return idx.flush(ctx)
}

// SetCapacity changes the flush threshold. A buffer holding n or more
// documents is flushed first.
func (idx *Index) SetCapacity(ctx context.Context, n int) (*FlushReport, error) {
	if idx.closed {
		return nil, ErrIndexClosed
	}
	if n < 1 {
		return nil, ErrInvalidCapacity
	}
	var report *FlushReport
	var err error
	if len(idx.buffer) >= n {
		report, err = idx.flush(ctx)
	}
	idx.capacity = n
	return report, err
}

// Close flushes the remaining documents and stops the worker. An error of
// that flush is logged and dropped. Close is idempotent and always returns
// nil.
func (idx *Index) Close() error {
	if idx.closed {
		return nil
	}
	if _, err := idx.flush(context.Background()); err != nil {
		slog.Error("flush on close failed", "index", idx.name, "error", err)
	}
	idx.closed = true
	close(idx.jobs)
	<-idx.done
	return nil
}

// Stats returns the totals since the index was created.
func (idx *Index) Stats() Stats {
	failedByType := idx.failures.counts()
	failed := 0
	for _, n := range failedByType {
		failed += n
	}
	return Stats{
		Enqueued:     idx.counters.get("enqueued"),
		Flushes:      idx.counters.get("flushes"),
		Created:      idx.counters.get("created"),
		Duplicates:   idx.counters.get("duplicates"),
		Failed:       failed,
		FailedByType: failedByType,
	}
}

func (idx *Index) flush(ctx context.Context) (*FlushReport, error) {
	if len(idx.buffer) == 0 {
		return &FlushReport{Index: idx.name}, nil
	}
	batch := idx.buffer
	idx.buffer = nil

	result := make(chan flushResult, 1)
	idx.jobs <- flushJob{ctx: ctx, batch: batch, result: result}
	r := <-result
	return r.report, r.err
}

func (idx *Index) work() {
	defer close(idx.done)
	for job := range idx.jobs {
		report, err := idx.write(job.ctx, job.batch)
		job.result <- flushResult{report: report, err: err}
	}
}

func (idx *Index) write(ctx context.Context, batch []ContentDocument) (*FlushReport, error) {
	items := make([]BulkItem, len(batch))
	for i, cd := range batch {
		items[i] = BulkItem{ID: string(cd.ID), Body: cd.Body}
	}

	start := time.Now()
	ack, err := idx.client.BulkWrite(ctx, idx.name, items)
	took := time.Since(start)
	if err == nil && ack == nil {
		err = &TransportError{Op: "bulk", Err: errors.New("empty bulk response")}
	}
	idx.metrics.flushed(len(items), took, ack, err)
	idx.counters.add("flushes", 1)
	if err != nil {
		return nil, errors.Wrapf(err, "could not write %d documents to %s", len(items), idx.name)
	}

	idx.counters.add("created", ack.Created)
	idx.counters.add("duplicates", ack.Duplicates)
	if len(ack.Failures) > 0 {
		idx.failures.addAll(ack.Failures)
		slog.Warn("documents rejected", "index", idx.name, "rejected", len(ack.Failures), "batch", len(items))
	}
	slog.Debug("flushed", "index", idx.name, "documents", len(items), "created", ack.Created,
		"duplicates", ack.Duplicates, "took", took)

	return &FlushReport{
		Index:      idx.name,
		Documents:  len(items),
		Created:    ack.Created,
		Duplicates: ack.Duplicates,
		Failures:   ack.Failures,
		Took:       took,
	}, nil
}
