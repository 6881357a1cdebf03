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
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient stores documents in memory.
type fakeClient struct {
	mu        sync.Mutex
	indices   []string
	stored    map[string]map[string][]byte
	batches   [][]BulkItem
	reject    map[string]ItemFailure
	err       error
	createErr error
	listErr   error
	nilAck    bool
}

func newFakeClient(indices ...string) *fakeClient {
	return &fakeClient{indices: indices, stored: map[string]map[string][]byte{}, reject: map[string]ItemFailure{}}
}

func (c *fakeClient) BulkWrite(_ context.Context, index string, items []BulkItem) (*BatchAck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, items)
	if c.err != nil {
		return nil, c.err
	}
	if c.nilAck {
		return nil, nil
	}
	if _, ok := c.stored[index]; !ok {
		c.stored[index] = map[string][]byte{}
	}
	ack := &BatchAck{}
	for _, item := range items {
		if failure, ok := c.reject[item.ID]; ok {
			failure.ID = item.ID
			ack.Failures = append(ack.Failures, failure)
			continue
		}
		if _, ok := c.stored[index][item.ID]; ok {
			ack.Duplicates++
			continue
		}
		c.stored[index][item.ID] = item.Body
		ack.Created++
	}
	return ack, nil
}

func (c *fakeClient) ListIndices(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indices, c.listErr
}

func (c *fakeClient) CreateIndex(_ context.Context, index string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return c.createErr
	}
	c.indices = append(c.indices, index)
	return nil
}

func (c *fakeClient) batchSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sizes []int
	for _, batch := range c.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

func enqueueN(t *testing.T, idx *Index, offset, n int) []*FlushReport {
	t.Helper()
	var reports []*FlushReport
	for i := offset; i < offset+n; i++ {
		report, err := idx.Enqueue(context.Background(), testDocument(t, int64(i), fmt.Sprintf("doc %d", i)))
		require.NoError(t, err)
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports
}

func TestNewIndexInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewIndex("case", newFakeClient(), capacity)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	}
}

func TestIndexFlushThreshold(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		documents int
		wantSizes []int
		wantLen   int
	}{
		{"below", 3, 2, nil, 2},
		{"exactly", 3, 3, []int{3}, 0},
		{"one more", 3, 4, []int{3}, 1},
		{"twice", 2, 5, []int{2, 2}, 1},
		{"capacity one", 1, 3, []int{1, 1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			idx, err := NewIndex("case", client, tt.capacity)
			require.NoError(t, err)

			reports := enqueueN(t, idx, 0, tt.documents)
			assert.Equal(t, tt.wantSizes, client.batchSizes())
			assert.Equal(t, tt.wantLen, idx.Len())
			assert.Len(t, reports, len(tt.wantSizes))
			for _, report := range reports {
				assert.Equal(t, "case", report.Index)
				assert.Equal(t, tt.capacity, report.Created)
			}
			require.NoError(t, idx.Close())
		})
	}
}

func TestIndexCloseFlushes(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 3)
	require.NoError(t, err)

	enqueueN(t, idx, 0, 4)
	require.NoError(t, idx.Close())
	assert.Equal(t, []int{3, 1}, client.batchSizes())
	assert.Len(t, client.stored["case"], 4)

	// closing twice does nothing
	require.NoError(t, idx.Close())
	assert.Equal(t, []int{3, 1}, client.batchSizes())
}

func TestIndexClosed(t *testing.T) {
	idx, err := NewIndex("case", newFakeClient(), 3)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	ctx := context.Background()
	_, err = idx.Enqueue(ctx, testDocument(t, 1, "late"))
	assert.ErrorIs(t, err, ErrIndexClosed)
	_, err = idx.Flush(ctx)
	assert.ErrorIs(t, err, ErrIndexClosed)
	_, err = idx.SetCapacity(ctx, 5)
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestIndexCloseSwallowsFlushError(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 10)
	require.NoError(t, err)
	enqueueN(t, idx, 0, 2)

	client.err = &TransportError{Op: "bulk", Status: 503, Body: "unavailable"}
	assert.NoError(t, idx.Close())
	assert.Equal(t, []int{2}, client.batchSizes())
}

func TestIndexEmptyFlush(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 10)
	require.NoError(t, err)
	defer idx.Close()

	report, err := idx.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &FlushReport{Index: "case"}, report)
	assert.Empty(t, client.batchSizes())
}

func TestIndexFlushErrorNotRequeued(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 2)
	require.NoError(t, err)
	defer idx.Close()

	client.err = &TransportError{Op: "bulk", Status: 500, Body: "boom"}
	_, err = idx.Enqueue(context.Background(), testDocument(t, 1, "one"))
	require.NoError(t, err)
	_, err = idx.Enqueue(context.Background(), testDocument(t, 2, "two"))

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 500, terr.Status)
	assert.Equal(t, 0, idx.Len())

	client.err = nil
	report, err := idx.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Documents)
	assert.Equal(t, []int{2}, client.batchSizes())
}

func TestIndexEmptyBulkResponse(t *testing.T) {
	client := newFakeClient()
	client.nilAck = true
	idx, err := NewIndex("case", client, 2)
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.Enqueue(context.Background(), testDocument(t, 1, "one"))
	require.NoError(t, err)
	var report *FlushReport
	assert.NotPanics(t, func() { report, err = idx.Flush(context.Background()) })
	assert.Nil(t, report)
	var terr *TransportError
	require.True(t, errors.As(err, &terr), "expected *TransportError, got %v", err)
	assert.Equal(t, "bulk", terr.Op)
}

func TestIndexDuplicates(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 2)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	doc := testDocument(t, 1, "same")
	_, err = idx.Enqueue(ctx, doc)
	require.NoError(t, err)
	report, err := idx.Enqueue(ctx, testDocument(t, 1, "same"))
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Duplicates)
	assert.Len(t, client.stored["case"], 1)

	stats := idx.Stats()
	assert.Equal(t, 2, stats.Enqueued)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestIndexPartialFailures(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 3)
	require.NoError(t, err)
	defer idx.Close()

	rejected := testDocument(t, 2, "doc 2")
	id, err := Digest(rejected)
	require.NoError(t, err)
	client.reject[string(id)] = ItemFailure{Status: 400, Type: "mapper_parsing_exception", Reason: "failed to parse"}

	reports := enqueueN(t, idx, 1, 3)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Created)
	require.Len(t, reports[0].Failures, 1)
	assert.Equal(t, string(id), reports[0].Failures[0].ID)

	stats := idx.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, map[string]int{"mapper_parsing_exception": 1}, stats.FailedByType)
}

func TestIndexSetCapacity(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		buffered  int
		capacity  int
		wantFlush bool
	}{
		{"shrink below buffer", 3, 2, true},
		{"shrink to buffer", 3, 3, true},
		{"shrink above buffer", 3, 4, false},
		{"grow", 3, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			idx, err := NewIndex("case", client, 10)
			require.NoError(t, err)
			defer idx.Close()

			enqueueN(t, idx, 0, tt.buffered)
			report, err := idx.SetCapacity(ctx, tt.capacity)
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, idx.Capacity())
			if tt.wantFlush {
				require.NotNil(t, report)
				assert.Equal(t, tt.buffered, report.Documents)
				assert.Equal(t, 0, idx.Len())
			} else {
				assert.Nil(t, report)
				assert.Equal(t, tt.buffered, idx.Len())
			}
		})
	}

	idx, err := NewIndex("case", newFakeClient(), 10)
	require.NoError(t, err)
	defer idx.Close()
	_, err = idx.SetCapacity(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestIndexMetrics(t *testing.T) {
	client := newFakeClient()
	metrics := NewMetrics(prometheus.NewRegistry())
	idx, err := NewIndex("case", client, 2, WithMetrics(metrics))
	require.NoError(t, err)

	rejected := testDocument(t, 3, "doc 3")
	id, err := Digest(rejected)
	require.NoError(t, err)
	client.reject[string(id)] = ItemFailure{Status: 400, Type: "mapper_parsing_exception"}

	enqueueN(t, idx, 0, 4)
	_, err = idx.Enqueue(context.Background(), testDocument(t, 0, "doc 0"))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.DocumentsEnqueued))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DocumentsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ItemFailures.WithLabelValues("mapper_parsing_exception")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Flushes.WithLabelValues("ok")))
}

func TestIndexDocumentsAreStoredCanonical(t *testing.T) {
	client := newFakeClient()
	idx, err := NewIndex("case", client, 1)
	require.NoError(t, err)
	defer idx.Close()

	doc := testDocument(t, 42, "answer", "b", "a")
	_, err = idx.Enqueue(context.Background(), doc)
	require.NoError(t, err)

	cd, err := NewContentDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, cd.Body, client.stored["case"][string(cd.ID)])
}
