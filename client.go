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
	"encoding/json"
	"fmt"
	"time"
)

// IndexClient is the document store an Index writes to.
type IndexClient interface {
	// BulkWrite stores all items in one request. Items whose id already
	// exists are counted as duplicates. A returned error means the request
	// as a whole failed.
	BulkWrite(ctx context.Context, index string, items []BulkItem) (*BatchAck, error)
	ListIndices(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, index string) error
}

// BulkItem is one document of a batch.
type BulkItem struct {
	ID   string
	Body json.RawMessage
}

// BatchAck is the answer of the store to a batch.
type BatchAck struct {
	Took       time.Duration
	Created    int
	Duplicates int
	Failures   []ItemFailure
}

// ItemFailure is a document the store rejected.
type ItemFailure struct {
	ID     string
	Status int
	Type   string
	Reason string
}

func (f ItemFailure) String() string {
	return fmt.Sprintf("%s: %d %s: %s", f.ID, f.Status, f.Type, f.Reason)
}

// TransportError is returned when a request to the store fails as a whole.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PartialBatchError reports item failures in strict mode.
type PartialBatchError struct {
	Index    string
	Failures []ItemFailure
}

func (e *PartialBatchError) Error() string {
	msg := fmt.Sprintf("%d documents rejected by %s", len(e.Failures), e.Index)
	if len(e.Failures) > 0 {
		msg += ", first: " + e.Failures[0].String()
	}
	return msg
}
