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

	"github.com/pkg/errors"
)

// IndexBuilder prepares the target index before an Index is created.
type IndexBuilder struct {
	name   string
	client IndexClient
}

// NewIndexBuilder returns a builder for the index name.
func NewIndexBuilder(name string, client IndexClient) *IndexBuilder {
	return &IndexBuilder{name: name, client: client}
}

// IndexExists reports whether an index with exactly this name exists.
func (b *IndexBuilder) IndexExists(ctx context.Context) (bool, error) {
	indices, err := b.client.ListIndices(ctx)
	if err != nil {
		return false, errors.Wrap(err, "could not list indices")
	}
	for _, index := range indices {
		if index == b.name {
			return true, nil
		}
	}
	return false, nil
}

// CreateIfMissing creates the index unless it exists. A failing create,
// including one lost to a concurrent writer, is returned to the caller.
func (b *IndexBuilder) CreateIfMissing(ctx context.Context) error {
	exists, err := b.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return errors.Wrapf(b.client.CreateIndex(ctx, b.name), "could not create index %s", b.name)
}

// Build returns an Index writing to the prepared index.
func (b *IndexBuilder) Build(capacity int, opts ...Option) (*Index, error) {
	return NewIndex(b.name, b.client, capacity, opts...)
}
