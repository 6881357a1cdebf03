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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// OpenSearchClient is an IndexClient for OpenSearch and Elasticsearch
// compatible stores.
type OpenSearchClient struct {
	client   *opensearch.Client
	mappings map[string]interface{}
}

// NewOpenSearchClient connects to the store at cfg.Address(). No request is
// sent until the first operation.
func NewOpenSearchClient(cfg Config) (*OpenSearchClient, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{cfg.Address()},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    httpClient.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create opensearch client")
	}
	return &OpenSearchClient{client: client, mappings: DefaultMappings()}, nil
}

// SetMappings replaces the body sent when an index is created.
func (c *OpenSearchClient) SetMappings(mappings map[string]interface{}) {
	c.mappings = mappings
}

// BulkWrite sends one _bulk request with a create action per item.
func (c *OpenSearchClient) BulkWrite(ctx context.Context, index string, items []BulkItem) (*BatchAck, error) {
	var buf bytes.Buffer
	for _, item := range items {
		action := map[string]interface{}{"create": map[string]string{"_index": index, "_id": item.ID}}
		meta, err := json.Marshal(action)
		if err != nil {
			return nil, err
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(item.Body)
		buf.WriteByte('\n')
	}

	start := time.Now()
	res, err := c.client.Bulk(&buf, c.client.Bulk.WithContext(ctx))
	body, err := readResponse("bulk", res, err)
	if err != nil {
		return nil, err
	}
	return parseBulkResponse(body, time.Since(start))
}

func parseBulkResponse(body []byte, took time.Duration) (*BatchAck, error) {
	if !gjson.ValidBytes(body) {
		return nil, &TransportError{Op: "bulk", Status: http.StatusOK, Body: string(body)}
	}
	ack := &BatchAck{Took: took}
	if ms := gjson.GetBytes(body, "took"); ms.Exists() {
		ack.Took = time.Duration(ms.Int()) * time.Millisecond
	}
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		// every item holds exactly one action key
		item.ForEach(func(_, result gjson.Result) bool {
			status := int(result.Get("status").Int())
			switch {
			case status >= 200 && status < 300:
				ack.Created++
			case status == http.StatusConflict:
				ack.Duplicates++
			default:
				ack.Failures = append(ack.Failures, ItemFailure{
					ID:     result.Get("_id").String(),
					Status: status,
					Type:   result.Get("error.type").String(),
					Reason: result.Get("error.reason").String(),
				})
			}
			return false
		})
		return true
	})
	return ack, nil
}

// ListIndices returns the names of all indices.
func (c *OpenSearchClient) ListIndices(ctx context.Context) ([]string, error) {
	cat := c.client.Cat.Indices
	res, err := cat(cat.WithContext(ctx), cat.WithFormat("json"), cat.WithH("index"))
	body, err := readResponse("list indices", res, err)
	if err != nil {
		return nil, err
	}
	var indices []string
	for _, name := range gjson.GetBytes(body, "#.index").Array() {
		indices = append(indices, name.String())
	}
	return indices, nil
}

// CreateIndex creates index with the configured mappings.
func (c *OpenSearchClient) CreateIndex(ctx context.Context, index string) error {
	mappings, err := json.Marshal(c.mappings)
	if err != nil {
		return errors.Wrap(err, "could not serialize mappings")
	}
	create := c.client.Indices.Create
	res, err := create(index, create.WithContext(ctx), create.WithBody(bytes.NewReader(mappings)))
	_, err = readResponse("create index", res, err)
	return err
}

func readResponse(op string, res *opensearchapi.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Status: res.StatusCode, Err: err}
	}
	if res.IsError() {
		return nil, &TransportError{Op: op, Status: res.StatusCode, Body: string(body)}
	}
	return body, nil
}
