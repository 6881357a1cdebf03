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

package ecs

import (
	"context"
	_ "embed" // document schema
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
)

//go:embed schema/document.json
var documentSchema []byte

var schema = func() *jsonschema.Schema {
	s := &jsonschema.Schema{}
	if err := json.Unmarshal(documentSchema, s); err != nil {
		panic(err)
	}
	return s
}()

// Validate checks a document against the document schema and returns the
// flaws found.
func Validate(doc Document) (flaws []string, err error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal document")
	}
	return ValidateBytes(b)
}

// ValidateBytes is Validate for a serialized document.
func ValidateBytes(b []byte) (flaws []string, err error) {
	errs, err := schema.ValidateBytes(context.Background(), b)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate document: %s", verr))
	}
	return flaws, nil
}
