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

// Package es4forensics converts forensic evidence into Elastic Common Schema
// documents and writes them in batches to a document store.
//
// Documents
//
// Every evidence object (a file system entry, a registry key, a Windows event
// and so on) is turned into one document per distinct timestamp it carries:
//     - The document contains @timestamp (epoch milliseconds), ecs.version,
//       an optional message, sorted tags and one object per ECS namespace.
//     - File documents mark which of the modified, accessed, changed and born
//       timestamps equal @timestamp in file.macb_short (e.g. "m.c.").
//     - The id of a document is the SHA-256 of its canonical serialization,
//       so writing the same evidence twice stores it once.
//
// Indexing
//
// An Index buffers documents and sends them with one bulk request when its
// capacity is reached, when Flush is called and when it is closed:
//     idx, err := es4forensics.NewIndexBuilder("case-42", client).Build(1000)
//     ...
//     defer idx.Close()
//     report, err := idx.Enqueue(ctx, doc)
package es4forensics
