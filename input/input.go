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

// Package input opens the evidence streams given on the command line.
package input

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

// Open returns the content of name from fs. Files ending in .gz or .zst are
// decompressed, "-" reads standard input.
func Open(fs afero.Fs, name string) (io.ReadCloser, error) {
	var f io.ReadCloser
	if name == Stdin {
		f = io.NopCloser(os.Stdin)
	} else {
		file, err := fs.Open(name)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open %s", name)
		}
		f = file
	}
	return decompress(f, name)
}

func decompress(f io.ReadCloser, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "could not decompress %s", name)
		}
		return &stack{ReadCloser: r, under: f}, nil
	case strings.HasSuffix(name, ".zst"):
		d, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "could not decompress %s", name)
		}
		return &stack{ReadCloser: d.IOReadCloser(), under: f}, nil
	}
	return f, nil
}

// stack closes the decompressor and the file below it.
type stack struct {
	io.ReadCloser
	under io.Closer
}

func (s *stack) Close() error {
	err := s.ReadCloser.Close()
	if uerr := s.under.Close(); err == nil {
		err = uerr
	}
	return err
}
