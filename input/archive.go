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

package input

import (
	"bufio"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"crawshaw.io/sqlite"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrReadOnly is returned by all modifying operations of an Archive.
var ErrReadOnly = errors.New("archive is read-only")

const entryColumns = `rowid, ltrim(name, '/') AS path, mode, mtime, sz, data IS NULL AS isdir, length(data) AS stored`

// Archive is a read-only afero.Fs over the sqlar table of a SQLite archive,
// as written by "sqlite3 -A" or a forensicstore. Entries are compressed with
// zlib or raw deflate unless their stored size equals their size.
type Archive struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

var _ afero.Fs = (*Archive)(nil)

// OpenArchive opens the SQLite archive at url.
func OpenArchive(url string) (*Archive, error) {
	conn, err := sqlite.OpenConn(url, sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_URI|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open archive %s", url)
	}

	ok, err := hasSqlar(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "could not read archive %s", url)
	}
	if !ok {
		conn.Close()
		return nil, errors.Errorf("%s is not a SQLite archive", url)
	}
	return &Archive{conn: conn}, nil
}

// hasSqlar reports whether conn holds a sqlar table. The statement is reset
// before the caller may close conn.
func hasSqlar(conn *sqlite.Conn) (bool, error) {
	stmt, err := conn.Prepare("SELECT count(*) AS n FROM sqlite_master WHERE type = 'table' AND name = 'sqlar'")
	if err != nil {
		return false, err
	}
	defer stmt.Reset() // nolint:errcheck
	if _, err := stmt.Step(); err != nil {
		return false, err
	}
	return stmt.GetInt64("n") > 0, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn.Close()
}

func (a *Archive) Name() string { return "SQLiteArchive" }

func (a *Archive) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

func (a *Archive) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrReadOnly}
	}
	name = normalize(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lookup(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	if e.dir {
		children, err := a.children(name)
		if err != nil {
			return nil, &os.PathError{Op: "open", Path: name, Err: err}
		}
		return &archiveFile{info: e.info(), children: children}, nil
	}

	blob, err := a.conn.OpenBlob("", "sqlar", "data", e.rowid, false)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	f := &archiveFile{info: e.info(), blob: blob}
	if e.stored == e.size {
		f.reader, f.seekable = blob, true
		return f, nil
	}
	if f.reader, err = inflate(blob); err != nil {
		blob.Close()
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f, nil
}

func (a *Archive) Stat(name string) (os.FileInfo, error) {
	name = normalize(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.lookup(name)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return e.info(), nil
}

func (a *Archive) Create(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "create", Path: name, Err: ErrReadOnly}
}

func (a *Archive) Mkdir(name string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: ErrReadOnly}
}

func (a *Archive) MkdirAll(name string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: ErrReadOnly}
}

func (a *Archive) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: ErrReadOnly}
}

func (a *Archive) RemoveAll(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: ErrReadOnly}
}

func (a *Archive) Rename(oldname, _ string) error {
	return &os.PathError{Op: "rename", Path: oldname, Err: ErrReadOnly}
}

func (a *Archive) Chmod(name string, _ os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: ErrReadOnly}
}

func (a *Archive) Chown(name string, _, _ int) error {
	return &os.PathError{Op: "chown", Path: name, Err: ErrReadOnly}
}

func (a *Archive) Chtimes(name string, _, _ time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: ErrReadOnly}
}

type entry struct {
	rowid  int64
	name   string
	mode   os.FileMode
	mtime  time.Time
	size   int64
	stored int64
	dir    bool
}

func (e *entry) info() *entryInfo {
	mode := e.mode.Perm()
	if e.dir {
		mode |= os.ModeDir
	}
	return &entryInfo{name: path.Base("/" + e.name), size: e.size, mode: mode, mtime: e.mtime, dir: e.dir}
}

func scanEntry(stmt *sqlite.Stmt) *entry {
	return &entry{
		rowid:  stmt.GetInt64("rowid"),
		name:   stmt.GetText("path"),
		mode:   os.FileMode(stmt.GetInt64("mode")),
		mtime:  time.Unix(stmt.GetInt64("mtime"), 0),
		size:   stmt.GetInt64("sz"),
		stored: stmt.GetInt64("stored"),
		dir:    stmt.GetInt64("isdir") == 1,
	}
}

// lookup finds name. Directories without an entry of their own exist if any
// entry lies below them.
func (a *Archive) lookup(name string) (*entry, error) {
	if name == "" {
		return &entry{dir: true, mode: 0755}, nil
	}

	stmt, err := a.conn.Prepare("SELECT " + entryColumns + " FROM sqlar WHERE ltrim(name, '/') = $name")
	if err != nil {
		return nil, err
	}
	stmt.SetText("$name", name)
	hasRow, err := stmt.Step()
	if err != nil {
		stmt.Reset() // nolint:errcheck
		return nil, err
	}
	if hasRow {
		e := scanEntry(stmt)
		return e, stmt.Reset()
	}
	if err := stmt.Reset(); err != nil {
		return nil, err
	}

	below, err := a.below(name)
	if err != nil {
		return nil, err
	}
	if len(below) == 0 {
		return nil, os.ErrNotExist
	}
	return &entry{name: name, dir: true, mode: 0755}, nil
}

// below returns all entries under the directory dir.
func (a *Archive) below(dir string) ([]*entry, error) {
	prefix := ""
	if dir != "" {
		prefix = escapeLike(dir) + "/"
	}
	stmt, err := a.conn.Prepare("SELECT " + entryColumns + ` FROM sqlar WHERE ltrim(name, '/') LIKE $prefix ESCAPE '\' ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer stmt.Reset() // nolint:errcheck
	stmt.SetText("$prefix", prefix+"%")

	var entries []*entry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		e := scanEntry(stmt)
		// LIKE ignores case for ASCII letters
		if dir != "" && !strings.HasPrefix(e.name, dir+"/") {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (a *Archive) children(dir string) ([]os.FileInfo, error) {
	entries, err := a.below(dir)
	if err != nil {
		return nil, err
	}

	byName := map[string]os.FileInfo{}
	for _, e := range entries {
		rel := e.name
		if dir != "" {
			rel = strings.TrimPrefix(e.name, dir+"/")
		}
		if rel == "" {
			continue
		}
		if i := strings.Index(rel, "/"); i >= 0 {
			if _, ok := byName[rel[:i]]; !ok {
				byName[rel[:i]] = &entryInfo{name: rel[:i], mode: os.ModeDir | 0755, dir: true}
			}
			continue
		}
		byName[rel] = e.info()
	}

	children := make([]os.FileInfo, 0, len(byName))
	for _, info := range byName {
		children = append(children, info)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	return children, nil
}

// inflate detects zlib by its header and falls back to raw deflate.
func inflate(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if header[0]&0x0f == 8 && (uint16(header[0])<<8|uint16(header[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func normalize(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(name, "/")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type entryInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	mtime time.Time
	dir   bool
}

func (i *entryInfo) Name() string       { return i.name }
func (i *entryInfo) Size() int64        { return i.size }
func (i *entryInfo) Mode() os.FileMode  { return i.mode }
func (i *entryInfo) ModTime() time.Time { return i.mtime }
func (i *entryInfo) IsDir() bool        { return i.dir }
func (i *entryInfo) Sys() interface{}   { return nil }

// archiveFile is an open archive entry. Only stored entries can seek.
type archiveFile struct {
	info     *entryInfo
	blob     *sqlite.Blob
	reader   io.Reader
	children []os.FileInfo
	offset   int
	seekable bool
}

func (f *archiveFile) Name() string { return f.info.name }

func (f *archiveFile) Read(p []byte) (int, error) {
	if f.info.dir {
		return 0, syscall.EISDIR
	}
	return f.reader.Read(p)
}

func (f *archiveFile) ReadAt(p []byte, off int64) (int, error) {
	if !f.seekable {
		return 0, syscall.ESPIPE
	}
	return f.blob.ReadAt(p, off)
}

func (f *archiveFile) Seek(offset int64, whence int) (int64, error) {
	if !f.seekable {
		return 0, syscall.ESPIPE
	}
	return f.blob.Seek(offset, whence)
}

func (f *archiveFile) Readdir(count int) ([]os.FileInfo, error) {
	if !f.info.dir {
		return nil, syscall.ENOTDIR
	}
	rest := f.children[f.offset:]
	if count <= 0 {
		f.offset = len(f.children)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if count > len(rest) {
		count = len(rest)
	}
	f.offset += count
	return rest[:count], nil
}

func (f *archiveFile) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, err
}

func (f *archiveFile) Stat() (os.FileInfo, error) { return f.info, nil }

func (f *archiveFile) Close() error {
	if f.blob == nil {
		return nil
	}
	if closer, ok := f.reader.(io.Closer); ok && !f.seekable {
		closer.Close() // nolint:errcheck
	}
	return f.blob.Close()
}

func (f *archiveFile) Write([]byte) (int, error)          { return 0, ErrReadOnly }
func (f *archiveFile) WriteAt([]byte, int64) (int, error) { return 0, ErrReadOnly }
func (f *archiveFile) WriteString(string) (int, error)    { return 0, ErrReadOnly }
func (f *archiveFile) Truncate(int64) error               { return ErrReadOnly }
func (f *archiveFile) Sync() error                        { return nil }
