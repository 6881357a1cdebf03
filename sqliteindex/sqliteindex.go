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

// Package sqliteindex stores documents in a local SQLite database. It serves
// as an index client for offline processing, when no search cluster is
// available.
//
// Every index is a table of its own, keyed by the document id:
//     CREATE TABLE "documents_<index>" (id TEXT PRIMARY KEY, document TEXT NOT NULL, insert_time TEXT NOT NULL)
// The table "indices" lists all indices.
package sqliteindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/es4forensics"
)

const applicationID = 1702048870
const databaseVersion = 1

var (
	// ErrInvalidIndexName is returned for names that cannot be used as an index.
	ErrInvalidIndexName = errors.New("invalid index name")
	// ErrIndexExists is returned when an index is created twice.
	ErrIndexExists = errors.New("index already exists")
)

var indexName = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,200}$`)

// Client is an es4forensics.IndexClient writing to a SQLite database.
type Client struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens the database at path and creates it if it does not exist.
func Open(path string) (*Client, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, err
		}
	}

	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	c := &Client{conn: conn}
	if err := c.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) setup() error {
	id, err := pragma(c.conn, "application_id")
	if err != nil {
		return err
	}
	version, err := pragma(c.conn, "user_version")
	if err != nil {
		return err
	}

	if id == 0 && version == 0 {
		if err := setPragma(c.conn, "application_id", applicationID); err != nil {
			return err
		}
		if err := setPragma(c.conn, "user_version", databaseVersion); err != nil {
			return err
		}
		return c.exec("CREATE TABLE IF NOT EXISTS indices (name TEXT PRIMARY KEY, created TEXT NOT NULL)")
	}

	if id != applicationID {
		return fmt.Errorf("wrong file format (application_id is %d, requires %d)", id, applicationID)
	}
	if version != databaseVersion {
		return fmt.Errorf("wrong file format (user_version is %d, requires %d)", version, databaseVersion)
	}
	return nil
}

// Close closes the database. Further calls do nothing.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// BulkWrite inserts all items in one transaction. Items with an id that is
// already stored are counted as duplicates, items without a JSON object body
// are rejected. The index is created if it does not exist.
func (c *Client) BulkWrite(ctx context.Context, index string, items []es4forensics.BulkItem) (*es4forensics.BatchAck, error) {
	if !indexName.MatchString(index) {
		return nil, errors.Wrap(ErrInvalidIndexName, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.conn.SetInterrupt(c.conn.SetInterrupt(ctx.Done()))

	start := time.Now()
	ack := &es4forensics.BatchAck{}
	err := c.transaction(func() error {
		if err := c.createTable(index, true); err != nil {
			return err
		}

		stmt, err := c.conn.Prepare(fmt.Sprintf(`INSERT OR IGNORE INTO "documents_%s" (id, document, insert_time) VALUES ($id, $document, $time)`, index)) // #nosec
		if err != nil {
			return err
		}
		defer stmt.Reset() // nolint:errcheck

		now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		for _, item := range items {
			if !gjson.ValidBytes(item.Body) || !gjson.ParseBytes(item.Body).IsObject() {
				ack.Failures = append(ack.Failures, es4forensics.ItemFailure{
					ID:     item.ID,
					Status: 400,
					Type:   "mapper_parsing_exception",
					Reason: "document is not a JSON object",
				})
				continue
			}

			if err := stmt.Reset(); err != nil {
				return err
			}
			stmt.SetText("$id", item.ID)
			stmt.SetText("$document", string(item.Body))
			stmt.SetText("$time", now)
			if _, err := stmt.Step(); err != nil {
				return err
			}
			if c.conn.Changes() == 0 {
				ack.Duplicates++
			} else {
				ack.Created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, &es4forensics.TransportError{Op: "bulk", Err: err}
	}
	ack.Took = time.Since(start)
	return ack, nil
}

// ListIndices returns the names of all indices.
func (c *Client) ListIndices(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.conn.SetInterrupt(c.conn.SetInterrupt(ctx.Done()))

	stmt, err := c.conn.Prepare("SELECT name FROM indices ORDER BY name")
	if err != nil {
		return nil, &es4forensics.TransportError{Op: "list indices", Err: err}
	}
	var names []string
	for {
		if hasRow, err := stmt.Step(); err != nil {
			return nil, &es4forensics.TransportError{Op: "list indices", Err: err}
		} else if !hasRow {
			break
		}
		names = append(names, stmt.GetText("name"))
	}
	return names, stmt.Reset()
}

// CreateIndex creates an empty index. Creating an existing index fails with
// ErrIndexExists.
func (c *Client) CreateIndex(ctx context.Context, index string) error {
	if !indexName.MatchString(index) {
		return errors.Wrap(ErrInvalidIndexName, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.conn.SetInterrupt(c.conn.SetInterrupt(ctx.Done()))

	return c.transaction(func() error {
		return c.createTable(index, false)
	})
}

// Get returns the stored body of a document.
func (c *Client) Get(index, id string) ([]byte, error) {
	if !indexName.MatchString(index) {
		return nil, errors.Wrap(ErrInvalidIndexName, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stmt, err := c.conn.Prepare(fmt.Sprintf(`SELECT document FROM "documents_%s" WHERE id = $id`, index)) // #nosec
	if err != nil {
		return nil, err
	}
	defer stmt.Reset() // nolint:errcheck
	stmt.SetText("$id", id)
	hasRow, err := stmt.Step()
	if err != nil {
		return nil, err
	}
	if !hasRow {
		return nil, errors.Errorf("document %s not found in %s", id, index)
	}
	return []byte(stmt.GetText("document")), nil
}

// Count returns the number of documents in index.
func (c *Client) Count(index string) (int64, error) {
	if !indexName.MatchString(index) {
		return 0, errors.Wrap(ErrInvalidIndexName, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stmt, err := c.conn.Prepare(fmt.Sprintf(`SELECT COUNT(*) AS count FROM "documents_%s"`, index)) // #nosec
	if err != nil {
		return 0, err
	}
	defer stmt.Reset() // nolint:errcheck
	if _, err := stmt.Step(); err != nil {
		return 0, err
	}
	return stmt.GetInt64("count"), nil
}

func (c *Client) createTable(index string, ifMissing bool) error {
	stmt, err := c.conn.Prepare("INSERT OR IGNORE INTO indices (name, created) VALUES ($name, $created)")
	if err != nil {
		return err
	}
	defer stmt.Reset() // nolint:errcheck
	stmt.SetText("$name", index)
	stmt.SetText("$created", time.Now().UTC().Format(time.RFC3339))
	if _, err := stmt.Step(); err != nil {
		return err
	}
	if c.conn.Changes() == 0 {
		if ifMissing {
			return nil
		}
		return errors.Wrap(ErrIndexExists, index)
	}

	return c.exec(fmt.Sprintf(
		`CREATE TABLE "documents_%s" (id TEXT PRIMARY KEY, document TEXT NOT NULL, insert_time TEXT NOT NULL)`, index,
	))
}

func (c *Client) transaction(fn func() error) (err error) {
	if err := c.exec("BEGIN"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = c.exec("ROLLBACK")
			return
		}
		err = c.exec("COMMIT")
	}()
	return fn()
}

func (c *Client) exec(query string) error {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Step()
	if err != nil {
		return err
	}

	return stmt.Finalize()
}

func pragma(conn *sqlite.Conn, name string) (int64, error) {
	stmt, err := conn.Prepare("PRAGMA " + name)
	if err != nil {
		return 0, err
	}
	_, err = stmt.Step()
	if err != nil {
		return 0, err
	}
	i := stmt.GetInt64(name)
	return i, stmt.Finalize()
}

func setPragma(conn *sqlite.Conn, name string, i int64) error {
	stmt, err := conn.Prepare("PRAGMA " + name + " = " + fmt.Sprint(i))
	if err != nil {
		return err
	}
	_, err = stmt.Step()
	if err != nil {
		return err
	}
	return stmt.Finalize()
}
