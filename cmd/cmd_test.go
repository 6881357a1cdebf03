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

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crawshaw.io/sqlite"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/es4forensics/sqliteindex"
)

const bodyfile = `0|/etc/passwd|1234|r/rrw-r--r--|0|0|1024|1577092600|1577092511|1577092512|1577092600
0|/etc/hosts|1235|r/rrw-r--r--|0|0|158|1577092511|1577092511|1577092511|0
`

func stdout(f func()) []byte {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r) // nolint
		outC <- buf.Bytes()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-outC
}

func setup(t *testing.T) string {
	t.Helper()
	old := appFS
	appFS = afero.NewMemMapFs()
	t.Cleanup(func() { appFS = old })

	require.NoError(t, afero.WriteFile(appFS, "/evidence/host1.txt", []byte(bodyfile), 0644))
	require.NoError(t, afero.WriteFile(appFS, "/evidence/host2.txt", []byte(bodyfile), 0644))
	require.NoError(t, afero.WriteFile(appFS, "/evidence/broken.txt", []byte("not a bodyfile\n"+bodyfile), 0644))
	return filepath.Join(t.TempDir(), "case.db")
}

func run(args ...string) ([]byte, error) {
	var err error
	output := stdout(func() {
		root := Root()
		root.SetArgs(args)
		err = root.ExecuteContext(context.Background())
	})
	return output, err
}

func lines(t *testing.T, output []byte) []map[string]interface{} {
	t.Helper()
	var docs []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		doc := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		docs = append(docs, doc)
	}
	return docs
}

func Test_exportCommand(t *testing.T) {
	setup(t)

	output, err := run("export", "/evidence/host1.txt")
	require.NoError(t, err)
	docs := lines(t, output)
	require.Len(t, docs, 4)
	for _, doc := range docs {
		assert.Equal(t, map[string]interface{}{"version": "8.4"}, doc["ecs"])
		assert.Contains(t, doc, "file")
	}

	// the same evidence twice is written once
	output, err = run("export", "/evidence/host*.txt")
	require.NoError(t, err)
	assert.Len(t, lines(t, output), 4)
}

func Test_exportCommandFlat(t *testing.T) {
	setup(t)

	output, err := run("export", "--flat", "--with-id", "/evidence/host1.txt")
	require.NoError(t, err)
	docs := lines(t, output)
	require.Len(t, docs, 4)
	for _, doc := range docs {
		assert.Contains(t, doc, "file.path")
		assert.Contains(t, doc, "ecs.version")
		assert.Len(t, doc["_id"], 64)
	}
}

func Test_exportCommandStrict(t *testing.T) {
	setup(t)

	_, err := run("export", "/evidence/broken.txt")
	assert.NoError(t, err)

	_, err = run("export", "--strict", "/evidence/broken.txt")
	assert.Error(t, err)

	_, err = run("export", "--format", "csv", "/evidence/host1.txt")
	assert.Error(t, err)

	_, err = run("export", "/evidence/missing*.txt")
	assert.Error(t, err)
}

func Test_importCommand(t *testing.T) {
	db := setup(t)
	metricsFile := filepath.Join(t.TempDir(), "es4forensics.prom")

	_, err := run("import", "--sqlite", db, "--index", "case", "--bulk-size", "3", "--metrics-file", metricsFile, "/evidence/host*.txt")
	require.NoError(t, err)

	client, err := sqliteindex.Open(db)
	require.NoError(t, err)
	defer client.Close()
	count, err := client.Count("case")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "es4forensics_documents_created_total 4")
	assert.Contains(t, string(metrics), "es4forensics_documents_duplicate_total 4")
}

func Test_createAndExistsCommand(t *testing.T) {
	db := setup(t)

	output, err := run("exists", "--sqlite", db, "--index", "case")
	require.NoError(t, err)
	assert.Equal(t, "false\n", string(output))

	_, err = run("create", "--sqlite", db, "--index", "case")
	require.NoError(t, err)
	// creating an existing index is not an error
	_, err = run("create", "--sqlite", db, "--index", "case")
	require.NoError(t, err)

	output, err = run("exists", "--sqlite", db, "--index", "case")
	require.NoError(t, err)
	assert.Equal(t, "true\n", string(output))

	_, err = run("exists", "--sqlite", db)
	assert.Error(t, err, "index is required")
}

func Test_configSources(t *testing.T) {
	db := setup(t)

	configFile := filepath.Join(t.TempDir(), "es4forensics.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("index: case\nsqlite: "+db+"\n"), 0600))
	_, err := run("create", "--config", configFile)
	require.NoError(t, err)

	t.Setenv("E4F_INDEX", "case")
	t.Setenv("E4F_SQLITE", db)
	output, err := run("exists")
	require.NoError(t, err)
	assert.Equal(t, "true", strings.TrimSpace(string(output)))

	// flags win over the environment
	output, err = run("exists", "--index", "other")
	require.NoError(t, err)
	assert.Equal(t, "false", strings.TrimSpace(string(output)))
}

func Test_exportCommandArchive(t *testing.T) {
	setup(t)

	archive := filepath.Join(t.TempDir(), "case.forensicstore")
	conn, err := sqlite.OpenConn(archive, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE)
	require.NoError(t, err)
	for _, query := range []string{
		`CREATE TABLE sqlar(name TEXT PRIMARY KEY, mode INT, mtime INT, sz INT, data BLOB)`,
		`INSERT INTO sqlar VALUES ('/timelines/host1.txt', 420, 1577092511, ` + fmt.Sprint(len(bodyfile)) + `, CAST('` + bodyfile + `' AS BLOB))`,
	} {
		stmt, err := conn.Prepare(query)
		require.NoError(t, err)
		_, err = stmt.Step()
		require.NoError(t, err)
		require.NoError(t, stmt.Finalize())
	}
	require.NoError(t, conn.Close())

	output, err := run("export", "--archive", archive, "timelines/*.txt")
	require.NoError(t, err)
	assert.Len(t, lines(t, output), 4)
}
