package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func localStore(t *testing.T) []string {
	t.Helper()
	return []string{"--store", "local", "--path", t.TempDir(), "--dimensions", "64"}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "hypervec version "+version+"\n", out)
}

func TestGenerate(t *testing.T) {
	out, err := run(t, "", "generate", "click", "--dims", "8")
	require.NoError(t, err)
	v := decode[[]float32](t, out)
	require.Len(t, v, 8)
	for _, x := range v {
		assert.Contains(t, []float32{-1, 1}, x)
	}

	again, err := run(t, "", "generate", "click", "--dims", "8")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	out, err = run(t, "", "generate", "click", "--dims", "8", "--modulus", "32")
	require.NoError(t, err)
	for _, x := range decode[[]uint16](t, out) {
		assert.Less(t, x, uint16(32))
	}

	_, err = run(t, "", "generate", "click", "--modulus", "7")
	assert.Error(t, err)
	_, err = run(t, "", "generate", "click", "--dims", "0")
	assert.Error(t, err)
}

func TestSparse(t *testing.T) {
	out, err := run(t, "", "sparse", "item-1", "--space", "1000", "--sparsity", "5")
	require.NoError(t, err)
	v := decode[map[string]uint16](t, out)
	assert.NotEmpty(t, v)
	assert.LessOrEqual(t, len(v), 5)
}

func TestProfile_PersistsAcrossRuns(t *testing.T) {
	store := localStore(t)

	out, err := run(t, "", append([]string{"profile", "add", "click", "item-1"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), decode[map[string]uint64](t, out)["interactions"])

	out, err = run(t, "", append([]string{"profile", "fact", "action=buy", "item=shoes"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), decode[map[string]uint64](t, out)["interactions"])

	out, err = run(t, "", append([]string{"profile", "export", "--format", "quantized"}, store...)...)
	require.NoError(t, err)
	assert.Len(t, decode[[]int16](t, out), 64)

	out, err = run(t, "", append([]string{"profile", "export", "--format", "half"}, store...)...)
	require.NoError(t, err)
	assert.Len(t, decode[[]uint16](t, out), 64)

	_, err = run(t, "", append([]string{"profile", "export", "--format", "bogus"}, store...)...)
	assert.Error(t, err)

	_, err = run(t, "", append([]string{"profile", "fact", "broken"}, store...)...)
	assert.Error(t, err)
}

const observations = `{"key":"a","vector":{"1":10,"2":20}}
{"key":"b","vector":{"1":12,"2":25}}
{"key":"c","vector":{"900":5}}
{"key":"d","vector":{}}
`

func TestAnchors_LearnListMatch(t *testing.T) {
	store := localStore(t)

	out, err := run(t, observations, append([]string{"anchors", "learn", "--max-dimensions", "4"}, store...)...)
	require.NoError(t, err)
	stats := decode[map[string]any](t, out)
	assert.EqualValues(t, 2, stats["Anchors"])
	assert.EqualValues(t, 1, stats["Rejected"])

	out, err = run(t, "", append([]string{"anchors", "list"}, store...)...)
	require.NoError(t, err)
	assert.Len(t, decode[[]map[string]uint16](t, out), 2)

	out, err = run(t, `{"key":"q","vector":{"900":6}}`, append([]string{"anchors", "match"}, store...)...)
	require.NoError(t, err)
	m := decode[map[string]any](t, out)
	assert.Equal(t, true, m["found"])
	assert.EqualValues(t, 1, m["anchor"])
}

func TestQuery_RecommendsProfileMatch(t *testing.T) {
	store := localStore(t)

	_, err := run(t, "", append([]string{"profile", "add", "click", "item-1"}, store...)...)
	require.NoError(t, err)
	out, err := run(t, "", append([]string{"profile", "export", "--format", "raw"}, store...)...)
	require.NoError(t, err)
	profile := decode[[]float32](t, out)

	var catalog bytes.Buffer
	enc := json.NewEncoder(&catalog)
	require.NoError(t, enc.Encode(item{ID: "match", Vector: profile}))
	for _, key := range []string{"x", "y", "z"} {
		out, err := run(t, "", "generate", key, "--dims", "64")
		require.NoError(t, err)
		require.NoError(t, enc.Encode(item{ID: key, Vector: decode[[]float32](t, out)}))
	}
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	require.NoError(t, os.WriteFile(path, catalog.Bytes(), 0o600))

	out, err = run(t, "", append([]string{"query", path, "--k", "2"}, store...)...)
	require.NoError(t, err)
	hits := decode[[]hit](t, out)
	require.Len(t, hits, 2)
	assert.Equal(t, "match", hits[0].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-4)
}

func TestObserve(t *testing.T) {
	store := localStore(t)

	out, err := run(t, observations, append([]string{"observe", "--idle", "10ms", "--max-dimensions", "4"}, store...)...)
	require.NoError(t, err)
	stats := decode[map[string]any](t, out)
	assert.EqualValues(t, 3, stats["submitted"])
	assert.EqualValues(t, 1, stats["rejected"])
	assert.EqualValues(t, 2, stats["anchors"])

	// Anchors were persisted after the stream drained.
	out, err = run(t, "", append([]string{"anchors", "list"}, store...)...)
	require.NoError(t, err)
	assert.Len(t, decode[[]map[string]uint16](t, out), 2)
}

func TestStoreSelection(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown store", []string{"--store", "tape"}},
		{"s3 without bucket", []string{"--store", "s3"}},
		{"minio without endpoint", []string{"--store", "minio", "--bucket", "b"}},
		{"dynamodb without table", []string{"--store", "dynamodb"}},
		{"bad compression", []string{"--compression", "gzip"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"bad log format", []string{"--log-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", append([]string{"anchors", "list"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestSQLiteAndCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := []string{"--store", "sqlite", "--path", path, "--compression", "zstd", "--dimensions", "64"}

	_, err := run(t, "", append([]string{"profile", "add", "click", "item-1"}, store...)...)
	require.NoError(t, err)
	out, err := run(t, "", append([]string{"profile", "add", "view", "item-2"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), decode[map[string]uint64](t, out)["interactions"])
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hypervec.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("store: local\npath: "+dir+"\n"), 0o600))

	_, err := run(t, "", "profile", "add", "click", "item-1", "--config", cfg, "--dimensions", "64")
	require.NoError(t, err)
	out, err := run(t, "", "profile", "add", "click", "item-2", "--config", cfg, "--dimensions", "64")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), decode[map[string]uint64](t, out)["interactions"])

	_, err = run(t, "", "version", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles([]string{"action=buy", "item=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"action": "buy", "item": "a=b"}, roles)

	for _, bad := range []string{"noequals", "=x", "x="} {
		_, err := parseRoles([]string{bad})
		assert.Error(t, err, bad)
	}
}
