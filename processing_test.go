package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/jsign/fixed-chunking-analysis/ingest"
)

func writeTraceFile(t *testing.T, dir, name string, traces ingest.BlockTraces) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	require.NoError(t, json.NewEncoder(gz).Encode(traces))
	require.NoError(t, gz.Close())
	return path
}

func TestProcessFiles(t *testing.T) {
	tx := "0xaaa"
	traces := ingest.BlockTraces{
		"1": {
			{
				Tx:       &tx,
				TxAddr:   "0xdead",
				CodeHash: "0x01",
				CodeSize: 64,
				Segments: []ingest.Segment{{Start: 0, End: 5}, {Start: 31, End: 32}},
			},
			{Tx: nil}, // value transfer, must be classified as empty
		},
	}
	path := writeTraceFile(t, t.TempDir(), "a.json.gz", traces)

	cfg := &config{chunkSizes: []int{32}, hashSizes: []int{32}, arity: 2, detailLevel: detailFile}
	pr := &processor{cfg: cfg}
	out := make(chan fileResult, 1)
	require.NoError(t, pr.processFiles([]string{path}, out))

	res := <-out
	require.Equal(t, path, res.path)
	require.Equal(t, 1, res.blocks)
	// Bytes {0..5, 31, 32}.
	require.EqualValues(t, 8, res.executedBytes)
	require.Len(t, res.perSize, 1)
	// Chunks {0, 1}.
	require.EqualValues(t, 2, res.perSize[0].chunks)
	// 768 theoretical leaves at chunk size 32: the full leaf group costs
	// nothing, then one missing sibling per level up to the root.
	require.EqualValues(t, 9, res.perSize[0].hashes)
}

func TestProcessFilesBadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	pr := &processor{cfg: &config{chunkSizes: []int{32}, hashSizes: []int{32}, arity: 2}}
	out := make(chan fileResult, 1)
	require.Error(t, pr.processFiles([]string{path}, out))
}
