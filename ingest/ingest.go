// Package ingest reads the gzipped JSON trace files produced by the tracing
// node: one object per file mapping block numbers to the transaction traces
// replayed in that block.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Segment is an inclusive range of executed byte offsets within one
// contract's code.
type Segment struct {
	Start int `json:"Start"`
	End   int `json:"End"`
}

// TxTrace is one transaction's execution footprint over one contract. A nil
// Tx marks a plain value transfer that executed no code.
type TxTrace struct {
	Tx       *string   `json:"Tx"`
	TxAddr   string    `json:"TxAddr"`
	CodeHash string    `json:"CodeHash"`
	CodeSize int       `json:"CodeSize"`
	Segments []Segment `json:"Segments"`
}

// BlockTraces maps block numbers (as decimal strings, the trace format's
// JSON keys) to the traces of that block.
type BlockTraces map[string][]TxTrace

// ReadFile decompresses and decodes one trace file.
func ReadFile(path string) (BlockTraces, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	var traces BlockTraces
	if err := json.NewDecoder(gz).Decode(&traces); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return traces, nil
}

// SortedBlocks returns the block keys in ascending order so per-block output
// is stable across runs.
func (bt BlockTraces) SortedBlocks() []string {
	blocks := make([]string, 0, len(bt))
	for b := range bt {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if len(blocks[i]) != len(blocks[j]) {
			return len(blocks[i]) < len(blocks[j])
		}
		return blocks[i] < blocks[j]
	})
	return blocks
}

// ListFiles expands the command-line arguments into a sorted list of trace
// files: either one directory containing *.json.gz files, or the files
// themselves.
func ListFiles(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return nil, err
			}
			var files []string
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".json.gz") {
					files = append(files, filepath.Join(args[0], e.Name()))
				}
			}
			sort.Strings(files)
			return files, nil
		}
	}
	files := append([]string(nil), args...)
	sort.Strings(files)
	return files, nil
}
