package main

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/influxdata/tdigest"
)

// runTotals aggregates across all processed files. One sizeTotals entry per
// configured chunk size, in configuration order.
type runTotals struct {
	blocks        int
	executedBytes uint64
	perSize       []sizeTotals
	segDigest     *tdigest.TDigest
}

func newRunTotals(numChunkSizes int) *runTotals {
	return &runTotals{
		perSize:   make([]sizeTotals, numChunkSizes),
		segDigest: tdigest.New(),
	}
}

func (rt *runTotals) addFile(res fileResult) {
	rt.blocks += res.blocks
	rt.executedBytes += res.executedBytes
	for csi := range res.perSize {
		rt.perSize[csi].chunks += res.perSize[csi].chunks
		rt.perSize[csi].hashes += res.perSize[csi].hashes
	}
	for _, s := range res.segSizes {
		rt.segDigest.Add(float64(s), 1)
	}
}

// printSizeBreakdown prints, for a scope's totals (block, file or run), the
// chunk overhead per chunk size and the hash/total overhead per hash size,
// all relative to the scope's executed bytes.
func printSizeBreakdown(executedBytes uint64, perSize []sizeTotals, chunkSizes, hashSizes []int) {
	if executedBytes == 0 {
		return
	}
	for csi, chunkSize := range chunkSizes {
		chunks := perSize[csi].chunks
		hashes := perSize[csi].hashes
		chunkBytes := chunks * uint64(chunkSize)
		chunkOverhead := (float64(chunkBytes) - float64(executedBytes)) / float64(executedBytes) * 100
		fmt.Printf("\tchunksize=%2d\tchunk_oh=%5.1f%% (%d chunks) + %d hashes\n",
			chunkSize, chunkOverhead, chunks, hashes)
		for _, hashSize := range hashSizes {
			hashBytes := hashes * uint64(hashSize)
			hashOverhead := float64(hashBytes) / float64(executedBytes) * 100
			totalBytes := chunkBytes + hashBytes
			totalOverhead := (float64(totalBytes) - float64(executedBytes)) / float64(executedBytes) * 100
			fmt.Printf("\t\thashsize=%2d\t hash_oh=%5.1f%%\t\ttotal_oh=%5.1f%%\n",
				hashSize, hashOverhead, totalOverhead)
		}
	}
}

func printFileSummary(res fileResult, cfg *config) {
	fmt.Printf("file %s: blocks=%d\texec=%s", res.path, res.blocks, humanBytes(res.executedBytes))
	if cfg.segmentStats {
		fmt.Printf("\tsegs=%d\tseg_sizes:%s", len(res.segSizes), sparklineSizes(res.segSizes))
	}
	fmt.Println()
	printSizeBreakdown(res.executedBytes, res.perSize, cfg.chunkSizes, cfg.hashSizes)
}

func printRunningTotals(rt *runTotals, cfg *config) {
	fmt.Printf("running total: blocks=%d", rt.blocks)
	if cfg.segmentStats {
		fmt.Printf("\testimated median segsize:%.1f", rt.segDigest.Quantile(0.5))
	}
	fmt.Println()
	printSizeBreakdown(rt.executedBytes, rt.perSize, cfg.chunkSizes, cfg.hashSizes)
}

func humanBytes(n uint64) string {
	return datasize.ByteSize(n).HumanReadable()
}
