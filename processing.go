package main

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/jsign/fixed-chunking-analysis/analysis"
	"github.com/jsign/fixed-chunking-analysis/analysis/fixedchunker"
	"github.com/jsign/fixed-chunking-analysis/analysis/merklizer"
	"github.com/jsign/fixed-chunking-analysis/analysis/presence"
	"github.com/jsign/fixed-chunking-analysis/ingest"
)

// contractData accumulates one contract's execution across a block's
// transactions, keyed by codehash by the caller.
type contractData struct {
	instances int
	size      int
	bytemap   *presence.Set
}

type sizeTotals struct {
	chunks uint64
	hashes uint64
}

type fileResult struct {
	path          string
	blocks        int
	executedBytes uint64
	perSize       []sizeTotals
	segSizes      []int // sorted; populated only with --segment-stats
	elapsed       time.Duration
}

type processor struct {
	cfg *config

	// vizOnce hands the DOT sink to exactly one estimation; the observer
	// must never be shared across concurrent computations.
	vizOnce sync.Once
}

// processFiles runs one worker's share of the trace files, emitting one
// result per file.
func (pr *processor) processFiles(paths []string, out chan<- fileResult) error {
	for _, path := range paths {
		t0 := time.Now()
		traces, err := ingest.ReadFile(path)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}

		res := fileResult{path: path, perSize: make([]sizeTotals, len(pr.cfg.chunkSizes))}
		for _, blockNum := range traces.SortedBlocks() {
			txs := traces[blockNum]
			res.blocks++
			if len(txs) == 0 {
				log.Debug("Empty block", "block", blockNum)
				continue
			}
			if err := pr.processBlock(blockNum, txs, &res); err != nil {
				return fmt.Errorf("processing %s block %s: %w", path, blockNum, err)
			}
		}
		sort.Ints(res.segSizes)
		res.elapsed = time.Since(t0)
		out <- res
	}
	return nil
}

func (pr *processor) processBlock(blockNum string, txs []ingest.TxTrace, res *fileResult) error {
	contracts := make(map[common.Hash]*contractData)
	var contractOrder []common.Hash
	emptyTransactions := 0
	var blockSegSizes []int

	for _, t := range txs {
		if t.Tx == nil {
			// A value transfer, no code executed.
			emptyTransactions++
			continue
		}
		log.Debug("Transaction segments", "tx", t.TxAddr, "segments", len(t.Segments))
		codehash := common.HexToHash(t.CodeHash)
		data := contracts[codehash]
		if data == nil {
			data = &contractData{instances: 1, size: t.CodeSize, bytemap: presence.New()}
			contracts[codehash] = data
			contractOrder = append(contractOrder, codehash)
		} else {
			data.instances++
		}

		var txSegSizes []int
		for _, s := range t.Segments {
			data.bytemap.AddRange(uint64(s.Start), uint64(s.End)+1)
			if pr.cfg.segmentStats {
				txSegSizes = append(txSegSizes, s.End-s.Start+1)
			}
		}
		if pr.cfg.segmentStats {
			sort.Ints(txSegSizes)
			blockSegSizes = append(blockSegSizes, txSegSizes...)
		}
		if pr.cfg.detailLevel >= detailTransaction {
			segstats := ""
			if pr.cfg.segmentStats {
				segstats = " seg_sizes:" + sparklineSizes(txSegSizes)
			}
			fmt.Printf("Block %s codehash=%s tx=%s segs=%d%s\n", blockNum, codehash, t.TxAddr, len(t.Segments), segstats)
		}
	}

	// Coherency check: every transaction is either empty or attributed to a
	// contract instance.
	executedTransactions := 0
	for _, data := range contracts {
		executedTransactions += data.instances
	}
	if executedTransactions+emptyTransactions != len(txs) {
		return fmt.Errorf("classified %d+%d transactions out of %d", executedTransactions, emptyTransactions, len(txs))
	}
	if executedTransactions == 0 {
		log.Debug("Block had no segments", "block", blockNum)
		return nil
	}

	var blockExecutedBytes uint64
	blockPerSize := make([]sizeTotals, len(pr.cfg.chunkSizes))
	for _, codehash := range contractOrder {
		metrics, err := pr.estimateContract(blockNum, codehash, contracts[codehash])
		if err != nil {
			// Contract violation: abort this contract's estimate, keep the run.
			log.Error("Skipping contract estimate", "block", blockNum, "codehash", codehash, "err", err)
			continue
		}
		blockExecutedBytes += metrics.ExecutedBytes
		for csi, cm := range metrics.PerChunkSize {
			blockPerSize[csi].chunks += cm.NumChunks
			blockPerSize[csi].hashes += cm.MissingHashes
		}
	}
	res.executedBytes += blockExecutedBytes
	for csi := range blockPerSize {
		res.perSize[csi].chunks += blockPerSize[csi].chunks
		res.perSize[csi].hashes += blockPerSize[csi].hashes
	}

	if pr.cfg.detailLevel >= detailBlock {
		fmt.Printf("Block %s: exec=%s", blockNum, humanBytes(blockExecutedBytes))
		if pr.cfg.segmentStats {
			sort.Ints(blockSegSizes)
			fmt.Printf("\tsegs=%d\tseg_sizes:%s", len(blockSegSizes), sparklineSizes(blockSegSizes))
		}
		fmt.Println()
		printSizeBreakdown(blockExecutedBytes, blockPerSize, pr.cfg.chunkSizes, pr.cfg.hashSizes)
	}
	res.segSizes = append(res.segSizes, blockSegSizes...)
	return nil
}

// estimateContract runs the chunker and the merklizer over one contract's
// byte presence map for every configured chunk size.
func (pr *processor) estimateContract(blockNum string, codehash common.Hash, data *contractData) (analysis.ContractMetrics, error) {
	metrics := analysis.ContractMetrics{
		CodeHash:      codehash,
		Instances:     data.instances,
		CodeSize:      data.size,
		ExecutedBytes: data.bytemap.Cardinality(),
		PerChunkSize:  make([]analysis.ChunkMetrics, 0, len(pr.cfg.chunkSizes)),
	}
	for csi, chunkSize := range pr.cfg.chunkSizes {
		chunkmap := fixedchunker.FromBytemap(data.bytemap, chunkSize)
		maxTheoreticalChunks := uint64(analysis.MaxCodeSize / chunkSize)

		var dotObs *merklizer.DotObserver
		if pr.cfg.vizOut != "" && csi == 0 && codehash == pr.cfg.vizCodeHash {
			pr.vizOnce.Do(func() { dotObs = merklizer.NewDotObserver() })
		}
		var obs merklizer.Observer
		if dotObs != nil {
			obs = dotObs
		}

		hashes, err := merklizer.CountMissingHashes(chunkmap, pr.cfg.arity, maxTheoreticalChunks, obs)
		if err != nil {
			return metrics, err
		}
		if dotObs != nil {
			if err := writeDotFile(pr.cfg.vizOut, dotObs); err != nil {
				log.Error("Writing tree visualization failed", "path", pr.cfg.vizOut, "err", err)
			} else {
				log.Info("Wrote tree visualization", "path", pr.cfg.vizOut, "codehash", codehash, "chunksize", chunkSize)
			}
		}

		numChunks := chunkmap.Cardinality()
		chunkedBytes := numChunks * uint64(chunkSize)

		highlighter := ""
		if chunkedBytes < metrics.ExecutedBytes {
			// Chunked code can never undercover executed code; this is a
			// set-logic defect, reported but not fatal to the run.
			log.Error("Contract executes more bytes than it merklizes",
				"block", blockNum, "codehash", codehash,
				"executed", metrics.ExecutedBytes, "chunked", chunkedBytes)
			highlighter = "\t\t??????"
			fmt.Println(fixedchunker.ContractMap(data.bytemap, chunkmap, data.size, chunkSize))
		}

		if pr.cfg.detailLevel >= detailContract {
			chunkWaste := 0.0
			if chunkedBytes > 0 {
				chunkWaste = float64(chunkedBytes-metrics.ExecutedBytes) / float64(chunkedBytes) * 100
			}
			fmt.Printf("Contract %s: %d txs size=%d\texecuted=%d\tchunksize=%d\tchunks=%d=%dB\twasted=%.0f%%\thashes=%d%s\n",
				codehash, data.instances, data.size, metrics.ExecutedBytes,
				chunkSize, numChunks, chunkedBytes, chunkWaste, hashes, highlighter)
		}

		metrics.PerChunkSize = append(metrics.PerChunkSize, analysis.ChunkMetrics{
			ChunkSize:     chunkSize,
			NumChunks:     numChunks,
			MissingHashes: hashes,
		})
	}
	return metrics, nil
}

func writeDotFile(path string, obs *merklizer.DotObserver) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return obs.Render(f)
}
