// Command fixed-chunking-analysis reads execution traces and estimates the
// witness-size overhead of merklizing contract code into fixed-size chunks:
// per contract, which chunks the executed bytes touch and how many sibling
// hashes a verifier would additionally need.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jsign/fixed-chunking-analysis/ingest"
)

// Detail levels: each one implies the lower ones.
const (
	detailFile = iota
	detailBlock
	detailContract
	detailTransaction
)

type config struct {
	chunkSizes   []int
	hashSizes    []int
	arity        int
	detailLevel  int
	segmentStats bool
	vizCodeHash  common.Hash
	vizOut       string
}

func main() {
	app := &cli.App{
		Name:      "fixed-chunking-analysis",
		Usage:     "estimate merklization witness overhead of fixed-size code chunking from execution traces",
		ArgsUsage: "<traces-dir | trace-file.json.gz ...>",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:    "chunk-size",
				Aliases: []string{"s"},
				Usage:   "chunk size in bytes, repeatable",
				Value:   cli.NewIntSlice(32),
			},
			&cli.IntSliceFlag{
				Name:    "hash-size",
				Aliases: []string{"m"},
				Usage:   "hash size in bytes, repeatable; only converts hash counts to bytes",
				Value:   cli.NewIntSlice(32),
			},
			&cli.IntFlag{
				Name:    "arity",
				Aliases: []string{"a"},
				Usage:   "number of children per tree node",
				Value:   2,
			},
			&cli.IntFlag{
				Name:    "detail",
				Aliases: []string{"d"},
				Usage:   "3=transaction, 2=contract, 1=block, 0=file; each level implies the lower ones",
				Value:   detailBlock,
			},
			&cli.BoolFlag{
				Name:    "segment-stats",
				Aliases: []string{"g"},
				Usage:   "calculate and show executed-segment size stats",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "log level (trace, debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "viz",
				Usage: "codehash of a contract to render as a Graphviz tree",
			},
			&cli.StringFlag{
				Name:  "viz-out",
				Usage: "output path for the Graphviz tree",
				Value: "tree.dot",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	lvl, err := lvlFromString(cCtx.String("log"))
	if err != nil {
		return err
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)))

	cfg := &config{
		chunkSizes:   cCtx.IntSlice("chunk-size"),
		hashSizes:    cCtx.IntSlice("hash-size"),
		arity:        cCtx.Int("arity"),
		detailLevel:  cCtx.Int("detail"),
		segmentStats: cCtx.Bool("segment-stats"),
	}
	if cfg.arity < 2 {
		return fmt.Errorf("invalid arity %d: must be at least 2", cfg.arity)
	}
	for _, s := range cfg.chunkSizes {
		if s < 1 {
			return fmt.Errorf("invalid chunk size %d: must be at least 1", s)
		}
	}
	if viz := cCtx.String("viz"); viz != "" {
		cfg.vizCodeHash = common.HexToHash(viz)
		cfg.vizOut = cCtx.String("viz-out")
	}

	if cCtx.NArg() == 0 {
		return fmt.Errorf("no trace files given")
	}
	files, err := ingest.ListFiles(cCtx.Args().Slice())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .json.gz trace files found")
	}

	fmt.Printf("Chunking for tree arity=%d, chunk sizes=%v, hash sizes=%v\n", cfg.arity, cfg.chunkSizes, cfg.hashSizes)

	// Split the files across the CPUs; each worker owns its share and the
	// cores are pure, so no synchronization beyond the results channel.
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	pr := &processor{cfg: cfg}
	results := make(chan fileResult, len(files))
	g, _ := errgroup.WithContext(context.Background())
	sliceSize := len(files) / numWorkers
	for i := 0; i < numWorkers; i++ {
		share := files[i*sliceSize:]
		if i != numWorkers-1 {
			share = files[i*sliceSize : (i+1)*sliceSize]
		}
		g.Go(func() error { return pr.processFiles(share, results) })
	}
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	totals := newRunTotals(len(cfg.chunkSizes))
	for res := range results {
		printFileSummary(res, cfg)
		log.Info("File processed", "path", res.path, "blocks", res.blocks,
			"elapsed", res.elapsed, "bps", float64(res.blocks)/res.elapsed.Seconds())

		totals.addFile(res)
		if len(files) > 1 {
			printRunningTotals(totals, cfg)
		}
	}
	return <-done
}

func lvlFromString(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
