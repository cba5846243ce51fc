package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunTotalsAddFile(t *testing.T) {
	rt := newRunTotals(2)
	rt.addFile(fileResult{
		blocks:        3,
		executedBytes: 100,
		perSize:       []sizeTotals{{chunks: 4, hashes: 10}, {chunks: 2, hashes: 5}},
		segSizes:      []int{1, 2, 3},
	})
	rt.addFile(fileResult{
		blocks:        1,
		executedBytes: 50,
		perSize:       []sizeTotals{{chunks: 1, hashes: 1}, {chunks: 1, hashes: 1}},
	})

	require.Equal(t, 4, rt.blocks)
	require.EqualValues(t, 150, rt.executedBytes)
	require.Equal(t, sizeTotals{chunks: 5, hashes: 11}, rt.perSize[0])
	require.Equal(t, sizeTotals{chunks: 3, hashes: 6}, rt.perSize[1])
	require.InDelta(t, 2.0, rt.segDigest.Quantile(0.5), 0.5)
}
