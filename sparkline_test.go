package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMedianOfSorted(t *testing.T) {
	require.Equal(t, 3, medianOfSorted([]int{1, 3, 5}))
	require.Equal(t, 4, medianOfSorted([]int{1, 3, 5, 7}))
	require.Equal(t, 9, medianOfSorted([]int{9}))
}

func TestSparkline(t *testing.T) {
	require.Equal(t, "▁▂▄█", sparkline([]int{0, 1, 2, 4}))
	require.Equal(t, "▁▁▁", sparkline([]int{0, 0, 0}))
	require.Equal(t, "█", sparkline([]int{5}))
}

func TestSparklineSizes(t *testing.T) {
	line := sparklineSizes([]int{2, 2, 3, 4, 50})
	require.True(t, strings.HasPrefix(line, "median=3"))
	require.Contains(t, line, "(+20% more)")

	require.Contains(t, sparklineSizes(nil), "CAN'T BUCKETIZE")
	require.Contains(t, sparklineSizes([]int{0, 0}), "CAN'T BUCKETIZE")
}
