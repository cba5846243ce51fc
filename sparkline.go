package main

import (
	"fmt"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparklineSizes summarizes a sorted list of segment sizes as a one-line
// histogram of unit buckets up to twice the median: half of the items fall
// below the median, and that range is typically short, so doubling it keeps
// the interesting part visible. The tail beyond it is reported as a
// percentage.
func sparklineSizes(sorted []int) string {
	if len(sorted) == 0 {
		return "CAN'T BUCKETIZE! sizes=[]"
	}
	median := medianOfSorted(sorted)
	topBucket := 2 * median
	if topBucket <= 1 {
		return fmt.Sprintf("CAN'T BUCKETIZE! sizes=%v", sorted)
	}
	// Bucket b holds sizes of exactly b+1 bytes.
	buckets := make([]int, topBucket-1)
	counted := 0
	for _, s := range sorted {
		b := s - 1
		if b >= len(buckets) {
			// Sizes are sorted, nothing smaller follows.
			break
		}
		counted++
		if b < 0 {
			b = 0
		}
		buckets[b]++
	}
	remaining := (1 - float64(counted)/float64(len(sorted))) * 100
	return fmt.Sprintf("median=%d\t\t1%s%d (+%.0f%% more)", median, sparkline(buckets), topBucket-1, remaining)
}

// sparkline scales each bucket count to one of eight block runes.
func sparkline(buckets []int) string {
	max := 0
	for _, v := range buckets {
		if v > max {
			max = v
		}
	}
	out := make([]rune, len(buckets))
	for i, v := range buckets {
		if max == 0 {
			out[i] = sparkRunes[0]
			continue
		}
		out[i] = sparkRunes[v*(len(sparkRunes)-1)/max]
	}
	return string(out)
}

func medianOfSorted(sorted []int) int {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
