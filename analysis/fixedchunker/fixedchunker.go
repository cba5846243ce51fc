// Package fixedchunker derives chunk-presence sets from byte-presence sets
// under fixed-size chunking: chunk c is present iff any byte in
// [c*chunkSize, (c+1)*chunkSize) was executed.
package fixedchunker

import (
	"strings"

	"github.com/jsign/fixed-chunking-analysis/analysis/presence"
)

// FromBytemap returns the set of chunk indices covering the executed bytes.
// An empty bytemap yields an empty chunk set. For chunkSize 1 the bytemap
// itself is returned: chunk and byte granularity coincide, so the result
// shares storage with the input.
func FromBytemap(bytemap *presence.Set, chunkSize int) *presence.Set {
	if bytemap.IsEmpty() {
		return presence.New()
	}
	if chunkSize == 1 {
		return bytemap
	}
	chunkmap := presence.New()
	maxChunk := uint64(bytemap.Max()) / uint64(chunkSize)
	for c := uint64(0); c <= maxChunk; c++ {
		chunkStart := c * uint64(chunkSize)
		chunkEnd := chunkStart + uint64(chunkSize)
		if bytemap.CountRange(chunkStart, chunkEnd) > 0 {
			chunkmap.Add(uint32(c))
		}
	}
	return chunkmap
}

// ContractMap renders one character per code byte, with chunk boundaries
// marked by '|'. Used as the diagnostic when the consistency check fails:
//
//	'.'  byte neither executed nor chunked
//	'X'  executed but not covered by any chunk (the defect being reported)
//	'm'  chunked but not executed (chunking overhead)
//	'M'  executed and chunked
func ContractMap(bytemap, chunkmap *presence.Set, codeSize, chunkSize int) string {
	var sb strings.Builder
	for b := 0; b < codeSize; b++ {
		if b%chunkSize == 0 {
			sb.WriteByte('|')
		}
		executed := bytemap.Contains(uint32(b))
		chunked := chunkmap.Contains(uint32(b / chunkSize))
		switch {
		case executed && chunked:
			sb.WriteByte('M')
		case chunked:
			sb.WriteByte('m')
		case executed:
			sb.WriteByte('X')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
