package analysis

import "github.com/ethereum/go-ethereum/common"

// MaxCodeSize is the maximum possible contract code size (EIP-170). It bounds
// the theoretical leaf count of the chunk tree: MaxCodeSize / chunkSize.
const MaxCodeSize = 0x6000

// ChunkMetrics is the estimate for one (contract, chunk size) pair.
type ChunkMetrics struct {
	ChunkSize     int
	NumChunks     uint64
	MissingHashes uint64
}

// ContractMetrics aggregates one contract's execution within a block.
type ContractMetrics struct {
	CodeHash      common.Hash
	Instances     int
	CodeSize      int
	ExecutedBytes uint64
	PerChunkSize  []ChunkMetrics
}
