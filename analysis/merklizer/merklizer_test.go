package merklizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsign/fixed-chunking-analysis/analysis/presence"
)

func TestEmptyChunkmap(t *testing.T) {
	for _, arity := range []int{2, 4, 16} {
		hashes, err := CountMissingHashes(presence.New(), arity, 1024, nil)
		require.NoError(t, err)
		require.EqualValues(t, 0, hashes)
	}
}

func TestInvalidArity(t *testing.T) {
	_, err := CountMissingHashes(presence.FromElements([]uint32{0}), 1, 1024, nil)
	require.ErrorIs(t, err, ErrInvalidArity)
}

func TestDomainBoundViolation(t *testing.T) {
	_, err := CountMissingHashes(presence.FromElements([]uint32{4}), 2, 4, nil)
	var boundErr *DomainBoundError
	require.ErrorAs(t, err, &boundErr)
	require.EqualValues(t, 4, boundErr.MaxElement)
	require.EqualValues(t, 4, boundErr.Bound)
}

func TestCountMissingHashes(t *testing.T) {
	tests := []struct {
		name      string
		chunks    []uint32
		arity     int
		maxChunks uint64
		want      uint64
	}{
		// Level 0: group (0,1) has 1 of 2, parent 0 present, 1 missing.
		// Level 1: group (0,1) has 1 of 2, 1 missing. Total 2.
		{"single chunk binary", []uint32{0}, 2, 4, 2},
		// Level 0: group (0,1) complete, 0 missing.
		// Level 1: group (0,1) has 1 of 2, 1 missing. Total 1.
		{"full sibling group binary", []uint32{0, 1}, 2, 4, 1},
		{"all leaves present", []uint32{0, 1, 2, 3}, 2, 4, 0},
		{"distant leaves", []uint32{0, 3}, 2, 4, 2},
		// Width 3: ragged final group (2) counts arity-present missing.
		// Level 1 width 2: 1 of 2 present. Total 2.
		{"ragged final group", []uint32{2}, 2, 3, 2},
		{"quaternary single leaf", []uint32{0}, 4, 16, 6},
		{"width below arity is a root", []uint32{0}, 4, 3, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hashes, err := CountMissingHashes(presence.FromElements(tc.chunks), tc.arity, tc.maxChunks, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, hashes)
		})
	}
}

func TestRandomizedBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		arity := 2 + rng.Intn(15)
		maxChunks := uint64(2 + rng.Intn(6000))
		chunkmap := presence.New()
		for c := 0; c < 1+rng.Intn(50); c++ {
			chunkmap.Add(uint32(rng.Int63n(int64(maxChunks))))
		}

		hashes, err := CountMissingHashes(chunkmap, arity, maxChunks, nil)
		require.NoError(t, err)
		again, err := CountMissingHashes(chunkmap, arity, maxChunks, nil)
		require.NoError(t, err)
		require.Equal(t, hashes, again)

		levels := uint64(0)
		for width := maxChunks; width >= uint64(arity); width = (width + uint64(arity) - 1) / uint64(arity) {
			levels++
		}
		require.LessOrEqual(t, hashes, chunkmap.Cardinality()*uint64(arity-1)*levels)
	}
}

type event struct {
	level         int
	parent, child uint64
	state         NodeState
}

// recordingObserver collects the structural trace for assertions.
type recordingObserver struct {
	edges []event
	nodes []event
	roots []event
}

func (r *recordingObserver) Edge(level int, parent, child uint64) {
	r.edges = append(r.edges, event{level: level, parent: parent, child: child})
}

func (r *recordingObserver) Node(level int, child uint64, state NodeState) {
	r.nodes = append(r.nodes, event{level: level, child: child, state: state})
}

func (r *recordingObserver) Root(level int, index uint64) {
	r.roots = append(r.roots, event{level: level, child: index})
}

func TestObserverTrace(t *testing.T) {
	obs := &recordingObserver{}
	hashes, err := CountMissingHashes(presence.FromElements([]uint32{0}), 2, 4, obs)
	require.NoError(t, err)
	require.EqualValues(t, 2, hashes)

	// The dense scan visits every theoretical relation: 4 edges on level 0,
	// 2 on level 1.
	require.Equal(t, []event{
		{level: 0, parent: 0, child: 0},
		{level: 0, parent: 0, child: 1},
		{level: 0, parent: 1, child: 2},
		{level: 0, parent: 1, child: 3},
		{level: 1, parent: 0, child: 0},
		{level: 1, parent: 0, child: 1},
	}, obs.edges)

	// Nodes are only annotated inside groups with a present member.
	require.Equal(t, []event{
		{level: 0, child: 0, state: NodePresentLeaf},
		{level: 0, child: 1, state: NodeMissingWitness},
		{level: 1, child: 0, state: NodePresentInternal},
		{level: 1, child: 1, state: NodeMissingWitness},
	}, obs.nodes)

	require.Equal(t, []event{{level: 2, child: 0}}, obs.roots)
}

func TestObserverDoesNotChangeCount(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		arity := 2 + rng.Intn(6)
		maxChunks := uint64(2 + rng.Intn(768))
		chunkmap := presence.New()
		for c := 0; c < 1+rng.Intn(20); c++ {
			chunkmap.Add(uint32(rng.Int63n(int64(maxChunks))))
		}

		plain, err := CountMissingHashes(chunkmap, arity, maxChunks, nil)
		require.NoError(t, err)
		observed, err := CountMissingHashes(chunkmap, arity, maxChunks, &recordingObserver{})
		require.NoError(t, err)
		require.Equal(t, plain, observed)
	}
}

func TestObserverEmptyChunkmap(t *testing.T) {
	obs := &recordingObserver{}
	hashes, err := CountMissingHashes(presence.New(), 2, 4, obs)
	require.NoError(t, err)
	require.EqualValues(t, 0, hashes)
	require.Empty(t, obs.edges)
	require.Empty(t, obs.nodes)
	require.Empty(t, obs.roots)
}
