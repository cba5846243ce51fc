package merklizer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsign/fixed-chunking-analysis/analysis/presence"
)

func TestDotObserverRendering(t *testing.T) {
	obs := NewDotObserver()
	hashes, err := CountMissingHashes(presence.FromElements([]uint32{0}), 2, 4, obs)
	require.NoError(t, err)
	require.EqualValues(t, 2, hashes)

	var buf bytes.Buffer
	require.NoError(t, obs.Render(&buf))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, "graph"))
	// All six theoretical tree positions are drawn.
	for _, name := range []string{"L0_0", "L0_1", "L0_2", "L0_3", "L1_0", "L1_1", "L2_0"} {
		require.Contains(t, out, name)
	}
	// The present leaf, the missing witnesses, and the recomputable spine.
	require.Contains(t, out, "lawngreen")
	require.Contains(t, out, "red")
	require.Contains(t, out, "gray70")
}
