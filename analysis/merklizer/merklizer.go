// Package merklizer counts the sibling hashes a verifier must be given to
// reconstruct the root of a fixed-arity Merkle tree that authenticates
// exactly the present chunks. It never materializes the theoretical tree:
// each level is a sparse presence set, and the scan over candidate parents is
// bounded by the data's extent rather than the theoretical width.
package merklizer

import (
	"errors"
	"fmt"

	"github.com/jsign/fixed-chunking-analysis/analysis/presence"
)

// ErrInvalidArity is returned when the tree arity is below 2.
var ErrInvalidArity = errors.New("tree arity must be at least 2")

// DomainBoundError reports a chunk index at or beyond the declared
// theoretical maximum: the declared code size and the observed execution are
// inconsistent, so the estimate is aborted rather than silently wrong.
type DomainBoundError struct {
	MaxElement uint32
	Bound      uint64
}

func (e *DomainBoundError) Error() string {
	return fmt.Sprintf("chunk index %d is outside the theoretical bound %d", e.MaxElement, e.Bound)
}

// CountMissingHashes walks the conceptual tree level by level, starting with
// chunkmap as level 0 over a theoretical width of maxTheoreticalChunks
// leaves. For every group of arity siblings with at least one present member,
// the absent siblings must be supplied as witness hashes and the parent is
// present on the next level. The loop ends when the theoretical width drops
// below the arity (root reached); the root itself costs nothing.
//
// An empty chunkmap costs 0 hashes: there is nothing to authenticate and no
// root. When obs is non-nil every theoretical parent is visited so the full
// static shape can be drawn; the returned count is identical either way.
func CountMissingHashes(chunkmap *presence.Set, arity int, maxTheoreticalChunks uint64, obs Observer) (uint64, error) {
	if arity < 2 {
		return 0, ErrInvalidArity
	}
	if chunkmap.IsEmpty() {
		return 0, nil
	}
	if uint64(chunkmap.Max()) >= maxTheoreticalChunks {
		return 0, &DomainBoundError{MaxElement: chunkmap.Max(), Bound: maxTheoreticalChunks}
	}

	var numHashes uint64
	level := 0
	levelSet := chunkmap
	theoreticalWidth := maxTheoreticalChunks
	for theoreticalWidth >= uint64(arity) {
		theoreticalParents := ceilDiv(theoreticalWidth, uint64(arity))

		// Bound the scan by the data's extent: no parent beyond the one
		// covering the maximum present element can be present. With an
		// observer attached the full theoretical shape is needed instead.
		parentsToCheck := ceilDiv(uint64(levelSet.Max())+1, uint64(arity))
		if obs != nil {
			parentsToCheck = theoreticalParents
		}

		var parents []uint32
		for p := uint64(0); p < parentsToCheck; p++ {
			siblingsStart := p * uint64(arity)
			siblingsEnd := siblingsStart + uint64(arity)
			if siblingsEnd > theoreticalWidth {
				// The last group is narrower when the width is not a
				// multiple of the arity.
				siblingsEnd = theoreticalWidth
			}
			present := levelSet.CountRange(siblingsStart, siblingsEnd)

			if obs != nil {
				observeGroup(obs, level, p, siblingsStart, siblingsEnd, present, levelSet)
			}

			if present == 0 {
				// Whole subtree absent: no parent, no witness cost.
				continue
			}
			parents = append(parents, uint32(p))
			numHashes += uint64(arity) - present
		}

		levelSet = presence.FromElements(parents)
		theoreticalWidth = theoreticalParents
		level++
	}

	if obs != nil {
		for _, r := range levelSet.ElementsInRange(0, theoreticalWidth) {
			obs.Root(level, uint64(r))
		}
	}
	return numHashes, nil
}

func observeGroup(obs Observer, level int, parent, siblingsStart, siblingsEnd, present uint64, levelSet *presence.Set) {
	for s := siblingsStart; s < siblingsEnd; s++ {
		obs.Edge(level, parent, s)
		if present == 0 {
			// No sibling present, the group stays unannotated.
			continue
		}
		switch {
		case !levelSet.Contains(uint32(s)):
			obs.Node(level, s, NodeMissingWitness)
		case level == 0:
			obs.Node(level, s, NodePresentLeaf)
		default:
			obs.Node(level, s, NodePresentInternal)
		}
	}
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
