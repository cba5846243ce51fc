// Package presence provides the sparse integer sets the analysis runs on:
// which bytes of a contract were executed, which chunks those bytes fall
// into, and which nodes of a tree level are present. Memory stays
// proportional to the elements actually present, never to the domain.
package presence

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a sparse set of non-negative integers backed by a compressed
// bitmap. The zero value is not usable; use New or FromElements.
type Set struct {
	bm *roaring.Bitmap
}

func New() *Set {
	return &Set{bm: roaring.New()}
}

// FromElements builds a set containing exactly the given elements.
func FromElements(elems []uint32) *Set {
	return &Set{bm: roaring.BitmapOf(elems...)}
}

func (s *Set) Add(x uint32) {
	s.bm.Add(x)
}

// AddRange unions in all integers in the half-open range [lo, hi).
func (s *Set) AddRange(lo, hi uint64) {
	s.bm.AddRange(lo, hi)
}

func (s *Set) Contains(x uint32) bool {
	return s.bm.Contains(x)
}

func (s *Set) Cardinality() uint64 {
	return s.bm.GetCardinality()
}

func (s *Set) IsEmpty() bool {
	return s.bm.IsEmpty()
}

// Max returns the largest element. Callers must check IsEmpty first.
func (s *Set) Max() uint32 {
	return s.bm.Maximum()
}

// CountRange returns how many elements fall in the half-open range [lo, hi).
func (s *Set) CountRange(lo, hi uint64) uint64 {
	if hi <= lo || s.bm.IsEmpty() {
		return 0
	}
	max := uint64(s.bm.Maximum())
	if hi > max+1 {
		hi = max + 1
	}
	if hi <= lo {
		return 0
	}
	count := s.bm.Rank(uint32(hi - 1))
	if lo > 0 {
		count -= s.bm.Rank(uint32(lo - 1))
	}
	return count
}

// ElementsInRange returns the elements in [lo, hi) in ascending order.
func (s *Set) ElementsInRange(lo, hi uint64) []uint32 {
	if hi <= lo {
		return nil
	}
	var out []uint32
	it := s.bm.Iterator()
	it.AdvanceIfNeeded(uint32(lo))
	for it.HasNext() {
		v := it.Next()
		if uint64(v) >= hi {
			break
		}
		out = append(out, v)
	}
	return out
}

// Equals reports whether both sets contain exactly the same elements.
func (s *Set) Equals(other *Set) bool {
	return s.bm.Equals(other.bm)
}
